// SPDX-License-Identifier: Apache-2.0

package hexwire

import "hash/crc32"

// fileCRC accumulates the running CRC32 (standard Ethernet/IEEE
// polynomial) over the raw ASCII bytes of every accepted line. It is
// re-initialised by abort(), matching the reference's single
// transfer-scoped CRC32 engine.
type fileCRC struct {
	crc uint32
}

func (c *fileCRC) reset() { c.crc = 0 }

func (c *fileCRC) update(line []byte) {
	c.crc = crc32.Update(c.crc, crc32.IEEETable, line)
}

func (c *fileCRC) value() uint32 { return c.crc }
