// SPDX-License-Identifier: Apache-2.0

package cmd

import "fmt"

// renderIntelHexLines walks a flat byte image starting at startAddr
// and renders it as canonical Intel HEX ASCII lines: one Extended
// Linear Address record whenever the running address crosses a 64KiB
// boundary, 16-byte Data records for everything else, and a trailing
// EOF record. It is the send command's encoder counterpart to
// pkg/hexwire/hexline.go's parser.
func renderIntelHexLines(startAddr uint32, data []byte) []string {
	var lines []string
	currentBase := uint32(0xFFFFFFFF) // force an initial Extended Linear Address record

	addr := startAddr
	for offset := 0; offset < len(data); {
		base := addr &^ 0xFFFF
		if base != currentBase {
			lines = append(lines, renderExtendedLinearAddress(base))
			currentBase = base
		}

		n := len(data) - offset
		if n > 16 {
			n = 16
		}
		// Never let a chunk cross a 64KiB boundary; the next iteration
		// emits a fresh Extended Linear Address record instead.
		if room := int(0x10000 - (addr & 0xFFFF)); n > room {
			n = room
		}

		lines = append(lines, renderDataRecord(uint16(addr&0xFFFF), data[offset:offset+n]))
		offset += n
		addr += uint32(n)
	}

	lines = append(lines, renderEOFRecord())
	return lines
}

func renderExtendedLinearAddress(base uint32) string {
	upper := uint16(base >> 16)
	data := []byte{byte(upper >> 8), byte(upper)}
	return renderRecord(0, 0x04, data)
}

func renderDataRecord(address uint16, data []byte) string {
	return renderRecord(address, 0x00, data)
}

func renderEOFRecord() string {
	return renderRecord(0, 0x01, nil)
}

// renderRecord encodes one Intel HEX line, computing the trailing
// checksum so the result round-trips through pkg/hexwire's parseLine.
func renderRecord(address uint16, recordType uint8, data []byte) string {
	byteCount := uint8(len(data))
	sum := byteCount + byte(address>>8) + byte(address) + recordType
	for _, b := range data {
		sum += b
	}
	checksum := byte(0) - sum

	line := fmt.Sprintf(":%02X%04X%02X", byteCount, address, recordType)
	for _, b := range data {
		line += fmt.Sprintf("%02X", b)
	}
	line += fmt.Sprintf("%02X", checksum)
	return line
}

// trimPadding returns the inclusive [lo, hi] span of data outside
// which every byte equals fill, or ok=false if the whole image is
// fill (nothing to transmit).
func trimPadding(data []byte, fill byte) (lo, hi int, ok bool) {
	lo = -1
	for i, b := range data {
		if b != fill {
			lo = i
			break
		}
	}
	if lo == -1 {
		return 0, 0, false
	}
	for i := len(data) - 1; i >= lo; i-- {
		if data[i] != fill {
			return lo, i, true
		}
	}
	return lo, lo, true
}
