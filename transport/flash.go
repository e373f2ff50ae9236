// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"fmt"
	"sync"
)

// StagingRegion is an in-memory stand-in for the on-chip flash
// staging window the reference firmware writes into. It implements
// hexwire.FlashWriter. A real embedded build would back WriteBlock
// with an actual flash-programming call; the host harness writes into
// this one in every mode except --dry-run, where the Transfer routes
// block writes to a discard sink and the region stays untouched.
type StagingRegion struct {
	mu       sync.Mutex
	base     uint32
	data     []byte
	flashLow uint32 // addresses >= flashLow are treated as flash-backed
}

// NewStagingRegion allocates a size-byte window starting at base.
// flashLow marks the address at and above which InFlash reports true;
// pass base itself to treat the whole window as flash-backed, or a
// higher address to simulate a RAM-backed prefix.
func NewStagingRegion(base, size, flashLow uint32) *StagingRegion {
	return &StagingRegion{
		base:     base,
		data:     make([]byte, size),
		flashLow: flashLow,
	}
}

// WriteBlock copies data into the window at addr. It is atomic with
// respect to concurrent reads via Bytes.
func (s *StagingRegion) WriteBlock(addr uint32, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	offset := addr - s.base
	if int(offset)+len(data) > len(s.data) {
		return fmt.Errorf("transport: write at 0x%08X (%d bytes) exceeds staging window", addr, len(data))
	}
	copy(s.data[offset:], data)
	return nil
}

// InFlash reports whether addr falls in the flash-backed portion of
// the window.
func (s *StagingRegion) InFlash(addr uint32) bool {
	return addr >= s.flashLow
}

// Bytes returns a copy of the window's current contents.
func (s *StagingRegion) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out
}
