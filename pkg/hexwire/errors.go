// SPDX-License-Identifier: Apache-2.0

package hexwire

import "fmt"

// InitChecksumError is returned when an Init frame's init_crc16 does
// not match the CRC32 computed over its first six bytes.
type InitChecksumError struct {
	Got  uint16
	Want uint16
}

func (e *InitChecksumError) Error() string {
	return fmt.Sprintf("hexwire: init checksum mismatch: got 0x%04X want 0x%04X", e.Got, e.Want)
}

// LineParseError is returned when one of the §4.3 line checks fails.
type LineParseError struct {
	Line   uint16
	Reason string
}

func (e *LineParseError) Error() string {
	return fmt.Sprintf("hexwire: line %d parse error: %s", e.Line, e.Reason)
}

// LineProcessingError is returned when a record handler rejects an
// otherwise well-formed line.
type LineProcessingError struct {
	Line       uint16
	RecordType uint8
	Reason     string
}

func (e *LineProcessingError) Error() string {
	return fmt.Sprintf("hexwire: line %d record type 0x%02X rejected: %s", e.Line, e.RecordType, e.Reason)
}

// SegmentMismatch is returned when a segment frame for the current
// line disagrees with the segment_total already established for it.
// Frames carrying another line_num are dropped without an error.
type SegmentMismatch struct {
	Line     uint16
	Got      SegmentFrame
	Expected uint16
}

func (e *SegmentMismatch) Error() string {
	return fmt.Sprintf("hexwire: segment mismatch for line %d: got line_num=%d segment_total=%d, expected line_num=%d",
		e.Expected, e.Got.LineNum, e.Got.SegmentTotal, e.Expected)
}

// SegmentTimeout is recorded by Tick when a receiving transfer has
// accepted no frame for SegmentTimeoutMS; Tick answers it with
// SEND_LINE for the current line.
type SegmentTimeout struct {
	Line uint16
}

func (e *SegmentTimeout) Error() string {
	return fmt.Sprintf("hexwire: segment timeout on line %d", e.Line)
}

// InactivityTimeout is raised by Tick when no frame has arrived for
// InactivityTimeoutMS; it is terminal and aborts the transfer.
type InactivityTimeout struct {
	SinceMS uint32
}

func (e *InactivityTimeout) Error() string {
	return fmt.Sprintf("hexwire: inactivity timeout, %dms since last frame", e.SinceMS)
}

// FileChecksumError is raised when the running CRC32 over accepted
// lines does not match the expected value announced by the Init
// frame, once EOF has been seen. It is terminal and aborts the
// transfer.
type FileChecksumError struct {
	Got  uint32
	Want uint32
}

func (e *FileChecksumError) Error() string {
	return fmt.Sprintf("hexwire: file checksum mismatch: got 0x%08X want 0x%08X", e.Got, e.Want)
}

// FlashWriteError wraps a non-nil error returned by a FlashWriter.
type FlashWriteError struct {
	Addr uint32
	Len  int
	Err  error
}

func (e *FlashWriteError) Error() string {
	return fmt.Sprintf("hexwire: flash write at 0x%08X (%d bytes) failed: %v", e.Addr, e.Len, e.Err)
}

func (e *FlashWriteError) Unwrap() error { return e.Err }

// AddressOutOfRange is raised when a data record's absolute address
// range falls outside the configured staging window.
type AddressOutOfRange struct {
	Addr    uint32
	Len     int
	Base    uint32
	Size    uint32
}

func (e *AddressOutOfRange) Error() string {
	return fmt.Sprintf("hexwire: address 0x%08X+%d outside staging window [0x%08X, 0x%08X)",
		e.Addr, e.Len, e.Base, e.Base+e.Size)
}
