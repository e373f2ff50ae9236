// SPDX-License-Identifier: Apache-2.0

package hexwire

// lineAssembly holds the in-progress state for the line currently
// being received: a fixed 45-byte buffer pre-filled with pad bytes
// and a 9-bit segment bitmap. segmentTotal is -1 until the first
// segment of the line establishes it.
type lineAssembly struct {
	buf          [MaxHexLineSize]byte
	segmentTotal int8
	received     uint16 // bit i set once segment i has been written
}

func newLineAssembly() lineAssembly {
	var a lineAssembly
	a.reset()
	return a
}

func (a *lineAssembly) reset() {
	for i := range a.buf {
		a.buf[i] = PadByte
	}
	a.segmentTotal = -1
	a.received = 0
}

// accept applies the segment reassembly acceptance rules of §4.2, in
// order. It returns ok=false without touching the buffer or bitmap
// when the frame is rejected or silently dropped, and a non-nil err
// only for the mismatch case that callers should report (other
// rejections are simply ignored, per spec). The first frame of a line
// fixes segmentTotal even if its index is then rejected.
func (a *lineAssembly) accept(currentLine uint16, msg SegmentFrame) (ok bool, err error) {
	if msg.LineNum != currentLine {
		return false, nil
	}
	if a.segmentTotal == -1 {
		if msg.SegmentTotal == 0 || msg.SegmentTotal > MaxSegments {
			return false, nil
		}
		a.segmentTotal = int8(msg.SegmentTotal)
	} else if msg.SegmentTotal != uint8(a.segmentTotal) {
		return false, &SegmentMismatch{Line: currentLine, Got: msg, Expected: currentLine}
	}
	if msg.SegmentIndex >= uint8(a.segmentTotal) {
		return false, nil
	}
	offset := int(msg.SegmentIndex) * MaxSegmentPayload
	copy(a.buf[offset:offset+MaxSegmentPayload], msg.Payload[:])
	a.received |= 1 << msg.SegmentIndex
	return true, nil
}

// ready reports whether every segment in [0, segmentTotal) has been
// written.
func (a *lineAssembly) ready() bool {
	if a.segmentTotal <= 0 {
		return false
	}
	want := uint16(1)<<uint(a.segmentTotal) - 1
	return a.received&want == want
}

// length returns the effective length of the accumulated line: the
// position of the first pad byte.
func (a *lineAssembly) length() int {
	for i, b := range a.buf {
		if b == PadByte {
			return i
		}
	}
	return len(a.buf)
}
