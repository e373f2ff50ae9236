// SPDX-License-Identifier: Apache-2.0

package hexwire

import "testing"

func mkSegment(lineNum uint16, idx, total uint8, payload string) SegmentFrame {
	var m SegmentFrame
	m.LineNum = lineNum
	m.SegmentIndex = idx
	m.SegmentTotal = total
	copy(m.Payload[:], payload)
	for i := len(payload); i < MaxSegmentPayload; i++ {
		m.Payload[i] = PadByte
	}
	return m
}

func TestReassemblerAcceptsInOrder(t *testing.T) {
	a := newLineAssembly()
	segs := []SegmentFrame{
		mkSegment(0, 0, 3, ":001"),
		mkSegment(0, 1, 3, "0000"),
		mkSegment(0, 2, 3, "1FF\xFF"),
	}
	for _, s := range segs {
		ok, err := a.accept(0, s)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Fatalf("expected segment %d to be accepted", s.SegmentIndex)
		}
	}
	if !a.ready() {
		t.Fatalf("expected line to be ready after all segments")
	}
}

func TestReassemblerAcceptsOutOfOrder(t *testing.T) {
	a := newLineAssembly()
	segs := []SegmentFrame{
		mkSegment(0, 2, 3, "1FF\xFF"),
		mkSegment(0, 0, 3, ":001"),
		mkSegment(0, 1, 3, "0000"),
	}
	for _, s := range segs {
		if _, err := a.accept(0, s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if !a.ready() {
		t.Fatalf("expected line to be ready regardless of arrival order")
	}
}

func TestReassemblerRejectsStaleLine(t *testing.T) {
	a := newLineAssembly()
	ok, err := a.accept(0, mkSegment(1, 0, 1, ":"))
	if err != nil {
		t.Fatalf("stale line_num should be dropped silently, not errored: %v", err)
	}
	if ok {
		t.Fatalf("expected stale line_num to be rejected")
	}
}

func TestReassemblerRejectsSegmentTotalMismatch(t *testing.T) {
	a := newLineAssembly()
	if _, err := a.accept(0, mkSegment(0, 0, 3, "abcde")); err != nil {
		t.Fatalf("unexpected error establishing segment_total: %v", err)
	}
	_, err := a.accept(0, mkSegment(0, 1, 5, "fghij"))
	if err == nil {
		t.Fatalf("expected segment-count mismatch error")
	}
	var mismatch *SegmentMismatch
	if _, ok := err.(*SegmentMismatch); !ok {
		t.Fatalf("expected *SegmentMismatch, got %T", err)
	}
	_ = mismatch
}

func TestReassemblerRejectsIndexOutOfRange(t *testing.T) {
	a := newLineAssembly()
	ok, err := a.accept(0, mkSegment(0, 5, 3, "abcde"))
	if err != nil {
		t.Fatalf("out-of-range index should be dropped silently: %v", err)
	}
	if ok {
		t.Fatalf("expected out-of-range segment index to be rejected")
	}
}

func TestReassemblerDuplicateSegmentIsIdempotent(t *testing.T) {
	a := newLineAssembly()
	s := mkSegment(0, 0, 1, "abcde")
	if _, err := a.accept(0, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := a.buf
	if _, err := a.accept(0, s); err != nil {
		t.Fatalf("unexpected error on duplicate: %v", err)
	}
	if a.buf != before {
		t.Fatalf("replaying an identical segment changed the buffer")
	}
}

func TestReassemblerLength(t *testing.T) {
	a := newLineAssembly()
	a.accept(0, mkSegment(0, 0, 2, ":0010"))
	a.accept(0, mkSegment(0, 1, 2, "00FF"))
	if got, want := a.length(), 9; got != want {
		t.Errorf("length = %d, want %d", got, want)
	}
}
