// SPDX-License-Identifier: Apache-2.0

package hexwire

import (
	"strings"
	"testing"
)

func TestIsInitFrame(t *testing.T) {
	init := PackInitFrame(InitFrame{LineCount: 1})
	if !IsInitFrame(init) {
		t.Fatalf("expected init frame to be classified as Init")
	}
	seg := PackSegmentFrame(SegmentFrame{LineNum: 1})
	if IsInitFrame(seg) {
		t.Fatalf("expected segment frame to be classified as Segment")
	}
}

func TestInitFrameRoundTrip(t *testing.T) {
	tests := []InitFrame{
		{LineCount: 0, FileCRC32: 0, InitCRC16: 0},
		{LineCount: 1, FileCRC32: 0xDEADBEEF, InitCRC16: 0x1234},
		{LineCount: 0x7FFF, FileCRC32: 0xFFFFFFFF, InitCRC16: 0xFFFF},
	}
	for _, want := range tests {
		buf := PackInitFrame(want)
		got, _ := UnpackInitFrame(buf)
		if got != want {
			t.Errorf("round trip mismatch: got %+v want %+v", got, want)
		}
	}
}

func TestSegmentFrameRoundTrip(t *testing.T) {
	tests := []SegmentFrame{
		{LineNum: 0, SegmentIndex: 0, SegmentTotal: 1, Payload: [5]byte{':', '1', '0', '0', '1'}},
		{LineNum: 0x7FFF, SegmentIndex: 15, SegmentTotal: 15, Payload: [5]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
	}
	for _, want := range tests {
		buf := PackSegmentFrame(want)
		got := UnpackSegmentFrame(buf)
		if got != want {
			t.Errorf("round trip mismatch: got %+v want %+v", got, want)
		}
	}
}

func TestInitCRC16OfMatchesConstruction(t *testing.T) {
	buf := PackInitFrame(InitFrame{LineCount: 42, FileCRC32: 0x12345678})
	calc := InitCRC16Of(buf)

	m, calcFromUnpack := UnpackInitFrame(buf)
	if calc != calcFromUnpack {
		t.Fatalf("InitCRC16Of and UnpackInitFrame disagree: %#x vs %#x", calc, calcFromUnpack)
	}
	// The frame was built with InitCRC16 left at zero, so it must not
	// match the calculated checksum of a correctly-signed frame.
	if m.InitCRC16 == calc {
		t.Fatalf("expected zero-value InitCRC16 to differ from the real checksum")
	}
}

func TestSegmentStringHidesPadBytes(t *testing.T) {
	m := SegmentFrame{Payload: [5]byte{'a', 'b', PadByte, PadByte, PadByte}}
	s := m.String()
	if !strings.Contains(s, `"ab..."`) {
		t.Fatalf("expected pad bytes rendered as dots, got %q", s)
	}
}
