// SPDX-License-Identifier: Apache-2.0

package hexwire

import (
	"hash/crc32"
	"testing"
)

// recordingWriter captures every WriteBlock call for assertions.
type recordingWriter struct {
	writes map[uint32][]byte
}

func newRecordingWriter() *recordingWriter {
	return &recordingWriter{writes: make(map[uint32][]byte)}
}

func (w *recordingWriter) WriteBlock(addr uint32, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	w.writes[addr] = buf
	return nil
}

func (w *recordingWriter) InFlash(addr uint32) bool { return false }

func sendSegments(t *testing.T, tr *Transfer, lineNum uint16, line string, nowMS uint32) {
	t.Helper()
	total := (len(line) + MaxSegmentPayload - 1) / MaxSegmentPayload
	for idx := 0; idx < total; idx++ {
		start := idx * MaxSegmentPayload
		end := start + MaxSegmentPayload
		var payload [MaxSegmentPayload]byte
		for i := range payload {
			payload[i] = PadByte
		}
		for i := start; i < end && i < len(line); i++ {
			payload[i-start] = line[i]
		}
		seg := SegmentFrame{LineNum: lineNum, SegmentIndex: uint8(idx), SegmentTotal: uint8(total), Payload: payload}
		tr.HandleFrame(PackSegmentFrame(seg), nowMS)
	}
}

func sendInit(t *testing.T, tr *Transfer, lineCount uint16, fileCRC uint32, nowMS uint32) {
	t.Helper()
	m := InitFrame{LineCount: lineCount, FileCRC32: fileCRC}
	buf := PackInitFrame(m)
	m.InitCRC16 = InitCRC16Of(buf)
	buf = PackInitFrame(m)
	tr.HandleFrame(buf, nowMS)
}

// Seed scenario 1: a single EOF-only line completes the transfer.
func TestSeedScenario1_SingleLineTransferCompletes(t *testing.T) {
	line := ":00000001FF"
	fileCRC := crc32.ChecksumIEEE([]byte(line))

	tr := New()
	sendInit(t, tr, 1, fileCRC, 0)

	resp, emitted := tr.Tick(0)
	if !emitted || ResponseCode(resp[0]) != ResponseSendLine {
		t.Fatalf("expected SEND_LINE after init, got emitted=%v code=%v", emitted, ResponseCode(resp[0]))
	}

	sendSegments(t, tr, 0, line, 10)

	resp, emitted = tr.Tick(10)
	if !emitted || ResponseCode(resp[0]) != ResponseSendLine {
		t.Fatalf("expected SEND_LINE after line accepted, got emitted=%v code=%v", emitted, ResponseCode(resp[0]))
	}

	resp, emitted = tr.Tick(11)
	if !emitted || ResponseCode(resp[0]) != ResponseTransferComplete {
		t.Fatalf("expected TRANSFER_COMPLETE, got emitted=%v code=%v", emitted, ResponseCode(resp[0]))
	}
	if !tr.IsFileTransferComplete() {
		t.Fatalf("expected IsFileTransferComplete to be true")
	}
}

// Seed scenario 2: a segment for the wrong line is dropped, and after
// 5s of silence a segment timeout re-requests line 0.
func TestSeedScenario2_SegmentTimeoutRerequestsLine(t *testing.T) {
	tr := New()
	sendInit(t, tr, 1, 0, 0)
	tr.Tick(0) // consumes new_init_pending, emits SEND_LINE for line 0

	wrongLine := SegmentFrame{LineNum: 1, SegmentIndex: 0, SegmentTotal: 1}
	tr.HandleFrame(PackSegmentFrame(wrongLine), 1)

	if _, emitted := tr.Tick(4999); emitted {
		t.Fatalf("expected no response before the 5s segment timeout")
	}
	resp, emitted := tr.Tick(5001)
	if !emitted || ResponseCode(resp[0]) != ResponseSendLine {
		t.Fatalf("expected SEND_LINE on segment timeout, got emitted=%v code=%v", emitted, ResponseCode(resp[0]))
	}
	if tr.CurrentLine() != 0 {
		t.Fatalf("expected current line to remain 0, got %d", tr.CurrentLine())
	}
}

// Seed scenario 3: a 16-byte data record split across 9 segments
// writes to the correct absolute address.
func TestSeedScenario3_DataRecordWritesAbsoluteAddress(t *testing.T) {
	line := ":10010000214601360121470136007EFE09D2190140"
	fileCRC := crc32.ChecksumIEEE([]byte(line))
	writer := newRecordingWriter()

	tr := New(WithFlashWriter(writer), WithFlashWindow(0, 0xFFFFFFFF))
	sendInit(t, tr, 1, fileCRC, 0)
	tr.Tick(0)

	sendSegments(t, tr, 0, line, 1)
	resp, emitted := tr.Tick(1)
	if !emitted || ResponseCode(resp[0]) != ResponseSendLine {
		t.Fatalf("expected SEND_LINE after processing the data record")
	}

	data, ok := writer.writes[0x0100]
	if !ok {
		t.Fatalf("expected a write at absolute address 0x0100, writes=%v", writer.writes)
	}
	if len(data) != 16 {
		t.Fatalf("expected 16 bytes written, got %d", len(data))
	}
}

// Seed scenario 4: an extended segment address record shifts
// subsequent data record addresses.
func TestSeedScenario4_ExtendedSegmentAddressShiftsBase(t *testing.T) {
	baseLine := ":020000021200EA"
	dataLine := ":10010000214601360121470136007EFE09D2190140"
	fileCRC := crc32.ChecksumIEEE([]byte(baseLine))
	fileCRC = crc32.Update(fileCRC, crc32.IEEETable, []byte(dataLine))
	writer := newRecordingWriter()

	tr := New(WithFlashWriter(writer), WithFlashWindow(0, 0xFFFFFFFF))
	sendInit(t, tr, 2, fileCRC, 0)
	tr.Tick(0)

	sendSegments(t, tr, 0, baseLine, 1)
	tr.Tick(1)

	sendSegments(t, tr, 1, dataLine, 2)
	tr.Tick(2)

	if _, ok := writer.writes[0x12100]; !ok {
		t.Fatalf("expected a write at 0x12100 (base 0x12000 + offset 0x0100), writes=%v", writer.writes)
	}
}

// Seed scenario 5: a second Init frame aborts the first transfer and
// restarts from line 0.
func TestSeedScenario5_SecondInitRestartsTransfer(t *testing.T) {
	tr := New()
	sendInit(t, tr, 10, 0xAAAAAAAA, 0)
	sendSegments(t, tr, 0, ":00000001FF", 1)
	tr.Tick(1)

	sendInit(t, tr, 1, 0xBBBBBBBB, 2)

	if tr.CurrentLine() != 0 {
		t.Fatalf("expected current line reset to 0, got %d", tr.CurrentLine())
	}
	if tr.ExpectedLines() != 1 {
		t.Fatalf("expected expected_lines to reflect the second init, got %d", tr.ExpectedLines())
	}
}

// Seed scenario 6: 15,001ms of inactivity aborts the transfer.
func TestSeedScenario6_InactivityTimeoutAborts(t *testing.T) {
	tr := New()
	sendInit(t, tr, 5, 0, 0)
	tr.Tick(0)

	resp, emitted := tr.Tick(15_001)
	if !emitted || ResponseCode(resp[0]) != ResponseError {
		t.Fatalf("expected ERROR on inactivity timeout, got emitted=%v code=%v", emitted, ResponseCode(resp[0]))
	}
	if tr.IsTransferInProgress() {
		t.Fatalf("expected transfer to no longer be in progress")
	}
}

func TestInitChecksumErrorStaysIdle(t *testing.T) {
	tr := New()
	buf := PackInitFrame(InitFrame{LineCount: 1, InitCRC16: 0x0001})
	tr.HandleFrame(buf, 0)

	resp, emitted := tr.Tick(0)
	if !emitted || ResponseCode(resp[0]) != ResponseError {
		t.Fatalf("expected ERROR for bad init checksum, got emitted=%v code=%v", emitted, ResponseCode(resp[0]))
	}
	if tr.State() != StateIdle {
		t.Fatalf("expected state to remain Idle, got %v", tr.State())
	}
	if tr.IsTransferInProgress() {
		t.Fatalf("expected transfer not in progress after a bad init")
	}
}

func TestFileChecksumMismatchAborts(t *testing.T) {
	tr := New()
	sendInit(t, tr, 1, 0xDEADBEEF, 0) // deliberately wrong expected CRC
	tr.Tick(0)

	sendSegments(t, tr, 0, ":00000001FF", 1)
	tr.Tick(1) // finalizes the line, sets eofReceived

	resp, emitted := tr.Tick(2)
	if !emitted || ResponseCode(resp[0]) != ResponseError {
		t.Fatalf("expected ERROR on file checksum mismatch, got emitted=%v code=%v", emitted, ResponseCode(resp[0]))
	}
	if tr.State() != StateAborted {
		t.Fatalf("expected state Aborted, got %v", tr.State())
	}
}

func TestEOFBeforeFinalLineIsRejected(t *testing.T) {
	tr := New()
	sendInit(t, tr, 2, 0, 0)
	tr.Tick(0)

	// EOF record sent as line 0 of a 2-line transfer must be rejected.
	sendSegments(t, tr, 0, ":00000001FF", 1)
	resp, emitted := tr.Tick(1)
	if !emitted || ResponseCode(resp[0]) != ResponseSendLine {
		t.Fatalf("expected SEND_LINE retry, got emitted=%v code=%v", emitted, ResponseCode(resp[0]))
	}
	if tr.CurrentLine() != 0 {
		t.Fatalf("expected current line to remain 0 after rejection, got %d", tr.CurrentLine())
	}
}

func TestAddressOutOfRangeIsRetried(t *testing.T) {
	writer := newRecordingWriter()
	tr := New(WithFlashWriter(writer), WithFlashWindow(0x20000000, 0x1000))

	line := ":10010000214601360121470136007EFE09D2190140"
	fileCRC := crc32.ChecksumIEEE([]byte(line))
	sendInit(t, tr, 1, fileCRC, 0)
	tr.Tick(0)

	sendSegments(t, tr, 0, line, 1)
	resp, emitted := tr.Tick(1)
	if !emitted || ResponseCode(resp[0]) != ResponseSendLine {
		t.Fatalf("expected SEND_LINE retry for out-of-range address")
	}
	if tr.CurrentLine() != 0 {
		t.Fatalf("expected current line unchanged, got %d", tr.CurrentLine())
	}
	if len(writer.writes) != 0 {
		t.Fatalf("expected no writes to an out-of-window address")
	}
}

func TestIdleTransferTickIsSilent(t *testing.T) {
	tr := New()
	if _, emitted := tr.Tick(1000); emitted {
		t.Fatalf("expected Tick to stay silent when no transfer is in progress")
	}
}
