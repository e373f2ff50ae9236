// SPDX-License-Identifier: Apache-2.0

package hexwire

// Transfer is the receive-side state machine for one firmware image.
// There is exactly one active transfer; reentrancy is not required.
// HandleFrame and Tick are the only mutators and take no lock — see
// the package doc for the concurrency contract callers must uphold.
type Transfer struct {
	cfg   Config
	state State

	baseAddress uint32
	minAddress  uint32
	maxAddress  uint32

	eofReceived       bool
	expectedLines     uint16
	expectedFileCRC32 uint32
	crc               fileCRC

	currentLine uint16
	assembly    lineAssembly

	inProgress bool
	complete   bool

	lastFrameMS uint32

	newInitPending bool
	initError      bool

	lastErr error
}

// New constructs an idle Transfer, ready to accept an Init frame.
func New(opts ...Option) *Transfer {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	t := &Transfer{cfg: cfg}
	t.abortToIdle()
	return t
}

func (t *Transfer) resetCore() {
	t.baseAddress = 0
	t.minAddress = 0xFFFFFFFF
	t.maxAddress = 0
	t.eofReceived = false
	t.expectedLines = 0
	t.expectedFileCRC32 = 0
	t.crc.reset()
	t.currentLine = 0
	t.assembly.reset()
	t.inProgress = false
	t.complete = false
	t.newInitPending = false
	t.initError = false
}

func (t *Transfer) abortToIdle() {
	t.resetCore()
	t.state = StateIdle
}

func (t *Transfer) abortToAborted() {
	t.resetCore()
	t.state = StateAborted
}

// Abort forcibly resets the transfer to Idle, matching the external
// abort() interface of §6.
func (t *Transfer) Abort() {
	t.abortToIdle()
}

// State reports the current lifecycle state, for introspection by the
// host harness (monitor, status feed).
func (t *Transfer) State() State { return t.state }

// CurrentLine reports the 0-based index of the line currently being
// awaited or assembled.
func (t *Transfer) CurrentLine() uint16 { return t.currentLine }

// ExpectedLines reports the total line count announced by the most
// recent Init frame.
func (t *Transfer) ExpectedLines() uint16 { return t.expectedLines }

// LastError reports the most recent error recorded by HandleFrame or
// Tick, or nil. It is informational only; the state machine already
// acted on it (retry, drop, or abort) by the time callers observe it.
func (t *Transfer) LastError() error { return t.lastErr }

// IsTransferInProgress implements the §6 exposed polling interface.
func (t *Transfer) IsTransferInProgress() bool { return t.inProgress }

// IsFileTransferComplete implements the §6 exposed polling interface.
func (t *Transfer) IsFileTransferComplete() bool { return t.complete }

// HandleFrame ingests one 8-byte CAN frame. It never blocks and never
// performs a flash write; flash writes happen only inside Tick, via
// finalizeLine. nowMS is the caller's current reading of the
// monotonic millisecond clock (§6 now_ms()), passed in explicitly
// rather than pulled through a package-level clock dependency.
func (t *Transfer) HandleFrame(buf [8]byte, nowMS uint32) {
	if IsInitFrame(buf) {
		t.handleInitFrame(buf, nowMS)
		return
	}
	t.handleSegmentFrame(buf, nowMS)
}

func (t *Transfer) handleInitFrame(buf [8]byte, nowMS uint32) {
	m, calculated := UnpackInitFrame(buf)

	if m.InitCRC16 != calculated {
		t.lastErr = &InitChecksumError{Got: m.InitCRC16, Want: calculated}
		t.cfg.Logger.Error("init checksum mismatch", "got", m.InitCRC16, "want", calculated)
		// A bad Init still needs one tick of life to surface ERROR and
		// fall back to Idle; see the Tick step 4/init_error handling.
		t.inProgress = true
		t.initError = true
		t.newInitPending = true
		return
	}

	t.resetCore()
	t.inProgress = true
	t.expectedLines = m.LineCount
	t.expectedFileCRC32 = m.FileCRC32
	t.newInitPending = true
	t.initError = false
	t.lastFrameMS = nowMS
	t.state = StateReceiving
	t.lastErr = nil
	t.cfg.Logger.Info("init accepted", "lines", m.LineCount, "file_crc32", m.FileCRC32)
}

func (t *Transfer) handleSegmentFrame(buf [8]byte, nowMS uint32) {
	if t.state != StateReceiving {
		return
	}
	m := UnpackSegmentFrame(buf)
	ok, err := t.assembly.accept(t.currentLine, m)
	if err != nil {
		t.lastErr = err
		t.cfg.Logger.Debug("segment mismatch dropped", "line", t.currentLine, "segment", m)
		return
	}
	if !ok {
		return
	}
	t.lastFrameMS = nowMS
}

func elapsedMS(last, now uint32) uint32 {
	return now - last
}

func (t *Transfer) hasTransferTimedOut(nowMS uint32) bool {
	return t.state == StateReceiving && elapsedMS(t.lastFrameMS, nowMS) >= InactivityTimeoutMS
}

func (t *Transfer) hasSegmentTimedOut(nowMS uint32) bool {
	return t.state == StateReceiving && elapsedMS(t.lastFrameMS, nowMS) >= SegmentTimeoutMS
}

// Tick drives timeouts, finalizes a completed line, detects
// end-of-file, and emits at most one response frame, applying the
// priority order of §4.5 in full.
func (t *Transfer) Tick(nowMS uint32) ([8]byte, bool) {
	if !t.inProgress {
		return [8]byte{}, false
	}

	if t.hasTransferTimedOut(nowMS) {
		t.lastErr = &InactivityTimeout{SinceMS: elapsedMS(t.lastFrameMS, nowMS)}
		t.cfg.Logger.Error("inactivity timeout", "since_ms", elapsedMS(t.lastFrameMS, nowMS))
		t.abortToAborted()
		return t.respond(ResponseError), true
	}

	if t.hasSegmentTimedOut(nowMS) {
		t.lastErr = &SegmentTimeout{Line: t.currentLine}
		t.cfg.Logger.Debug("segment timeout, requesting retransmit", "line", t.currentLine)
		return t.respond(ResponseSendLine), true
	}

	if t.newInitPending {
		t.newInitPending = false
		if t.initError {
			t.initError = false
			t.abortToIdle()
			return t.respond(ResponseError), true
		}
		return t.respond(ResponseSendLine), true
	}

	if t.assembly.ready() {
		t.finalizeLine()
		return t.respond(ResponseSendLine), true
	}

	if t.eofReceived {
		return t.completeOrAbort(), true
	}

	return [8]byte{}, false
}

func (t *Transfer) respond(code ResponseCode) [8]byte {
	return encodeResponse(responseSnapshot{Code: code, CurrentLine: t.currentLine})
}

// finalizeLine runs the §4.3 parser and §4.4 dispatcher against the
// fully-assembled line buffer. On success it feeds the line's raw
// bytes into the running file CRC32 and advances currentLine; on any
// failure it leaves currentLine untouched and clears the assembly so
// the transmitter's retransmission starts clean.
func (t *Transfer) finalizeLine() {
	length := t.assembly.length()
	line := t.assembly.buf[:length]

	p, reason := parseLine(line)
	if !p.Valid {
		t.lastErr = &LineParseError{Line: t.currentLine, Reason: reason}
		t.cfg.Logger.Debug("line parse failed", "line", t.currentLine, "reason", reason)
		t.assembly.reset()
		return
	}

	if err := t.dispatch(p); err != nil {
		t.lastErr = err
		t.cfg.Logger.Debug("line rejected", "line", t.currentLine, "err", err)
		t.assembly.reset()
		return
	}

	t.crc.update(line)
	t.currentLine++
	t.assembly.reset()
	t.lastErr = nil
}

func (t *Transfer) completeOrAbort() [8]byte {
	if t.crc.value() == t.expectedFileCRC32 {
		t.complete = true
		t.inProgress = false
		t.state = StateComplete
		t.lastErr = nil
		t.cfg.Logger.Info("transfer complete", "lines", t.currentLine)
		return t.respond(ResponseTransferComplete)
	}
	t.lastErr = &FileChecksumError{Got: t.crc.value(), Want: t.expectedFileCRC32}
	t.cfg.Logger.Error("file checksum mismatch", "got", t.crc.value(), "want", t.expectedFileCRC32)
	resp := t.respond(ResponseError)
	t.abortToAborted()
	return resp
}
