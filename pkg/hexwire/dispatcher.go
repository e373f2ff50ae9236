// SPDX-License-Identifier: Apache-2.0

package hexwire

// dispatch runs the record-type handler selected by p.RecordType
// against the transfer's address-tracking state and flash writer. It
// returns a non-nil error when the line must be rejected and
// retransmitted (LineProcessingError, FlashWriteError,
// AddressOutOfRange); it never advances currentLine itself — the
// caller does that only on a nil return.
func (t *Transfer) dispatch(p ParsedLine) error {
	switch p.RecordType {
	case RecordData:
		return t.handleData(p)
	case RecordEOF:
		return t.handleEOF()
	case RecordExtendedSegment:
		t.baseAddress = (uint32(p.Data[0])<<8 | uint32(p.Data[1])) << 4
		return nil
	case RecordStartSegment:
		t.cfg.Logger.Debug("ignoring start segment address record")
		return nil
	case RecordExtendedLinear:
		t.baseAddress = (uint32(p.Data[0])<<8 | uint32(p.Data[1])) << 16
		return nil
	case RecordStartLinear:
		t.cfg.Logger.Debug("ignoring start linear address record")
		return nil
	default:
		return &LineProcessingError{Line: t.currentLine, RecordType: p.RecordType, Reason: "unknown record type"}
	}
}

func (t *Transfer) handleData(p ParsedLine) error {
	addr := t.baseAddress + uint32(p.Address)
	end := addr + uint32(p.ByteCount)
	if addr < t.cfg.FlashBase || end > t.cfg.FlashBase+t.cfg.FlashSize {
		return &AddressOutOfRange{Addr: addr, Len: int(p.ByteCount), Base: t.cfg.FlashBase, Size: t.cfg.FlashSize}
	}

	if addr < t.minAddress {
		t.minAddress = addr
	}
	if end > t.maxAddress {
		t.maxAddress = end
	}

	writer := t.cfg.FlashWriter
	if t.cfg.DryRun {
		writer = discardWriter{}
	}
	// InFlash distinguishes an erase-before-write region from a plain
	// RAM-backed staging buffer; the writer itself handles both, the
	// predicate exists for callers that need to tell them apart.
	_ = writer.InFlash(addr)
	if err := writer.WriteBlock(addr, p.Data[:p.ByteCount]); err != nil {
		return &FlashWriteError{Addr: addr, Len: int(p.ByteCount), Err: err}
	}
	return nil
}

func (t *Transfer) handleEOF() error {
	if t.currentLine != t.expectedLines-1 {
		return &LineProcessingError{Line: t.currentLine, RecordType: RecordEOF, Reason: "EOF before final line"}
	}
	t.eofReceived = true
	return nil
}
