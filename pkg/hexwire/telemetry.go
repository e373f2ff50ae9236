// SPDX-License-Identifier: Apache-2.0

package hexwire

// Snapshot is a point-in-time, CBOR-friendly view of a Transfer's
// public state, for the host harness's status feed and TUI. It holds
// no internal pointers so it is safe to encode and ship off-process.
type Snapshot struct {
	State         string `cbor:"state"`
	CurrentLine   uint16 `cbor:"current_line"`
	ExpectedLines uint16 `cbor:"expected_lines"`
	InProgress    bool   `cbor:"in_progress"`
	Complete      bool   `cbor:"complete"`
	LastError     string `cbor:"last_error,omitempty"`
}

// Snapshot captures the transfer's current observable state.
func (t *Transfer) Snapshot() Snapshot {
	s := Snapshot{
		State:         t.state.String(),
		CurrentLine:   t.currentLine,
		ExpectedLines: t.expectedLines,
		InProgress:    t.inProgress,
		Complete:      t.complete,
	}
	if t.lastErr != nil {
		s.LastError = t.lastErr.Error()
	}
	return s
}
