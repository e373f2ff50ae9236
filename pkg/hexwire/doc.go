// SPDX-License-Identifier: Apache-2.0

// Package hexwire implements the receive-side state machine for a
// firmware update delivered as an Intel HEX image over 8-byte CAN
// frames.
//
// A Transfer is driven by two entry points, both meant to be called
// from a single host loop: HandleFrame ingests one 8-byte CAN frame
// and never blocks; Tick is invoked cyclically and drives timeouts,
// line finalization, end-of-file detection, and emits at most one
// response frame. Neither method takes a lock — callers that drive a
// Transfer from more than one goroutine must serialize their own
// calls (for example by funneling both the inbox and a time.Ticker
// through a single select loop), matching the single-threaded
// cooperative model the wire protocol was designed around.
package hexwire
