// SPDX-License-Identifier: Apache-2.0

package cmd

import "time"

// newMillisecondTicker is a thin time.NewTicker wrapper so the receive
// loop's cadence reads in the same units as pkg/hexwire's millisecond
// clock and timeout constants.
func newMillisecondTicker(ms int) *time.Ticker {
	return time.NewTicker(time.Duration(ms) * time.Millisecond)
}
