// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/canline/hexupdate/pkg/hexwire"
	"github.com/canline/hexupdate/transport"
)

// newTransfer builds a Transfer wired to the staging window and
// logger the shared persistent flags describe, used by every
// subcommand that drives the receive-side state machine.
func newTransfer(logger hexwire.Logger) (*hexwire.Transfer, *transport.StagingRegion) {
	staging := transport.NewStagingRegion(stagingBase, stagingSize, stagingBase)
	transfer := hexwire.New(
		hexwire.WithFlashWindow(stagingBase, stagingSize),
		hexwire.WithFlashWriter(staging),
		hexwire.WithLogger(logger),
		hexwire.WithDryRun(dryRun),
	)
	return transfer, staging
}
