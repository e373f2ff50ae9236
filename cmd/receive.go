// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/canline/hexupdate/pkg/hexwire"
	"github.com/canline/hexupdate/transport"
)

// tickIntervalMS is how often the receive loop calls Transfer.Tick
// between inbound frames, fine-grained enough that the 5s/15s timeouts
// in pkg/hexwire/constants.go fire within a tick or two of their
// deadline.
const tickIntervalMS = 50

var monitorTUI bool

var receiveCmd = &cobra.Command{
	Use:   "receive",
	Short: "Run the firmware-update receiver against a CAN bus or serial bridge",
	Long: `receive drives one hexwire.Transfer against a live transport: it
feeds every inbound frame to HandleFrame and calls Tick on a fixed
cadence, writing the response frame Tick emits back out. It runs until
the transfer completes, aborts, or the process is interrupted.`,
	RunE: runReceive,
}

func init() {
	receiveCmd.Flags().BoolVar(&monitorTUI, "monitor", false, "Show a live progress TUI alongside the receive loop")
	rootCmd.AddCommand(receiveCmd)
}

func runReceive(cmd *cobra.Command, args []string) error {
	logger := newStdLogger(debug)

	if !dryRun && !simulate {
		if err := confirmDestructiveWrite(); err != nil {
			return err
		}
	}

	transfer, _ := newTransfer(logger)

	link, err := openWireLink()
	if err != nil {
		return err
	}
	defer link.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	var onEvent func(hexwire.Snapshot)
	var stopMonitor func()
	if monitorTUI {
		onEvent, stopMonitor = startMonitorTUI()
		defer stopMonitor()
	}

	return runReceiveLoop(ctx, transfer, link, logger, onEvent)
}

func runReceiveLoop(ctx context.Context, transfer *hexwire.Transfer, link transport.WireLink, logger hexwire.Logger, onEvent func(hexwire.Snapshot)) error {
	frames := make(chan [8]byte)
	errs := make(chan error, 1)
	go func() {
		for {
			buf, err := link.ReadFrame()
			if err != nil {
				errs <- err
				return
			}
			frames <- buf
		}
	}()

	clock := transport.NewClock()
	ticker := newMillisecondTicker(tickIntervalMS)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("receive interrupted")
			return nil
		case err := <-errs:
			return fmt.Errorf("cmd: receive: %w", err)
		case buf := <-frames:
			transfer.HandleFrame(buf, clock.NowMS())
		case <-ticker.C:
			if resp, ok := transfer.Tick(clock.NowMS()); ok {
				if err := link.WriteFrame(resp); err != nil {
					return fmt.Errorf("cmd: send response: %w", err)
				}
			}
		}
		if onEvent != nil {
			onEvent(transfer.Snapshot())
		}
		if done, err := checkTransferDone(transfer); done {
			return err
		}
	}
}

// checkTransferDone reports whether the loop should exit.
func checkTransferDone(transfer *hexwire.Transfer) (bool, error) {
	switch transfer.State() {
	case hexwire.StateComplete:
		fmt.Fprintf(os.Stdout, "transfer complete: %d lines, last error: %v\n", transfer.CurrentLine(), transfer.LastError())
		return true, nil
	case hexwire.StateAborted:
		return true, fmt.Errorf("cmd: transfer aborted: %v", transfer.LastError())
	default:
		return false, nil
	}
}
