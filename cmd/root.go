// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// CAN transport flags, shared by receive and send.
	canIface string
	simulate bool
	portName string
	baudRate int

	// Staging window flags.
	stagingBase uint32
	stagingSize uint32

	dryRun bool
	debug  bool
)

var rootCmd = &cobra.Command{
	Use:   "hexupdate",
	Short: "CAN-bus Intel HEX firmware update receiver",
	Long: `hexupdate drives and inspects the receive-side firmware-update
protocol: an Intel HEX image delivered in 8-byte fragments over CAN
and committed to a staging region of flash.

Transport modes:
  CAN:    --can-iface can0
  Serial: --port /dev/ttyACM0 [--baud 115200]   (CAN tunneled over USB-serial)
  Sim:    --simulate                             (in-memory loopback bus)

--dry-run exercises the full receive pipeline - parsing, addressing,
checksums - without writing to the configured staging region.`,
	Version: "1.0.0",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&canIface, "can-iface", "can0", "SocketCAN interface name")
	rootCmd.PersistentFlags().BoolVar(&simulate, "simulate", false, "Use an in-memory loopback bus instead of a real CAN interface")
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "USB-serial port carrying tunneled CAN frames, instead of --can-iface")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate for --port")

	rootCmd.PersistentFlags().Uint32Var(&stagingBase, "staging-base", 0x08010000, "Base address of the flash staging window")
	rootCmd.PersistentFlags().Uint32Var(&stagingSize, "staging-size", 0x00020000, "Size in bytes of the flash staging window")

	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Exercise the pipeline without committing writes to the staging region")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable verbose protocol logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
