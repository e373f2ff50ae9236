// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

// confirmDestructiveWrite gates a real (non dry-run, non simulated)
// flash commit behind an interactive "type CONFIRM" prompt: skip the
// prompt when running non-interactively (CI, scripted reflash) via
// HEXUPDATE_CONFIRM, refuse when stdin is not a terminal, and
// otherwise read one plain line from stdin and require CONFIRM.
func confirmDestructiveWrite() error {
	if env := os.Getenv("HEXUPDATE_CONFIRM"); env == "CONFIRM" {
		return nil
	}

	if !term.IsTerminal(int(syscall.Stdin)) {
		return fmt.Errorf("cmd: refusing to write to flash non-interactively; set HEXUPDATE_CONFIRM=CONFIRM or pass --dry-run/--simulate")
	}

	fmt.Fprint(os.Stderr, "About to write to a real flash staging region. Type CONFIRM to proceed: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("cmd: failed to read confirmation: %w", err)
	}
	if strings.TrimSpace(line) != "CONFIRM" {
		return fmt.Errorf("cmd: confirmation not given, aborting")
	}
	return nil
}
