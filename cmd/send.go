// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"hash/crc32"
	"os"
	"time"

	"github.com/marcinbor85/gohex"
	"github.com/spf13/cobra"

	"github.com/canline/hexupdate/pkg/hexwire"
	"github.com/canline/hexupdate/transport"
)

var (
	sendFile          string
	sendResponseDelay time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Transmit an Intel HEX file as the external transmitter this protocol expects",
	Long: `send is a test-harness transmitter, never a capability of the
receiver itself: it loads an Intel HEX file with gohex, flattens it to
a contiguous image over the configured staging window, re-renders that
image as canonical Intel HEX lines, and drives the wire protocol -
sending Init, then one line's segments at a time as the receiver's
SEND_LINE responses ask for them - until TRANSFER_COMPLETE or ERROR.`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVarP(&sendFile, "file", "f", "", "Intel HEX file to transmit (required)")
	sendCmd.Flags().DurationVar(&sendResponseDelay, "response-timeout", 20*time.Second, "How long to wait for a receiver response before giving up")
	sendCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	logger := newStdLogger(debug)

	raw, err := os.ReadFile(sendFile)
	if err != nil {
		return fmt.Errorf("cmd: read %s: %w", sendFile, err)
	}

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(string(raw)); err != nil {
		return fmt.Errorf("cmd: parse %s: %w", sendFile, err)
	}

	image := mem.ToBinary(int(stagingBase), int(stagingSize), 0xFF)
	lo, hi, ok := trimPadding(image, 0xFF)
	if !ok {
		return fmt.Errorf("cmd: %s has no data inside the staging window 0x%08X+0x%X", sendFile, stagingBase, stagingSize)
	}
	content := image[lo : hi+1]
	startAddr := stagingBase + uint32(lo)

	lines := renderIntelHexLines(startAddr, content)
	logger.Info("rendered image", "lines", len(lines), "bytes", len(content), "start", fmt.Sprintf("0x%08X", startAddr))

	var fileCRC uint32
	for _, l := range lines {
		fileCRC = crc32.Update(fileCRC, crc32.IEEETable, []byte(l))
	}

	link, err := openWireLink()
	if err != nil {
		return err
	}
	defer link.Close()

	return runSendLoop(link, lines, fileCRC, logger)
}

func runSendLoop(link transport.WireLink, lines []string, fileCRC uint32, logger hexwire.Logger) error {
	initFrame := hexwire.InitFrame{
		LineCount: uint16(len(lines)),
		FileCRC32: fileCRC,
	}
	buf := hexwire.PackInitFrame(initFrame)
	initFrame.InitCRC16 = hexwire.InitCRC16Of(buf)
	buf = hexwire.PackInitFrame(initFrame)

	if err := link.WriteFrame(buf); err != nil {
		return fmt.Errorf("cmd: send init: %w", err)
	}
	logger.Info("sent init", "lines", len(lines), "file_crc32", fileCRC)

	for {
		resp, err := readFrameWithTimeout(link, sendResponseDelay)
		if err != nil {
			return fmt.Errorf("cmd: waiting for response: %w", err)
		}

		code, lineIdx, valid := hexwire.DecodeResponse(resp)
		if !valid {
			logger.Error("response frame failed its own checksum, ignoring", "frame", resp)
			continue
		}

		switch code {
		case hexwire.ResponseSendLine:
			if int(lineIdx) == len(lines) {
				// Every line has been accepted; the receiver's next tick
				// answers with TRANSFER_COMPLETE or ERROR.
				continue
			}
			if int(lineIdx) > len(lines) {
				return fmt.Errorf("cmd: receiver asked for line %d beyond the %d lines sent", lineIdx, len(lines))
			}
			if err := sendLineSegments(link, lineIdx, lines[lineIdx]); err != nil {
				return err
			}
		case hexwire.ResponseTransferComplete:
			fmt.Fprintf(os.Stdout, "transfer complete: %d lines sent\n", len(lines))
			return nil
		case hexwire.ResponseError:
			return fmt.Errorf("cmd: receiver reported an error at line %d", lineIdx)
		default:
			logger.Debug("unexpected response code, ignoring", "code", code)
		}
	}
}

// sendLineSegments packs one rendered Intel HEX line into its
// constituent 5-byte segments and writes each over the link in order.
func sendLineSegments(link transport.WireLink, lineIdx uint16, line string) error {
	payload := []byte(line)
	total := (len(payload) + hexwire.MaxSegmentPayload - 1) / hexwire.MaxSegmentPayload
	for idx := 0; idx < total; idx++ {
		var chunk [hexwire.MaxSegmentPayload]byte
		for i := range chunk {
			chunk[i] = hexwire.PadByte
		}
		start := idx * hexwire.MaxSegmentPayload
		end := start + hexwire.MaxSegmentPayload
		if end > len(payload) {
			end = len(payload)
		}
		copy(chunk[:], payload[start:end])

		frame := hexwire.PackSegmentFrame(hexwire.SegmentFrame{
			LineNum:      lineIdx,
			SegmentIndex: uint8(idx),
			SegmentTotal: uint8(total),
			Payload:      chunk,
		})
		if err := link.WriteFrame(frame); err != nil {
			return fmt.Errorf("cmd: send segment %d/%d of line %d: %w", idx, total, lineIdx, err)
		}
	}
	return nil
}

// readFrameWithTimeout blocks on link.ReadFrame for at most timeout.
func readFrameWithTimeout(link transport.WireLink, timeout time.Duration) ([8]byte, error) {
	type result struct {
		buf [8]byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		buf, err := link.ReadFrame()
		done <- result{buf, err}
	}()
	select {
	case r := <-done:
		return r.buf, r.err
	case <-time.After(timeout):
		return [8]byte{}, fmt.Errorf("no response within %s", timeout)
	}
}
