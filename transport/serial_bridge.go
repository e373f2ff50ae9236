// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bufio"
	"fmt"
	"io"

	"go.bug.st/serial"
)

// syncByte precedes every 8-byte frame on the serial bridge, letting
// a reader resynchronise after a dropped or partial byte.
const syncByte = 0xAA

// SerialBridge carries hexwire frames over a USB-serial link, for
// boards that tunnel CAN traffic rather than exposing a native
// SocketCAN interface. Each frame on the wire is one sync byte
// followed by the 8 payload bytes.
type SerialBridge struct {
	port   serial.Port
	reader *bufio.Reader
}

// OpenSerialBridge opens portName at baudRate and wraps it as a
// SerialBridge, grounded on the same serial.Mode construction the
// host harness's other serial consumers use.
func OpenSerialBridge(portName string, baudRate int) (*SerialBridge, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("transport: open serial port %s: %w", portName, err)
	}
	return &SerialBridge{port: port, reader: bufio.NewReader(port)}, nil
}

// ReadFrame blocks until one complete 8-byte frame has been
// resynchronised and read.
func (b *SerialBridge) ReadFrame() ([8]byte, error) {
	var buf [8]byte
	for {
		marker, err := b.reader.ReadByte()
		if err != nil {
			return buf, err
		}
		if marker != syncByte {
			continue
		}
		if _, err := io.ReadFull(b.reader, buf[:]); err != nil {
			return buf, err
		}
		return buf, nil
	}
}

// WriteFrame sends one 8-byte frame prefixed with the sync byte.
func (b *SerialBridge) WriteFrame(buf [8]byte) error {
	out := make([]byte, 1+len(buf))
	out[0] = syncByte
	copy(out[1:], buf[:])
	_, err := b.port.Write(out)
	return err
}

// Close releases the underlying serial port.
func (b *SerialBridge) Close() error {
	return b.port.Close()
}
