// SPDX-License-Identifier: Apache-2.0

// Package transport wires the hexwire core to real and simulated
// transports: a CAN bus (real SocketCAN or an in-memory loopback) and
// a USB-serial bridge for boards that tunnel CAN frames over a serial
// link.
package transport

import (
	"fmt"
	"sync"

	"github.com/notnil/canbus"
)

// DeviceID and CommandID are the fixed addressing fields the receiver
// and its transmitter agree on; every frame exchanged by this
// protocol uses them.
const (
	DeviceID  = 0x00
	CommandID = 0x00
)

// CANBus is github.com/notnil/canbus's Bus interface, aliased under
// the name the firmware-update harness uses.
type CANBus = canbus.Bus

// OpenCANBus opens a transport for the receive loop. When simulate is
// true, iface is ignored and bus is an endpoint on shared, which must
// be non-nil (callers open the matching endpoint for a transmitter
// simulator on the same shared loopback). Otherwise it dials a real
// Linux SocketCAN interface.
func OpenCANBus(iface string, simulate bool, shared *canbus.LoopbackBus) (CANBus, error) {
	if simulate {
		if shared == nil {
			return nil, fmt.Errorf("transport: simulate mode requires a shared loopback bus")
		}
		return shared.Open(), nil
	}
	bus, err := canbus.DialSocketCAN(iface)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", iface, err)
	}
	return bus, nil
}

// FrameToWire extracts the 8-byte hexwire payload from a CAN frame,
// ignoring the CAN identifier (both sides of this protocol use a
// single fixed device/command pair, §6).
func FrameToWire(f canbus.Frame) [8]byte {
	return f.Data
}

// WireToFrame wraps an 8-byte hexwire payload in a CAN frame addressed
// to the fixed device/command identifier this protocol uses.
func WireToFrame(buf [8]byte) canbus.Frame {
	return canbus.Frame{
		ID:   DeviceID<<8 | CommandID,
		Len:  8,
		Data: buf,
	}
}

// WireLink is the frame-level transport the receive and send commands
// both drive, hiding whether the underlying carrier is a CAN bus or a
// serial bridge. SerialBridge already satisfies it; NewCANWireLink
// adapts a CANBus.
type WireLink interface {
	ReadFrame() ([8]byte, error)
	WriteFrame(buf [8]byte) error
	Close() error
}

type canWireLink struct{ bus CANBus }

// NewCANWireLink adapts bus to WireLink, translating between
// canbus.Frame and the bare 8-byte hexwire payload on every call.
func NewCANWireLink(bus CANBus) WireLink {
	return canWireLink{bus: bus}
}

func (c canWireLink) ReadFrame() ([8]byte, error) {
	f, err := c.bus.Receive()
	if err != nil {
		return [8]byte{}, err
	}
	return FrameToWire(f), nil
}

func (c canWireLink) WriteFrame(buf [8]byte) error {
	return c.bus.Send(WireToFrame(buf))
}

func (c canWireLink) Close() error { return c.bus.Close() }

var (
	demoBusOnce sync.Once
	demoBus     *canbus.LoopbackBus
)

// DemoBus returns the process-wide loopback bus that --simulate binds
// to on both the receive and send commands. It only connects endpoints
// opened within this process; running receive and send as separate OS
// processes with --simulate each gets its own bus and never sees the
// other's frames.
//
// TODO: give --simulate a cross-process transport (a Unix-domain
// socket carrying the same 8-byte frames) so "receive --simulate" and
// "send --simulate" can be run from two separate shells.
func DemoBus() *canbus.LoopbackBus {
	demoBusOnce.Do(func() {
		demoBus = canbus.NewLoopbackBus()
	})
	return demoBus
}
