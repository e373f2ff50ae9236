// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/notnil/canbus"

	"github.com/canline/hexupdate/transport"
)

// openWireLink opens the transport selected by the shared --can-iface
// / --simulate / --port / --baud flags, used by both receive and send.
func openWireLink() (transport.WireLink, error) {
	if portName != "" {
		bridge, err := transport.OpenSerialBridge(portName, baudRate)
		if err != nil {
			return nil, err
		}
		return bridge, nil
	}

	var shared *canbus.LoopbackBus
	if simulate {
		shared = transport.DemoBus()
	}
	bus, err := transport.OpenCANBus(canIface, simulate, shared)
	if err != nil {
		return nil, err
	}
	return transport.NewCANWireLink(bus), nil
}
