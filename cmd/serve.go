// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"net/http"
	"os"
	"os/signal"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/canline/hexupdate/pkg/hexwire"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the receiver and expose a read-only WebSocket status feed",
	Long: `serve runs the same receive loop as the receive command and, in
addition, serves a read-only WebSocket feed at /status: every tick's
Snapshot is CBOR-encoded and pushed to every connected client, for a
remote dashboard to render without touching the Transfer itself.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "listen", "127.0.0.1:8787", "Address the status feed listens on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
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

	hub := newStatusHub()
	mux := http.NewServeMux()
	mux.HandleFunc("/status", hub.serveWS)
	server := &http.Server{Addr: serveAddr, Handler: mux}

	go func() {
		logger.Info("status feed listening", "addr", serveAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("status feed stopped", "err", err)
		}
	}()
	defer server.Close()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	return runReceiveLoop(ctx, transfer, link, logger, hub.broadcast)
}

// statusHub fans one Snapshot out to every currently connected
// WebSocket client, CBOR-encoded. Unlike a typical client connection
// this side only ever writes; the per-client read pump exists solely
// to notice disconnects.
type statusHub struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[chan []byte]struct{}
}

func newStatusHub() *statusHub {
	return &statusHub{clients: make(map[chan []byte]struct{})}
}

func (h *statusHub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch := make(chan []byte, 8)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, ch)
		h.mu.Unlock()
	}()

	// Clients never send anything meaningful; this pump only exists to
	// notice when they disconnect.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				conn.Close()
				return
			}
		}
	}()

	for msg := range ch {
		if err := conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
			return
		}
	}
}

func (h *statusHub) broadcast(s hexwire.Snapshot) {
	buf, err := cbor.Marshal(s)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- buf:
		default:
		}
	}
}
