// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relabs-tech/led_compass/internal/config"
	"github.com/relabs-tech/led_compass/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the page is served from the device itself
	},
}

// sendBuffer is how many headings a slow websocket client may lag behind
// before it is dropped.
const sendBuffer = 16

type wsClient struct {
	addr string
	send chan []byte
}

// HeadingHub keeps the latest heading and fans every new one out to the
// connected websocket clients.
type HeadingHub struct {
	log *zap.SugaredLogger

	mu      sync.RWMutex
	last    []byte
	clients map[*wsClient]struct{}
}

// NewHeadingHub returns a hub with no heading and no clients.
func NewHeadingHub(log *zap.SugaredLogger) *HeadingHub {
	return &HeadingHub{log: log, clients: map[*wsClient]struct{}{}}
}

// Update records p and queues it for every client.
func (h *HeadingHub) Update(p telemetry.HeadingPayload) {
	b, err := json.Marshal(p)
	if err != nil {
		h.log.Errorf("heading marshal: %v", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = b
	for c := range h.clients {
		select {
		case c.send <- b:
		default:
			h.log.Warnf("dropping slow websocket client %s", c.addr)
			h.removeLocked(c)
		}
	}
}

func (h *HeadingHub) register(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
}

func (h *HeadingHub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *HeadingHub) removeLocked(c *wsClient) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Clients reports how many websocket clients are connected.
func (h *HeadingHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeLatest answers GET /api/heading with the last heading, or 503 until
// one has arrived.
func (h *HeadingHub) ServeLatest(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	b := h.last
	h.mu.RUnlock()

	if b == nil {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(b); err != nil {
		h.log.Debugf("heading write: %v", err)
	}
}

// ServeWS streams headings to one websocket client until it disconnects.
func (h *HeadingHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &wsClient{addr: conn.RemoteAddr().String(), send: make(chan []byte, sendBuffer)}
	h.register(c)
	h.log.Debugf("websocket client %s connected", c.addr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for b := range c.send {
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				// Unblocks the read loop below.
				conn.Close()
				return
			}
		}
		// Best effort; the client may already be gone.
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}()

	// Clients never send anything useful; reading only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.unregister(c)
	<-done
	h.log.Debugf("websocket client %s disconnected", c.addr)
}

// NewWebHandler routes the API, the websocket and the static page in
// staticDir.
func NewWebHandler(h *HeadingHub, staticDir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/heading", h.ServeLatest)
	mux.HandleFunc("/ws/heading", h.ServeWS)
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	return mux
}

// RunWeb serves the live heading page, fed from MQTT.
func RunWeb(cfg *config.Config, log *zap.SugaredLogger) error {
	client, err := telemetry.Connect(cfg.MQTT.Broker, cfg.MQTT.ClientIDWeb)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)
	log.Infof("connected to MQTT broker at %s", cfg.MQTT.Broker)

	hub := NewHeadingHub(log.Named("hub"))
	if err := telemetry.SubscribeHeadings(client, cfg.MQTT.TopicHeading, log, hub.Update); err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.Web.Port)
	log.Infof("web server listening on %s, serving %s", addr, cfg.Web.StaticDir)
	return http.ListenAndServe(addr, NewWebHandler(hub, cfg.Web.StaticDir))
}
