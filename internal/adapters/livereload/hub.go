// Package livereload notifies connected browsers to reload after a rebuild.
package livereload

import (
	"context"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"go.trai.ch/press/internal/core/ports"
)

const clientBuffer = 4

var _ ports.Reloader = (*Hub)(nil)

// Message is the payload broadcast to clients after a rebuild.
type Message struct {
	Hash    string `json:"hash"`
	BuildID string `json:"buildId"`
}

type client struct {
	send chan Message
}

// Hub fans reload messages out to connected SSE and WebSocket clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}

	buildDir string
	hasher   ports.Hasher
	metrics  ports.Metrics
	logger   ports.Logger
}

// NewHub creates a hub that hashes buildDir on every reload.
func NewHub(buildDir string, hasher ports.Hasher, metrics ports.Metrics, logger ports.Logger) *Hub {
	return &Hub{
		clients:  make(map[*client]struct{}),
		buildDir: buildDir,
		hasher:   hasher,
		metrics:  metrics,
		logger:   logger,
	}
}

// Reload hashes the output tree and broadcasts a reload to every client.
func (h *Hub) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	hash, err := h.hasher.ComputeTreeHash(h.buildDir)
	if err != nil {
		return err
	}

	n := h.Broadcast(Message{Hash: hash, BuildID: uuid.NewString()})
	h.logger.Debug("reload signal sent to " + plural(n, "client"))
	return nil
}

// Broadcast sends msg to every client and returns how many received it.
// A client whose buffer is full is dropped.
func (h *Hub) Broadcast(msg Message) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	for c := range h.clients {
		select {
		case c.send <- msg:
			sent++
		default:
			h.dropLocked(c)
		}
	}
	h.metrics.SetReloadClients(len(h.clients))
	return sent
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register() *client {
	c := &client{send: make(chan Message, clientBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetReloadClients(n)
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	h.dropLocked(c)
	n := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetReloadClients(n)
}

// dropLocked must be called with mu held.
func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	for c := range h.clients {
		h.dropLocked(c)
	}
	h.mu.Unlock()

	h.metrics.SetReloadClients(0)
}
