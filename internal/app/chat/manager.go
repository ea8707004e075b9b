package chat

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"majlis/internal/observability"
	"majlis/internal/pkg/logx"
)

// Manager tracks every connected client.
type Manager struct {
	// ctx parents every client's context. Cancelling it does not close connections; Shutdown does.
	ctx  context.Context
	deps TabDeps

	// mu protects clients.
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool

	// wg waits for the read pumps of live clients during shutdown.
	wg sync.WaitGroup

	// structured logger with Manager context.
	logger zerolog.Logger
}

// NewManager returns a Manager handing deps to every new tab.
func NewManager(ctx context.Context, deps TabDeps) *Manager {
	return &Manager{
		ctx:     ctx,
		deps:    deps,
		clients: make(map[*Client]struct{}),
		logger:  logx.Component("manager"),
	}
}

// Connect starts a tab on conn, restoring the session from token, and runs it until the connection
// closes. It returns false when the manager is already shut down.
func (m *Manager) Connect(conn *websocket.Conn, token string) bool {
	c := newClient(m, conn)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		c.Kick(websocket.CloseGoingAway, "server shutting down")
		return false
	}
	m.clients[c] = struct{}{}
	m.wg.Add(1)
	m.mu.Unlock()

	observability.IncTabs()
	c.logger.Info().Msg("Tab connected.")

	go c.WritePump()
	c.tab.Start(c.ctx, token)
	go c.ReadPump()

	return true
}

func (m *Manager) unregister(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.clients[c]; ok {
		delete(m.clients, c)
		observability.DecTabs()
		m.wg.Done()
		c.logger.Info().Msg("Tab disconnected.")
	}
}

// Count returns the number of connected tabs.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Shutdown closes every connection and waits for the clients to finish cleaning up.
func (m *Manager) Shutdown() {
	m.logger.Info().Msg("Shutting down Manager...")

	m.mu.Lock()
	m.closed = true
	clients := make([]*Client, 0, len(m.clients))
	for c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.Unlock()

	for _, c := range clients {
		c.Kick(websocket.CloseGoingAway, "server shutting down")
	}

	m.wg.Wait()

	m.logger.Info().Msg("Manager shutdown complete.")
}
