// Package broadcast routes server pushes to connected users.
package broadcast

import (
	"sync"

	"github.com/cloaca/cloaca-server/internal/protocol"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultSendBuffer is the number of pushes queued per connection.
const DefaultSendBuffer = 256

// Client is a user's registered connection. Its queue is closed when it is
// unregistered or replaced.
type Client struct {
	id     string
	userID int
	send   chan []byte
}

// ID is a per-connection id for log correlation.
func (c *Client) ID() string { return c.id }

func (c *Client) UserID() int { return c.userID }

// Messages yields encoded commands until the client is unregistered.
func (c *Client) Messages() <-chan []byte { return c.send }

// Gateway maps users to their connection. A user has at most one; a newer
// registration replaces the older one.
type Gateway struct {
	mu      sync.RWMutex
	clients map[int]*Client
	buffer  int
	logger  *zap.Logger
}

func NewGateway(buffer int, logger *zap.Logger) *Gateway {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		clients: make(map[int]*Client),
		buffer:  buffer,
		logger:  logger,
	}
}

// Register creates the client for userID.
func (g *Gateway) Register(userID int) *Client {
	c := &Client{id: uuid.NewString(), userID: userID, send: make(chan []byte, g.buffer)}

	g.mu.Lock()
	defer g.mu.Unlock()
	if old, ok := g.clients[userID]; ok {
		close(old.send)
		g.logger.Info("connection replaced",
			zap.Int("user_id", userID),
			zap.String("conn_id", old.id),
			zap.String("new_conn_id", c.id),
		)
	}
	g.clients[userID] = c
	g.logger.Debug("client registered", zap.Int("user_id", userID), zap.String("conn_id", c.id))
	return c
}

// Unregister removes c if it is still the user's current client.
func (g *Gateway) Unregister(c *Client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cur, ok := g.clients[c.userID]; ok && cur == c {
		delete(g.clients, c.userID)
		close(c.send)
		g.logger.Debug("client unregistered", zap.Int("user_id", c.userID), zap.String("conn_id", c.id))
	}
}

// Send queues a command for userID. Users without a connection are skipped,
// and a full queue drops the command.
func (g *Gateway) Send(userID int, cmd protocol.Command) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.clients[userID]
	if !ok {
		return
	}
	select {
	case c.send <- protocol.EncodeCommand(cmd):
	default:
		g.logger.Warn("send buffer full, dropping message",
			zap.Int("user_id", userID),
			zap.String("conn_id", c.id),
			zap.Stringer("kind", cmd.Action.Kind()),
		)
	}
}

// Connected reports the number of registered users.
func (g *Gateway) Connected() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.clients)
}
