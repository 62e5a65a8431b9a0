package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/cloaca/cloaca-server/internal/auth"
	"github.com/cloaca/cloaca-server/internal/broadcast"
	"github.com/cloaca/cloaca-server/internal/protocol"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// DefaultMaxDecodeErrors closes a connection after this many
	// undecodable messages.
	DefaultMaxDecodeErrors = 5

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Verifier resolves a token to a user.
type Verifier interface {
	Verify(token string) (auth.Identity, error)
}

// WebSocketHandler upgrades authenticated requests and runs one read and one
// write goroutine per connection.
type WebSocketHandler struct {
	dispatcher      *Dispatcher
	gateway         *broadcast.Gateway
	verifier        Verifier
	maxDecodeErrors int
	upgrader        websocket.Upgrader
	logger          *zap.Logger
}

func NewWebSocketHandler(d *Dispatcher, gw *broadcast.Gateway, v Verifier, maxDecodeErrors int, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxDecodeErrors <= 0 {
		maxDecodeErrors = DefaultMaxDecodeErrors
	}
	return &WebSocketHandler{
		dispatcher:      d,
		gateway:         gw,
		verifier:        v,
		maxDecodeErrors: maxDecodeErrors,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

// token reads the bearer token from the Authorization header or the token
// query parameter. Browsers cannot set headers on websocket requests.
func token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, err := h.verifier.Verify(token(r))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Int("user_id", user.UserID), zap.Error(err))
		return
	}

	client := h.gateway.Register(user.UserID)
	logger := h.logger.With(zap.Int("user_id", user.UserID), zap.String("conn_id", client.ID()))
	logger.Info("client connected", zap.String("remote", r.RemoteAddr))

	h.gateway.Send(user.UserID, protocol.Push(nil, protocol.MustAction(protocol.SetPlayerID, protocol.Int(user.UserID))))

	go writePump(conn, client, logger)
	h.readPump(conn, client, user, logger)
}

func (h *WebSocketHandler) readPump(conn *websocket.Conn, client *broadcast.Client, user auth.Identity, logger *zap.Logger) {
	defer func() {
		h.gateway.Unregister(client)
		conn.Close()
		logger.Info("client disconnected")
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	decodeErrors := 0
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("read failed", zap.Error(err))
			}
			return
		}

		batch, err := protocol.DecodeBatch(message)
		if err != nil {
			decodeErrors++
			logger.Debug("undecodable message", zap.Int("count", decodeErrors), zap.Error(err))
			if decodeErrors >= h.maxDecodeErrors {
				logger.Warn("too many undecodable messages, closing")
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "too many malformed messages"),
					time.Now().Add(writeWait))
				return
			}
			h.gateway.Send(user.UserID, errorCommand("Error parsing message: "+err.Error()))
			continue
		}

		h.dispatcher.Dispatch(context.Background(), user, batch)
	}
}

// writePump drains the client's queue until the gateway closes it.
func writePump(conn *websocket.Conn, client *broadcast.Client, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Messages():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					logger.Debug("write failed", zap.Error(err))
				}
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// NewHTTPServer mounts the websocket handler at path.
func NewHTTPServer(addr, path string, h http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, h)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
