package realtime

import (
	"context"
	"net/http"
	"strings"
	"time"

	"fitconnect/internal/api"
	"fitconnect/internal/auth"
	"fitconnect/internal/logger"
	"fitconnect/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

type SessionChecker interface {
	Active(ctx context.Context, sessionID string) (bool, error)
}

type Handler struct {
	hub          *Hub
	accessSecret string
	sessions     SessionChecker
	upgrader     websocket.Upgrader
}

func NewHandler(hub *Hub, accessSecret string, sessions SessionChecker) *Handler {
	return &Handler{
		hub:          hub,
		accessSecret: accessSecret,
		sessions:     sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Events streams the caller's session changes over a websocket.
//
// Browsers cannot set headers on a websocket handshake, so the access token
// may also come as ?token=.
func (h *Handler) Events(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Token is required"})
		return
	}

	claims, err := auth.ValidateToken(token, h.accessSecret)
	if err != nil || claims.TokenType != auth.TokenTypeAccess {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid or expired token"})
		return
	}

	active, err := h.sessions.Active(c.Request.Context(), claims.SessionID())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "Session store unavailable"})
		return
	}
	if !active {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Session revoked"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", "user_id", claims.UserID, "error", err)
		return
	}

	cl := &client{userID: claims.UserID, sessionID: claims.SessionID(), send: make(chan []byte, sendBuffer)}
	h.hub.register(cl)
	metrics.RealtimeConnections.Inc()
	logger.Info("Auth event stream opened", "user_id", cl.userID, "session_id", cl.sessionID)

	go writePump(conn, cl)
	readPump(conn)

	h.hub.unregister(cl)
	metrics.RealtimeConnections.Dec()
	logger.Info("Auth event stream closed", "user_id", cl.userID, "session_id", cl.sessionID)
}

// readPump only services control frames; clients have nothing to say.
func readPump(conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("Auth event stream read error", "error", err)
			}
			return
		}
	}
}

func writePump(conn *websocket.Conn, cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
