package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"hectoclash/internal/config"
	"hectoclash/internal/service"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 2048
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Services are the game services reachable from the socket.
type Services struct {
	Auth        *service.AuthService
	Matches     *service.MatchService
	Presence    *service.PresenceService
	Invitations *service.InvitationService
}

// Handler handles WebSocket connections
type Handler struct {
	hub   *Hub
	svc   Services
	limit rate.Limit
	burst int
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, svc Services, cfg config.WSConfig) *Handler {
	limit := rate.Limit(cfg.RatePerSecond)
	if cfg.RatePerSecond <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Handler{
		hub:   hub,
		svc:   svc,
		limit: limit,
		burst: burst,
	}
}

// ServeWS handles GET /v1/ws. The token comes from the query string or a
// bearer Authorization header.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = bearerToken(r)
	}
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.svc.Auth.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := &Connection{
		ID:       uuid.NewString(),
		UserID:   claims.Subject,
		Username: claims.Name,
		Send:     make(chan []byte, 256),
		limiter:  rate.NewLimiter(h.limit, h.burst),
	}

	h.hub.Register(conn)

	log.Info().Str("conn", conn.ID).Str("player", conn.UserID).Msg("player connected")

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		h.disconnect(conn)
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("conn", conn.ID).Msg("websocket read error")
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.replyError(conn, "", errMalformed)
			continue
		}
		if !conn.limiter.Allow() {
			h.replyError(conn, msg.Type, errRateLimited)
			continue
		}
		if err := h.dispatch(ctx, conn, msg); err != nil {
			h.replyError(conn, msg.Type, err)
		}
	}
}

// disconnect runs the cascade for a closed socket: invitations, queue and
// session, spectating, then presence.
func (h *Handler) disconnect(conn *Connection) {
	h.svc.Invitations.CancelFor(conn.UserID, conn.ID)
	h.svc.Matches.Disconnect(conn.UserID, conn.ID)
	h.svc.Presence.Remove(conn.UserID, conn.ID)
	log.Info().Str("conn", conn.ID).Str("player", conn.UserID).Msg("player disconnected")
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
