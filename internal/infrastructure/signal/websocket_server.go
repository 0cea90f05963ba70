package signal

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Uttham-412/Whiteboard/internal/core/domain"
	"github.com/Uttham-412/Whiteboard/internal/core/services"
	"github.com/Uttham-412/Whiteboard/pkg/config"
	apperrors "github.com/Uttham-412/Whiteboard/pkg/errors"
	"github.com/Uttham-412/Whiteboard/pkg/utils"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// WebSocketServer accepts signaling connections, attaches the validated
// identity and runs one read loop per connection feeding the Router.
type WebSocketServer struct {
	registry *services.Registry
	router   *Router
	auth     services.AuthService
	upgrader websocket.Upgrader

	pingInterval  time.Duration
	pongTimeout   time.Duration
	readTimeout   time.Duration
	writeTimeout  time.Duration
	sendQueueSize int
	maxMessage    int64
	msgRate       rate.Limit
	msgBurst      int

	mu      sync.Mutex
	clients map[*Client]struct{}

	logger *zap.SugaredLogger
}

func NewWebSocketServer(registry *services.Registry, router *Router, auth services.AuthService, cfg *config.Config, logger *zap.SugaredLogger) *WebSocketServer {
	allowed := cfg.Auth.AllowedOrigins
	return &WebSocketServer{
		registry: registry,
		router:   router,
		auth:     auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(r.Header.Get("Origin"), allowed)
			},
		},
		pingInterval:  cfg.Signal.PingInterval,
		pongTimeout:   cfg.Signal.PongTimeout,
		readTimeout:   cfg.Signal.ReadTimeout,
		writeTimeout:  cfg.Signal.WriteTimeout,
		sendQueueSize: cfg.Relay.SendQueueSize,
		maxMessage:    cfg.Relay.MaxMessageSizeBytes,
		msgRate:       rate.Limit(cfg.Relay.MessagesPerSecond),
		msgBurst:      cfg.Relay.MessageBurst,
		clients:       make(map[*Client]struct{}),
		logger:        logger,
	}
}

func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

// HandleWebSocket upgrades the request and serves the connection until it
// closes. Authentication happens before the upgrade; the relay itself only
// consumes the validated identity.
func (s *WebSocketServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	claims, err := s.authenticate(r)
	if err != nil {
		http.Error(w, "invalid or missing token", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}

	peerID := domain.PeerID(claims.Username)
	if peerID == "" {
		peerID = domain.PeerID(utils.GeneratePeerID())
	}

	client := newClient(conn, peerID, s.sendQueueSize, s.writeTimeout, s.logger)
	s.track(client)
	defer s.untrack(client)

	s.logger.Infow("peer connected", "peer_id", peerID, "remote_addr", r.RemoteAddr)

	if s.maxMessage > 0 {
		conn.SetReadLimit(s.maxMessage)
	}
	conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.pongTimeout))
		return nil
	})

	go client.writePump(s.pingInterval)

	s.readLoop(r.Context(), client, conn)

	// Leave notice to remaining members happens exactly once, before the
	// session becomes eligible for reaping.
	s.router.HandleClose(client)
	s.logger.Infow("peer disconnected", "peer_id", peerID)
}

func (s *WebSocketServer) readLoop(ctx context.Context, client *Client, conn *websocket.Conn) {
	var limiter *rate.Limiter
	if s.msgRate > 0 {
		limiter = rate.NewLimiter(s.msgRate, s.msgBurst)
	}

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.logger.Infow("read error", "peer_id", client.PeerID(), "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(s.readTimeout))

		if limiter != nil && !limiter.Allow() {
			client.Send(domain.NewErrorEnvelope(string(apperrors.ErrCodeRateLimit), "message rate limit exceeded"))
			continue
		}

		s.router.HandleFrame(ctx, client, frame)
	}
}

func (s *WebSocketServer) authenticate(r *http.Request) (*services.Claims, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		header := r.Header.Get("Authorization")
		if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}
	}
	return s.auth.ValidateToken(token)
}

func (s *WebSocketServer) track(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c] = struct{}{}
}

func (s *WebSocketServer) untrack(c *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
}

// ConnectionCount reports the number of open websocket connections.
func (s *WebSocketServer) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// HealthCheck serves a liveness summary of the relay.
func (s *WebSocketServer) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().Unix(),
		"connections": s.ConnectionCount(),
		"sessions":    s.registry.SessionCount(),
		"peers":       s.registry.PeerCount(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
