package signal

import (
	"sync"
	"time"

	"github.com/Uttham-412/Whiteboard/internal/core/domain"
	"github.com/Uttham-412/Whiteboard/internal/core/services"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Client wraps one peer's websocket connection. Inbound frames are read by
// the server's per-connection goroutine; outbound envelopes go through a
// bounded queue drained by writePump, so per-connection send order is
// preserved and a dead peer can never block a sender.
type Client struct {
	conn   *websocket.Conn
	peerID domain.PeerID

	sendCh    chan *domain.Envelope
	closing   chan struct{}
	closeOnce sync.Once

	// session attachment; mutated only by the Router
	mu      sync.Mutex
	session *services.Session

	writeTimeout time.Duration
	logger       *zap.SugaredLogger
}

func newClient(conn *websocket.Conn, peerID domain.PeerID, queueSize int, writeTimeout time.Duration, logger *zap.SugaredLogger) *Client {
	return &Client{
		conn:         conn,
		peerID:       peerID,
		sendCh:       make(chan *domain.Envelope, queueSize),
		closing:      make(chan struct{}),
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

func (c *Client) PeerID() domain.PeerID { return c.peerID }

// Send enqueues env for asynchronous delivery. It never blocks: a full queue
// returns domain.ErrSendQueueFull and the caller decides the peer's fate.
func (c *Client) Send(env *domain.Envelope) error {
	select {
	case <-c.closing:
		return domain.ErrConnectionClosed
	default:
	}

	select {
	case c.sendCh <- env:
		return nil
	case <-c.closing:
		return domain.ErrConnectionClosed
	default:
		return domain.ErrSendQueueFull
	}
}

// Close tears the connection down. Safe to call multiple times; pending
// outbound envelopes are discarded.
func (c *Client) Close(reason string) {
	c.closeOnce.Do(func() {
		close(c.closing)
		c.conn.Close()
		c.logger.Debugw("connection closed", "peer_id", c.peerID, "reason", reason)
	})
}

// attach binds the client to a session. Router-only.
func (c *Client) attach(s *services.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

// detach clears the session attachment and returns the previous one, nil if
// the client was not joined. Router-only.
func (c *Client) detach() *services.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session
	c.session = nil
	return s
}

// attachment returns the current session, if any.
func (c *Client) attachment() (*services.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session, c.session != nil
}

// writePump drains the outbound queue and keeps the connection alive with
// pings. It owns all writes on the underlying connection.
func (c *Client) writePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case env := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteJSON(env); err != nil {
				c.logger.Debugw("write failed", "peer_id", c.peerID, "error", err)
				c.Close("write error")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debugw("ping failed", "peer_id", c.peerID, "error", err)
				c.Close("ping failure")
				return
			}

		case <-c.closing:
			return
		}
	}
}
