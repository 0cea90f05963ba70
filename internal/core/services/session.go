package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Uttham-412/Whiteboard/internal/core/domain"
	"github.com/Uttham-412/Whiteboard/internal/core/ports"

	"go.uber.org/zap"
)

// errSessionReaped is returned by Join when the session lost the race against
// RemoveIfEmpty; the registry retries with a fresh session.
var errSessionReaped = errors.New("session already reaped")

// Session owns the member set of one whiteboard room and performs all fan-out.
// Membership mutations and fan-out enumeration run under the session mutex;
// delivery itself happens on snapshots so a slow write can never hold the
// member set hostage.
type Session struct {
	id        domain.SessionID
	createdAt time.Time

	history ports.HistoryRepository
	metrics ports.RelayMetrics
	logger  *zap.SugaredLogger

	mu      sync.Mutex
	reaped  bool
	members map[domain.PeerID]ports.PeerConn
	order   []domain.PeerID // join order, drives fan-out enumeration
}

func newSession(id domain.SessionID, history ports.HistoryRepository, metrics ports.RelayMetrics, logger *zap.SugaredLogger) *Session {
	return &Session{
		id:        id,
		createdAt: time.Now(),
		history:   history,
		metrics:   metrics,
		logger:    logger,
		members:   make(map[domain.PeerID]ports.PeerConn),
	}
}

func (s *Session) ID() domain.SessionID { return s.id }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Len reports the current member count.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.members)
}

// Members returns the member peer ids in join order.
func (s *Session) Members() []domain.PeerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.PeerID, len(s.order))
	copy(out, s.order)
	return out
}

// Join registers conn under peerID, loads the initial drawing history and
// notifies existing members. The returned history is consistent with the
// commands committed before the membership change became visible; if the
// store is unreachable the join proceeds with an empty history (degraded
// mode, live relay only).
func (s *Session) Join(ctx context.Context, peerID domain.PeerID, conn ports.PeerConn) ([]domain.DrawingCommand, error) {
	s.mu.Lock()
	if s.reaped {
		s.mu.Unlock()
		return nil, errSessionReaped
	}
	if _, exists := s.members[peerID]; exists {
		s.mu.Unlock()
		return nil, domain.ErrDuplicatePeer
	}
	s.members[peerID] = conn
	s.order = append(s.order, peerID)
	others := s.snapshotExcept(peerID)
	s.mu.Unlock()

	history, err := s.history.Load(ctx, s.id)
	if err != nil {
		s.logger.Warnw("history load failed, joining with empty history",
			"session_id", s.id, "peer_id", peerID, "error", err)
		history = nil
	}

	notice := domain.NewPeerJoinedEnvelope(s.id, peerID)
	for _, member := range others {
		s.deliver(member, notice)
	}

	s.metrics.RecordPeerJoined(s.id)
	s.logger.Infow("peer joined session", "session_id", s.id, "peer_id", peerID, "members", len(others)+1)
	return history, nil
}

// Relay routes one envelope from sender. Targeted envelopes go to exactly one
// member and fail with ErrUnknownTarget when it is absent; broadcast envelopes
// fan out to every other member, and draw commands are additionally forwarded
// to the history store. A store failure never stops the live fan-out.
func (s *Session) Relay(ctx context.Context, sender domain.PeerID, env *domain.Envelope) error {
	out := *env
	out.SenderPeerID = sender
	out.SessionID = s.id

	if env.IsTargeted() {
		s.mu.Lock()
		target, ok := s.members[env.TargetPeerID]
		s.mu.Unlock()
		if !ok {
			return domain.ErrUnknownTarget
		}
		s.deliver(target, &out)
		s.metrics.RecordEnvelopeRelayed(env.Type)
		return nil
	}

	s.mu.Lock()
	others := s.snapshotExcept(sender)
	s.mu.Unlock()

	for _, member := range others {
		s.deliver(member, &out)
	}
	s.metrics.RecordEnvelopeRelayed(env.Type)

	if env.Type == domain.EnvelopeDraw && len(env.Payload) > 0 {
		if err := s.history.Append(ctx, s.id, domain.DrawingCommand(env.Payload)); err != nil {
			s.metrics.RecordHistoryAppend(false)
			s.logger.Warnw("history append failed, continuing in degraded mode",
				"session_id", s.id, "peer_id", sender, "error", err)
		} else {
			s.metrics.RecordHistoryAppend(true)
		}
	}
	return nil
}

// Leave removes peerID and notifies the remaining members. It is idempotent:
// leaving an absent peer is a no-op. The second return reports whether the
// session is now empty and eligible for reaping.
func (s *Session) Leave(peerID domain.PeerID) (removed, empty bool) {
	s.mu.Lock()
	if _, exists := s.members[peerID]; !exists {
		empty = len(s.members) == 0
		s.mu.Unlock()
		return false, empty
	}
	delete(s.members, peerID)
	for i, id := range s.order {
		if id == peerID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	others := s.snapshotExcept(peerID)
	empty = len(s.members) == 0
	s.mu.Unlock()

	notice := domain.NewPeerLeftEnvelope(s.id, peerID)
	for _, member := range others {
		s.deliver(member, notice)
	}

	s.metrics.RecordPeerLeft(s.id)
	s.logger.Infow("peer left session", "session_id", s.id, "peer_id", peerID, "members", len(others))
	return true, empty
}

// snapshotExcept returns the members to fan out to, in join order.
// Callers must hold s.mu.
func (s *Session) snapshotExcept(exclude domain.PeerID) []ports.PeerConn {
	out := make([]ports.PeerConn, 0, len(s.members))
	for _, id := range s.order {
		if id == exclude {
			continue
		}
		if conn, ok := s.members[id]; ok {
			out = append(out, conn)
		}
	}
	return out
}

// deliver enqueues env on one member's outbound queue. Queue overflow means
// the peer cannot keep up: it is disconnected so the rest of the session is
// not stalled. Any other send failure is a dropped delivery left to the
// clients' own recovery.
func (s *Session) deliver(conn ports.PeerConn, env *domain.Envelope) {
	err := conn.Send(env)
	if err == nil {
		return
	}
	if errors.Is(err, domain.ErrSendQueueFull) {
		s.metrics.RecordBackpressureDisconnect()
		s.logger.Warnw("outbound queue overflow, dropping slow peer",
			"session_id", s.id, "peer_id", conn.PeerID())
		conn.Close("backpressure disconnect")
		return
	}
	s.metrics.RecordDroppedDelivery(err.Error())
	s.logger.Debugw("dropped delivery",
		"session_id", s.id, "peer_id", conn.PeerID(), "error", err)
}

// markReapedIfEmpty flips the session into its terminal state iff it has no
// members. Called by the registry with the registry lock held; the lock order
// is always registry then session.
func (s *Session) markReapedIfEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.members) > 0 {
		return false
	}
	s.reaped = true
	return true
}
