package services

import (
	"context"
	"errors"
	"sync"

	"github.com/Uttham-412/Whiteboard/internal/core/domain"
	"github.com/Uttham-412/Whiteboard/internal/core/ports"

	"go.uber.org/zap"
)

// Registry is the process-wide session table. Sessions are created lazily on
// first join and removed once empty; create and remove for the same id are
// serialized by the registry lock.
type Registry struct {
	history ports.HistoryRepository
	metrics ports.RelayMetrics
	logger  *zap.SugaredLogger

	mu       sync.RWMutex
	sessions map[domain.SessionID]*Session
}

func NewRegistry(history ports.HistoryRepository, metrics ports.RelayMetrics, logger *zap.SugaredLogger) *Registry {
	return &Registry{
		history:  history,
		metrics:  metrics,
		logger:   logger,
		sessions: make(map[domain.SessionID]*Session),
	}
}

// GetOrCreate returns the live session for id, creating it if absent. Two
// concurrent callers always observe the same instance.
func (r *Registry) GetOrCreate(id domain.SessionID) *Session {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}
	s = newSession(id, r.history, r.metrics, r.logger)
	r.sessions[id] = s
	r.metrics.RecordSessionCreated(id)
	r.logger.Infow("session created", "session_id", id)
	return s
}

// Get returns the session for id without creating one.
func (r *Registry) Get(id domain.SessionID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// JoinSession atomically resolves the session for id and joins it. A join
// racing the reap of a just-emptied session retries against the fresh
// instance, so callers never end up member of a session the registry no
// longer knows.
func (r *Registry) JoinSession(ctx context.Context, id domain.SessionID, peerID domain.PeerID, conn ports.PeerConn) (*Session, []domain.DrawingCommand, error) {
	for {
		s := r.GetOrCreate(id)
		history, err := s.Join(ctx, peerID, conn)
		if errors.Is(err, errSessionReaped) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return s, history, nil
	}
}

// RemoveIfEmpty removes the session entry iff it currently has zero members.
// The empty check and the map delete happen under the registry lock, so a
// concurrent join either lands before removal (session kept) or observes a
// fresh session from GetOrCreate afterwards.
func (r *Registry) RemoveIfEmpty(id domain.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return
	}
	if !s.markReapedIfEmpty() {
		return
	}
	delete(r.sessions, id)
	r.metrics.RecordSessionReaped(id)
	r.logger.Infow("session reaped", "session_id", id)
}

// SessionCount reports the number of live sessions.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// PeerCount reports the total members across all sessions.
func (r *Registry) PeerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, s := range r.sessions {
		total += s.Len()
	}
	return total
}
