package memory

import (
	"context"
	"sync"

	"github.com/Uttham-412/Whiteboard/internal/core/domain"
	"github.com/Uttham-412/Whiteboard/internal/core/ports"
)

// HistoryRepository keeps drawing histories in process memory. Suitable for
// single-node deployments and tests; histories vanish on restart.
type HistoryRepository struct {
	mu        sync.RWMutex
	histories map[domain.SessionID][]domain.DrawingCommand
}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{
		histories: make(map[domain.SessionID][]domain.DrawingCommand),
	}
}

var _ ports.HistoryRepository = (*HistoryRepository)(nil)

func (r *HistoryRepository) Load(ctx context.Context, sessionID domain.SessionID) ([]domain.DrawingCommand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.histories[sessionID]
	out := make([]domain.DrawingCommand, len(stored))
	copy(out, stored)
	return out, nil
}

func (r *HistoryRepository) Append(ctx context.Context, sessionID domain.SessionID, cmd domain.DrawingCommand) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	owned := make(domain.DrawingCommand, len(cmd))
	copy(owned, cmd)
	r.histories[sessionID] = append(r.histories[sessionID], owned)
	return nil
}

func (r *HistoryRepository) Replace(ctx context.Context, sessionID domain.SessionID, cmds []domain.DrawingCommand) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	replacement := make([]domain.DrawingCommand, len(cmds))
	for i, cmd := range cmds {
		owned := make(domain.DrawingCommand, len(cmd))
		copy(owned, cmd)
		replacement[i] = owned
	}
	r.histories[sessionID] = replacement
	return nil
}
