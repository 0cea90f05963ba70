package memory

import (
	"context"
	"sync"

	"github.com/Uttham-412/Whiteboard/internal/core/domain"
	"github.com/Uttham-412/Whiteboard/internal/core/ports"
)

// BoardRepository is the in-memory board store.
type BoardRepository struct {
	mu     sync.RWMutex
	boards map[domain.SessionID]*domain.Board
}

func NewBoardRepository() *BoardRepository {
	return &BoardRepository{
		boards: make(map[domain.SessionID]*domain.Board),
	}
}

var _ ports.BoardRepository = (*BoardRepository)(nil)

func (r *BoardRepository) Create(ctx context.Context, board *domain.Board) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.boards[board.SessionID]; exists {
		return domain.ErrBoardExists
	}
	stored := *board
	r.boards[board.SessionID] = &stored
	return nil
}

func (r *BoardRepository) GetByID(ctx context.Context, id domain.SessionID) (*domain.Board, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	board, exists := r.boards[id]
	if !exists {
		return nil, domain.ErrBoardNotFound
	}
	out := *board
	return &out, nil
}

func (r *BoardRepository) Delete(ctx context.Context, id domain.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.boards[id]; !exists {
		return domain.ErrBoardNotFound
	}
	delete(r.boards, id)
	return nil
}
