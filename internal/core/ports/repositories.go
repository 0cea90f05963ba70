package ports

import (
	"context"

	"github.com/Uttham-412/Whiteboard/internal/core/domain"
)

// HistoryRepository is the history bridge consumed by sessions. Load returns
// the ordered drawing history for a board; Append adds one committed command;
// Replace overwrites the whole history (REST canvas save). Implementations
// report unreachable backends as domain.ErrStoreUnavailable so callers can
// degrade to live-relay-only.
type HistoryRepository interface {
	Load(ctx context.Context, sessionID domain.SessionID) ([]domain.DrawingCommand, error)
	Append(ctx context.Context, sessionID domain.SessionID, cmd domain.DrawingCommand) error
	Replace(ctx context.Context, sessionID domain.SessionID, cmds []domain.DrawingCommand) error
}

// BoardRepository stores whiteboard documents for the REST surface.
type BoardRepository interface {
	Create(ctx context.Context, board *domain.Board) error
	GetByID(ctx context.Context, id domain.SessionID) (*domain.Board, error)
	Delete(ctx context.Context, id domain.SessionID) error
}
