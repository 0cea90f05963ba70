package services

import (
	"context"
	"time"

	"github.com/Uttham-412/Whiteboard/internal/core/domain"
	"github.com/Uttham-412/Whiteboard/internal/core/ports"
	"github.com/Uttham-412/Whiteboard/pkg/cache"
	"github.com/Uttham-412/Whiteboard/pkg/utils"

	"go.uber.org/zap"
)

// BoardService drives the REST surface over board documents. Reads go through
// a short-lived cache; every write invalidates the cached entry.
type BoardService struct {
	boards  ports.BoardRepository
	history ports.HistoryRepository
	cache   *cache.Cache
	logger  *zap.SugaredLogger
}

func NewBoardService(boards ports.BoardRepository, history ports.HistoryRepository, boardCache *cache.Cache, logger *zap.SugaredLogger) *BoardService {
	return &BoardService{
		boards:  boards,
		history: history,
		cache:   boardCache,
		logger:  logger,
	}
}

func boardCacheKey(id domain.SessionID) string {
	return "board:" + string(id)
}

// CreateBoard mints a new board document owned by creator. The id is an
// uppercased uuid prefix, short enough to share verbally.
func (s *BoardService) CreateBoard(ctx context.Context, creator string) (*domain.Board, error) {
	board := &domain.Board{
		SessionID:       domain.SessionID(utils.GenerateBoardID()),
		CreatorUsername: creator,
		CanvasState:     []domain.DrawingCommand{},
		CreatedAt:       time.Now(),
	}
	if err := s.boards.Create(ctx, board); err != nil {
		return nil, err
	}
	s.logger.Infow("board created", "session_id", board.SessionID, "creator", creator)
	return board, nil
}

// GetBoard fetches the board document plus its current drawing history.
func (s *BoardService) GetBoard(ctx context.Context, id domain.SessionID) (*domain.Board, error) {
	if cached, ok := s.cache.Get(boardCacheKey(id)); ok {
		if board, ok := cached.(*domain.Board); ok {
			return board, nil
		}
	}

	board, err := s.boards.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	history, err := s.history.Load(ctx, id)
	if err != nil {
		s.logger.Warnw("history load failed for board fetch", "session_id", id, "error", err)
		history = nil
	}
	if history == nil {
		history = []domain.DrawingCommand{}
	}
	board.CanvasState = history

	s.cache.Set(boardCacheKey(id), board)
	return board, nil
}

// SaveCanvas replaces the stored canvas state with the posted ordered command
// list (full-state save from a client).
func (s *BoardService) SaveCanvas(ctx context.Context, id domain.SessionID, cmds []domain.DrawingCommand) error {
	if _, err := s.boards.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.history.Replace(ctx, id, cmds); err != nil {
		return err
	}
	s.cache.Delete(boardCacheKey(id))
	s.logger.Infow("canvas state saved", "session_id", id, "commands", len(cmds))
	return nil
}
