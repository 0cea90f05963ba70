package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Uttham-412/Whiteboard/internal/core/domain"
	"github.com/Uttham-412/Whiteboard/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// RedisBoardRepository stores board documents as JSON blobs keyed by session id.
type RedisBoardRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisBoardRepository(client *redis.Client) ports.BoardRepository {
	return &RedisBoardRepository{
		client: client,
		prefix: "whiteboard:board:",
	}
}

func (r *RedisBoardRepository) boardKey(id domain.SessionID) string {
	return r.prefix + string(id)
}

func (r *RedisBoardRepository) Create(ctx context.Context, board *domain.Board) error {
	data, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("failed to marshal board: %w", err)
	}

	ok, err := r.client.SetNX(ctx, r.boardKey(board.SessionID), data, 0).Result()
	if err != nil {
		return classify(fmt.Errorf("failed to create board: %w", err))
	}
	if !ok {
		return domain.ErrBoardExists
	}
	return nil
}

func (r *RedisBoardRepository) GetByID(ctx context.Context, id domain.SessionID) (*domain.Board, error) {
	data, err := r.client.Get(ctx, r.boardKey(id)).Result()
	if err == redis.Nil {
		return nil, domain.ErrBoardNotFound
	}
	if err != nil {
		return nil, classify(fmt.Errorf("failed to get board: %w", err))
	}

	var board domain.Board
	if err := json.Unmarshal([]byte(data), &board); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board: %w", err)
	}
	return &board, nil
}

func (r *RedisBoardRepository) Delete(ctx context.Context, id domain.SessionID) error {
	removed, err := r.client.Del(ctx, r.boardKey(id)).Result()
	if err != nil {
		return classify(fmt.Errorf("failed to delete board: %w", err))
	}
	if removed == 0 {
		return domain.ErrBoardNotFound
	}
	return nil
}
