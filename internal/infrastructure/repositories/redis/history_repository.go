package redis

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/Uttham-412/Whiteboard/internal/core/domain"
	"github.com/Uttham-412/Whiteboard/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// RedisHistoryRepository persists drawing histories as Redis lists, one list
// per board keyed by session id. List order is append order, which is the
// commit order the relay guarantees.
type RedisHistoryRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisHistoryRepository(client *redis.Client) ports.HistoryRepository {
	return &RedisHistoryRepository{
		client: client,
		prefix: "whiteboard:history:",
	}
}

func (r *RedisHistoryRepository) historyKey(sessionID domain.SessionID) string {
	return r.prefix + string(sessionID)
}

func (r *RedisHistoryRepository) Load(ctx context.Context, sessionID domain.SessionID) ([]domain.DrawingCommand, error) {
	entries, err := r.client.LRange(ctx, r.historyKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, classify(fmt.Errorf("failed to load history: %w", err))
	}

	cmds := make([]domain.DrawingCommand, len(entries))
	for i, entry := range entries {
		cmds[i] = domain.DrawingCommand(entry)
	}
	return cmds, nil
}

func (r *RedisHistoryRepository) Append(ctx context.Context, sessionID domain.SessionID, cmd domain.DrawingCommand) error {
	if err := r.client.RPush(ctx, r.historyKey(sessionID), []byte(cmd)).Err(); err != nil {
		return classify(fmt.Errorf("failed to append history entry: %w", err))
	}
	return nil
}

func (r *RedisHistoryRepository) Replace(ctx context.Context, sessionID domain.SessionID, cmds []domain.DrawingCommand) error {
	key := r.historyKey(sessionID)

	// Atomic swap so a concurrent Load never observes a half-written history.
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(cmds) > 0 {
		values := make([]interface{}, len(cmds))
		for i, cmd := range cmds {
			values[i] = []byte(cmd)
		}
		pipe.RPush(ctx, key, values...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return classify(fmt.Errorf("failed to replace history: %w", err))
	}
	return nil
}

// classify maps transport-level failures to domain.ErrStoreUnavailable so the
// relay can degrade instead of surfacing Redis internals.
func classify(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return err
}
