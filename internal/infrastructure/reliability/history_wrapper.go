package reliability

import (
	"context"
	"errors"
	"fmt"

	"github.com/Uttham-412/Whiteboard/internal/core/domain"
	"github.com/Uttham-412/Whiteboard/internal/core/ports"
	"github.com/Uttham-412/Whiteboard/pkg/circuitbreaker"

	"go.uber.org/zap"
)

// HistoryRepositoryWrapper guards a history store behind a circuit breaker.
// When the backend keeps failing the breaker opens and calls are rejected
// immediately as domain.ErrStoreUnavailable, which sessions already treat as
// the degraded-persistence signal. Live relay is never affected.
type HistoryRepositoryWrapper struct {
	inner   ports.HistoryRepository
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.SugaredLogger
}

func NewHistoryRepositoryWrapper(inner ports.HistoryRepository, cfg circuitbreaker.Config, logger *zap.SugaredLogger) *HistoryRepositoryWrapper {
	w := &HistoryRepositoryWrapper{
		inner:   inner,
		breaker: circuitbreaker.New(cfg),
		logger:  logger,
	}
	w.breaker.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Warnw("history store circuit state changed", "from", from.String(), "to", to.String())
	})
	return w
}

var _ ports.HistoryRepository = (*HistoryRepositoryWrapper)(nil)

func (w *HistoryRepositoryWrapper) Load(ctx context.Context, sessionID domain.SessionID) ([]domain.DrawingCommand, error) {
	var cmds []domain.DrawingCommand
	err := w.execute(func() error {
		var innerErr error
		cmds, innerErr = w.inner.Load(ctx, sessionID)
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return cmds, nil
}

func (w *HistoryRepositoryWrapper) Append(ctx context.Context, sessionID domain.SessionID, cmd domain.DrawingCommand) error {
	return w.execute(func() error {
		return w.inner.Append(ctx, sessionID, cmd)
	})
}

func (w *HistoryRepositoryWrapper) Replace(ctx context.Context, sessionID domain.SessionID, cmds []domain.DrawingCommand) error {
	return w.execute(func() error {
		return w.inner.Replace(ctx, sessionID, cmds)
	})
}

func (w *HistoryRepositoryWrapper) execute(fn func() error) error {
	err := w.breaker.Execute(fn)
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return err
}

// State exposes the breaker state for health reporting.
func (w *HistoryRepositoryWrapper) State() circuitbreaker.State {
	return w.breaker.GetState()
}
