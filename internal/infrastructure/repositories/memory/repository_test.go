package memory

import (
	"context"
	"testing"
	"time"

	"github.com/Uttham-412/Whiteboard/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRepositoryAppendAndLoad(t *testing.T) {
	repo := NewHistoryRepository()
	ctx := context.Background()

	got, err := repo.Load(ctx, "board-1")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, repo.Append(ctx, "board-1", domain.DrawingCommand(`{"seq":0}`)))
	require.NoError(t, repo.Append(ctx, "board-1", domain.DrawingCommand(`{"seq":1}`)))

	got, err = repo.Load(ctx, "board-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.JSONEq(t, `{"seq":0}`, string(got[0]))
	assert.JSONEq(t, `{"seq":1}`, string(got[1]))

	// Other boards are unaffected.
	other, err := repo.Load(ctx, "board-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestHistoryRepositoryReplace(t *testing.T) {
	repo := NewHistoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, "board-1", domain.DrawingCommand(`{"old":true}`)))
	require.NoError(t, repo.Replace(ctx, "board-1", []domain.DrawingCommand{
		domain.DrawingCommand(`{"new":1}`),
		domain.DrawingCommand(`{"new":2}`),
	}))

	got, err := repo.Load(ctx, "board-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.JSONEq(t, `{"new":1}`, string(got[0]))
}

func TestHistoryRepositoryLoadReturnsCopy(t *testing.T) {
	repo := NewHistoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Append(ctx, "board-1", domain.DrawingCommand(`{"seq":0}`)))

	first, err := repo.Load(ctx, "board-1")
	require.NoError(t, err)
	first[0] = domain.DrawingCommand(`{"mutated":true}`)

	second, err := repo.Load(ctx, "board-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"seq":0}`, string(second[0]))
}

func TestBoardRepositoryLifecycle(t *testing.T) {
	repo := NewBoardRepository()
	ctx := context.Background()

	board := &domain.Board{
		SessionID:       "ABC123",
		CreatorUsername: "alice",
		CanvasState:     []domain.DrawingCommand{},
		CreatedAt:       time.Now(),
	}
	require.NoError(t, repo.Create(ctx, board))

	assert.ErrorIs(t, repo.Create(ctx, board), domain.ErrBoardExists)

	got, err := repo.GetByID(ctx, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.CreatorUsername)

	require.NoError(t, repo.Delete(ctx, "ABC123"))
	_, err = repo.GetByID(ctx, "ABC123")
	assert.ErrorIs(t, err, domain.ErrBoardNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "ABC123"), domain.ErrBoardNotFound)
}
