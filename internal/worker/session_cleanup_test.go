package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"cargo-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSessions struct {
	calls atomic.Int32
}

func (c *countingSessions) Create(context.Context, *entity.Session) error { return nil }
func (c *countingSessions) FindValidSession(context.Context, uuid.UUID) (*entity.Session, error) {
	return nil, nil
}
func (c *countingSessions) Revoke(context.Context, uuid.UUID) error { return nil }
func (c *countingSessions) CleanExpiredSessions(context.Context) (int64, error) {
	c.calls.Add(1)
	return 2, nil
}

func TestSessionCleanupWorker_RunsUntilCancelled(t *testing.T) {
	sessions := &countingSessions{}
	w := NewSessionCleanupWorker(sessions, 5*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	assert.Eventually(t, func() bool { return sessions.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestNewSessionCleanupWorker_DefaultInterval(t *testing.T) {
	w := NewSessionCleanupWorker(&countingSessions{}, 0, zap.NewNop())
	assert.Equal(t, time.Hour, w.interval)
}
