// Package worker holds periodic background jobs.
package worker

import (
	"context"
	"time"

	"cargo-booking/internal/data/repository"

	"go.uber.org/zap"
)

// SessionCleanupWorker deletes long-expired sessions on a fixed interval.
type SessionCleanupWorker struct {
	sessions repository.SessionRepository
	interval time.Duration
	log      *zap.Logger
}

func NewSessionCleanupWorker(sessions repository.SessionRepository, interval time.Duration, log *zap.Logger) *SessionCleanupWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SessionCleanupWorker{
		sessions: sessions,
		interval: interval,
		log:      log.With(zap.String("worker", "session_cleanup")),
	}
}

// Start blocks until ctx is cancelled.
func (w *SessionCleanupWorker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("Session cleanup worker started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Session cleanup worker stopped")
			return nil
		case <-ticker.C:
			w.cleanup(ctx)
		}
	}
}

func (w *SessionCleanupWorker) cleanup(ctx context.Context) {
	removed, err := w.sessions.CleanExpiredSessions(ctx)
	if err != nil {
		w.log.Error("Failed to clean expired sessions", zap.Error(err))
		return
	}
	if removed > 0 {
		w.log.Info("Expired sessions removed", zap.Int64("count", removed))
	}
}
