package web

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartSessionCleanup starts a background goroutine that removes expired
// sessions and stale flash entries every interval until ctx is done.
// The returned channel is closed when the goroutine has exited.
func (s *WebServer) StartSessionCleanup(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupSessions()
			}
		}
	}()

	s.log.Info("Started session cleanup background task", zap.Duration("interval", interval))
	return done
}

func (s *WebServer) cleanupSessions() {
	removed, err := s.DB.CleanupExpiredSessions()
	if err != nil {
		s.log.Error("Error cleaning up expired sessions", zap.Error(err))
		return
	}
	stale := s.flashes.Expire(s.sessionTTL)
	s.log.Debug("Session cleanup completed", zap.Int64("sessions", removed), zap.Int("flashes", stale))
}
