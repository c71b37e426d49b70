package log

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Limiter suppresses a message if the same message was logged within the
// interval. Per-frame anomalies go through it so a broken camera does not
// flood the output at frame rate.
type Limiter struct {
	logger   *slog.Logger
	interval time.Duration
	nowFunc  func() time.Time

	mu            sync.Mutex
	previousEntry string
	previousTime  time.Time
}

func NewLimiter(logger *slog.Logger, interval time.Duration) *Limiter {
	return &Limiter{
		logger:   logger,
		interval: interval,
		nowFunc:  time.Now,
	}
}

func (l *Limiter) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}

func (l *Limiter) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

func (l *Limiter) log(level slog.Level, msg string, args ...any) {
	l.mu.Lock()
	now := l.nowFunc()
	if now.Sub(l.previousTime) < l.interval && msg == l.previousEntry {
		l.mu.Unlock()
		return
	}
	l.previousTime = now
	l.previousEntry = msg
	l.mu.Unlock()

	l.logger.Log(context.Background(), level, msg, args...)
}
