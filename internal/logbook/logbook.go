// Package logbook maintains the process-wide view of attendance logs: a
// cached, timestamp-descending list backed by the persistent store. The cache
// is authoritative for clock-state decisions so the attendance flow keeps
// working when the store degrades.
package logbook

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"timeclock/internal/domain"
)

// TimeLogStore is the persistence the logbook writes through and refreshes
// from.
type TimeLogStore interface {
	Insert(ctx context.Context, log domain.TimeLog) error
	List(ctx context.Context) ([]domain.TimeLog, error)
}

// Logbook is safe for concurrent use.
type Logbook struct {
	store  TimeLogStore
	logger *slog.Logger

	mu   sync.RWMutex
	logs []domain.TimeLog // timestamp descending
}

func New(store TimeLogStore, logger *slog.Logger) *Logbook {
	return &Logbook{store: store, logger: logger}
}

// Append records a completed attendance event. The local echo is
// unconditional: the log lands in the cached view even when the remote insert
// fails, so a finished clock action is never silently lost from the session.
// The insert error is returned for the caller to treat as a degraded-mode
// warning, not a failure.
func (b *Logbook) Append(ctx context.Context, log domain.TimeLog) error {
	b.mu.Lock()
	b.logs = append([]domain.TimeLog{log}, b.logs...)
	b.mu.Unlock()

	if err := b.store.Insert(ctx, log); err != nil {
		b.logger.Warn("time log insert failed, continuing with local echo",
			"log_id", log.ID, "user_id", log.UserID, "error", err)
		return fmt.Errorf("insert time log: %w", err)
	}
	return nil
}

// Refresh replaces the cached view wholesale from the store.
func (b *Logbook) Refresh(ctx context.Context) error {
	logs, err := b.store.List(ctx)
	if err != nil {
		return fmt.Errorf("refresh logbook: %w", err)
	}
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})

	b.mu.Lock()
	b.logs = logs
	b.mu.Unlock()
	return nil
}

// Logs returns a snapshot of the cached view, newest first.
func (b *Logbook) Logs() []domain.TimeLog {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]domain.TimeLog, len(b.logs))
	copy(out, b.logs)
	return out
}

// LogsForUser returns the user's logs, newest first.
func (b *Logbook) LogsForUser(userID string) []domain.TimeLog {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []domain.TimeLog
	for _, log := range b.logs {
		if log.UserID == userID {
			out = append(out, log)
		}
	}
	return out
}

// IsClockedIn derives the user's clock state from their most recent log:
// last log wins, no pairing validation. A user with no logs is clocked out.
func (b *Logbook) IsClockedIn(userID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, log := range b.logs {
		if log.UserID == userID {
			return log.Type == domain.ClockIn
		}
	}
	return false
}
