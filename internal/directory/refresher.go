package directory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Refresher re-runs the wholesale directory refresh on a fixed interval, so
// terminals eventually see registry changes made by other instances.
type Refresher struct {
	scheduler *gocron.Scheduler
}

func NewRefresher(svc *Service, every time.Duration, logger *slog.Logger) (*Refresher, error) {
	scheduler := gocron.NewScheduler(time.UTC)
	_, err := scheduler.Every(every).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := svc.Refresh(ctx); err != nil {
			logger.Warn("periodic directory refresh failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule directory refresh: %w", err)
	}
	return &Refresher{scheduler: scheduler}, nil
}

func (r *Refresher) Start() {
	r.scheduler.StartAsync()
}

func (r *Refresher) Stop() {
	r.scheduler.Stop()
}
