// Package worker runs the scheduled retention purge.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/typing-racer/internal/config"
)

// Purger removes score records outside the retention window.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}

// RetentionWorker purges expired score records on a cron schedule.
type RetentionWorker struct {
	purger     Purger
	schedule   string
	runOnStart bool
	logger     *slog.Logger
	cron       *cron.Cron
}

// NewRetentionWorker creates a retention worker from config.
func NewRetentionWorker(purger Purger, cfg *config.RetentionConfig, logger *slog.Logger) *RetentionWorker {
	return &RetentionWorker{
		purger:     purger,
		schedule:   cfg.Schedule,
		runOnStart: cfg.RunOnStart,
		logger:     logger,
		cron:       cron.New(),
	}
}

// Start registers the purge job and starts the scheduler. With run_on_start
// set the first purge happens immediately, so a long-stopped server does not
// serve stale records until the next scheduled run.
func (w *RetentionWorker) Start() error {
	if _, err := w.cron.AddFunc(w.schedule, w.runPurge); err != nil {
		return err
	}

	if w.runOnStart {
		go w.runPurge()
	}

	w.cron.Start()
	w.logger.Info("retention worker started", "schedule", w.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running purge to finish.
func (w *RetentionWorker) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
	w.logger.Info("retention worker stopped")
}

func (w *RetentionWorker) runPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := w.purger.Purge(ctx)
	if err != nil {
		w.logger.Error("retention purge failed", "error", err)
		return
	}
	if removed > 0 {
		w.logger.Info("retention purge completed", "removed", removed)
	} else {
		w.logger.Debug("retention purge completed, nothing to remove")
	}
}
