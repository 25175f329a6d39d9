package scheduler

import (
	"context"
	"time"

	"github.com/fadedpez/scrapstats/internal/logging"
)

// DefaultFlushInterval is the ten minute save timer
const DefaultFlushInterval = 600 * time.Second

// Flusher persists pending ledger changes
type Flusher interface {
	FlushIfDirty(ctx context.Context) error
}

// FlushScheduler periodically persists the ledger
type FlushScheduler struct {
	scheduler *Scheduler
	store     Flusher
	logger    *logging.Logger
}

// NewFlushScheduler creates a scheduler that flushes store every interval
func NewFlushScheduler(store Flusher, interval time.Duration, logger *logging.Logger) *FlushScheduler {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	if logger == nil {
		logger = logging.Default
	}

	fs := &FlushScheduler{
		scheduler: NewScheduler(logger),
		store:     store,
		logger:    logger.Named("flush"),
	}
	fs.scheduler.Add(&Task{Name: "ledger_flush", Interval: interval, Fn: fs.flush})
	return fs
}

// AddTask runs fn every interval alongside the ledger flush. Add tasks before Start.
func (fs *FlushScheduler) AddTask(name string, interval time.Duration, fn func(context.Context) error) {
	fs.scheduler.AddTask(name, interval, fn)
}

// Start begins periodic flushing
func (fs *FlushScheduler) Start(ctx context.Context) {
	fs.scheduler.Start(ctx)
}

// Stop ends periodic flushing; a flush in progress completes first
func (fs *FlushScheduler) Stop() {
	fs.scheduler.Stop()
}

func (fs *FlushScheduler) flush(ctx context.Context) error {
	fs.logger.Debug("Running periodic ledger flush")
	return fs.store.FlushIfDirty(ctx)
}
