// Package stats owns the ledger's lifecycle: loading it from the configured
// backend, deciding when to persist it, and flushing it on shutdown.
package stats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fadedpez/scrapstats/internal/logging"
	"github.com/fadedpez/scrapstats/internal/types"
	"github.com/fadedpez/scrapstats/pkg/ledger"
	"github.com/fadedpez/scrapstats/pkg/storage"
)

// FlushPolicy decides whether a mutation is persisted right away
type FlushPolicy string

const (
	// FlushImmediate writes after every mutation, as well as on the timer
	FlushImmediate FlushPolicy = "immediate"
	// FlushInterval leaves persistence to the periodic flush and shutdown
	FlushInterval FlushPolicy = "interval"
)

// ParseFlushPolicy validates a configured flush policy
func ParseFlushPolicy(s string) (FlushPolicy, error) {
	switch FlushPolicy(s) {
	case "", FlushImmediate:
		return FlushImmediate, nil
	case FlushInterval:
		return FlushInterval, nil
	}
	return "", fmt.Errorf("unknown flush policy %q", s)
}

// Observer is told about every flush attempt
type Observer interface {
	FlushCompleted(backend string, took time.Duration, err error)
	LedgerSize(players int)
}

// Option configures a Store
type Option func(*Store)

// WithPolicy sets the flush policy
func WithPolicy(policy FlushPolicy) Option {
	return func(s *Store) { s.policy = policy }
}

// WithLogger sets the logger
func WithLogger(logger *logging.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithObserver reports flush outcomes to o
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// Store pairs the in-memory ledger with its persistence backend
type Store struct {
	backend  storage.Backend
	ledger   *ledger.Ledger
	policy   FlushPolicy
	logger   *logging.Logger
	observer Observer

	// flushMu serializes backend access; loaded and flushedVersion are guarded by it
	flushMu        sync.Mutex
	flushedVersion uint64
	loaded         bool
}

// New creates a store around backend. Call Open before use.
func New(backend storage.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		ledger:  ledger.New(),
		policy:  FlushImmediate,
		logger:  logging.Default,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("store")
	return s
}

// Ledger returns the in-memory ledger
func (s *Store) Ledger() *ledger.Ledger {
	return s.ledger
}

// Backend returns the persistence backend
func (s *Store) Backend() storage.Backend {
	return s.backend
}

// Policy returns the configured flush policy
func (s *Store) Policy() FlushPolicy {
	return s.policy
}

// Open prepares the backend and loads the persisted ledger.
// A corrupt snapshot is logged and the store starts empty. Any other load
// failure is returned and the store stays unloaded: mutations still apply in
// memory but nothing is flushed, so stored data is never overwritten. Open
// may be retried; changes made in the meantime are merged into what loads.
func (s *Store) Open(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	if s.loaded {
		return nil
	}
	if err := s.backend.InitSchema(ctx); err != nil {
		return err
	}

	entries, err := s.backend.Load(ctx)
	if err != nil {
		if !types.IsStatsError(err, types.ErrCorruptSnapshot) {
			return err
		}
		s.logger.LogError(err)
		s.logger.Warn("Starting with an empty ledger")
		entries = nil
	}

	pending := s.ledger.Version() != s.flushedVersion
	s.ledger.Merge(entries)
	if pending {
		s.logger.Warn("Merged changes recorded before %s storage was reachable", s.backend.Name())
	} else {
		s.flushedVersion = s.ledger.Version()
	}
	s.loaded = true
	s.reportSize()

	s.logger.Info("Opened %s backend with %d players", s.backend.Name(), s.ledger.Len())
	return nil
}

// Loaded reports whether Open has succeeded
func (s *Store) Loaded() bool {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	return s.loaded
}

// Mutated is called after every ledger change and applies the flush policy
func (s *Store) Mutated(ctx context.Context) error {
	if s.policy != FlushImmediate {
		return nil
	}
	return s.Flush(ctx)
}

// Flush persists the current ledger. The snapshot is taken after the flush
// lock is held, so a flush never writes state older than one before it.
func (s *Store) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	return s.flushLocked(ctx)
}

// FlushIfDirty flushes only when the ledger changed since the last successful flush
func (s *Store) FlushIfDirty(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	if s.ledger.Version() == s.flushedVersion {
		return nil
	}
	return s.flushLocked(ctx)
}

// Dirty reports whether there are changes not yet persisted
func (s *Store) Dirty() bool {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	return s.ledger.Version() != s.flushedVersion
}

// Close writes the ledger one last time and releases the backend
func (s *Store) Close(ctx context.Context) error {
	flushErr := s.Flush(ctx)
	if flushErr != nil {
		s.logger.Error("Final flush failed: %v", flushErr)
	}
	if err := s.backend.Close(); err != nil {
		if flushErr != nil {
			return flushErr
		}
		return fmt.Errorf("failed to close %s backend: %w", s.backend.Name(), err)
	}
	return flushErr
}

func (s *Store) flushLocked(ctx context.Context) error {
	if !s.loaded {
		return types.NewStatsError(types.ErrPersistenceConnect,
			fmt.Sprintf("stats have not been loaded from %s storage yet, not overwriting it", s.backend.Name()))
	}

	snapshot := s.ledger.Snapshot()

	start := time.Now()
	err := s.backend.Flush(ctx, snapshot)
	took := time.Since(start)

	if s.observer != nil {
		s.observer.FlushCompleted(s.backend.Name(), took, err)
	}
	s.reportSize()

	if err != nil {
		// The ledger keeps the mutations; the next flush retries them
		return err
	}

	s.ledger.Acknowledge(snapshot.Removed)
	s.flushedVersion = snapshot.Version
	s.logger.Debug("Flushed %d players in %s", len(snapshot.Entries), took)
	return nil
}

func (s *Store) reportSize() {
	if s.observer != nil {
		s.observer.LedgerSize(s.ledger.Len())
	}
}
