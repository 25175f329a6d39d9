// Package ingest applies currency-flow notifications from the game server to the ledger.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/fadedpez/scrapstats/internal/logging"
	"github.com/fadedpez/scrapstats/internal/types"
	"github.com/fadedpez/scrapstats/pkg/directory"
	"github.com/fadedpez/scrapstats/pkg/entities"
	"github.com/fadedpez/scrapstats/pkg/ledger"
)

// DefaultMaxAmount caps a single event unless configured otherwise
const DefaultMaxAmount int64 = 1_000_000_000

// Store is the part of stats.Store the ingestor needs
type Store interface {
	Ledger() *ledger.Ledger
	Mutated(ctx context.Context) error
}

// Observer is told about accepted and rejected events
type Observer interface {
	EventRecorded(kind entities.FlowKind, amount int64)
	EventRejected(kind entities.FlowKind)
}

// Event is one currency-flow notification
type Event struct {
	PlayerID   string
	PlayerName string // optional, registers the player in the directory
	Kind       entities.FlowKind
	Amount     int64
}

// Service validates events and applies them to the ledger
type Service struct {
	store     Store
	players   directory.Registry
	maxAmount int64
	logger    *logging.Logger
	observer  Observer
}

// Option configures a Service
type Option func(*Service)

// WithMaxAmount rejects single events above max
func WithMaxAmount(max int64) Option {
	return func(s *Service) {
		if max > 0 {
			s.maxAmount = max
		}
	}
}

// WithDirectory registers named players as events arrive
func WithDirectory(players directory.Registry) Option {
	return func(s *Service) { s.players = players }
}

// WithObserver reports events to o
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithLogger sets the logger
func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// NewService creates a new ingestion service
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		maxAmount: DefaultMaxAmount,
		logger:    logging.Default,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("ingest")
	return s
}

// RecordSpent records scrap a player put into a gambling machine
func (s *Service) RecordSpent(ctx context.Context, playerID string, amount int64) error {
	_, err := s.Record(ctx, Event{PlayerID: playerID, Kind: entities.FlowSpent, Amount: amount})
	return err
}

// RecordLost records scrap a player lost
func (s *Service) RecordLost(ctx context.Context, playerID string, amount int64) error {
	_, err := s.Record(ctx, Event{PlayerID: playerID, Kind: entities.FlowLost, Amount: amount})
	return err
}

// RecordEarned records scrap a player won
func (s *Service) RecordEarned(ctx context.Context, playerID string, amount int64) error {
	_, err := s.Record(ctx, Event{PlayerID: playerID, Kind: entities.FlowEarned, Amount: amount})
	return err
}

// Record validates ev, applies it and runs the flush policy. Only validation
// errors are returned; a failed flush is logged and the change stays in memory.
func (s *Service) Record(ctx context.Context, ev Event) (entities.PlayerStats, error) {
	ev.PlayerID = strings.TrimSpace(ev.PlayerID)
	if err := s.validate(ev); err != nil {
		if s.observer != nil {
			s.observer.EventRejected(ev.Kind)
		}
		return entities.PlayerStats{}, err
	}

	if s.players != nil && ev.PlayerName != "" {
		s.players.Register(directory.Player{ID: ev.PlayerID, Name: ev.PlayerName})
	}

	updated := s.store.Ledger().Add(ev.PlayerID, ev.Kind, ev.Amount)
	if s.observer != nil {
		s.observer.EventRecorded(ev.Kind, ev.Amount)
	}

	if err := s.store.Mutated(ctx); err != nil {
		s.logger.LogError(err)
	}
	return updated, nil
}

func (s *Service) validate(ev Event) error {
	if ev.PlayerID == "" {
		return types.NewStatsError(types.ErrValidation, "player id is required")
	}
	switch ev.Kind {
	case entities.FlowSpent, entities.FlowLost, entities.FlowEarned:
	default:
		return types.NewStatsError(types.ErrValidation, fmt.Sprintf("unknown flow kind %q", ev.Kind))
	}
	if ev.Amount < 0 {
		return types.NewStatsError(types.ErrValidation, fmt.Sprintf("amount must not be negative, got %d", ev.Amount))
	}
	if ev.Amount > s.maxAmount {
		return types.NewStatsError(types.ErrValidation, fmt.Sprintf("amount %d exceeds the limit of %d", ev.Amount, s.maxAmount))
	}
	return nil
}
