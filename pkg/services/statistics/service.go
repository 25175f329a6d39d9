package statistics

import (
	"context"
	"strings"

	"github.com/fadedpez/scrapstats/internal/logging"
	"github.com/fadedpez/scrapstats/internal/types"
	"github.com/fadedpez/scrapstats/pkg/directory"
	"github.com/fadedpez/scrapstats/pkg/entities"
	"github.com/fadedpez/scrapstats/pkg/ledger"
)

// LeaderboardSize is how many players topstats shows
const LeaderboardSize = 10

// Store is the part of stats.Store the query service needs
type Store interface {
	Ledger() *ledger.Ledger
	Flush(ctx context.Context) error
}

// Service answers statistics queries from the ledger
type Service struct {
	store   Store
	players directory.Directory
	logger  *logging.Logger
}

// NewService creates a new statistics service
func NewService(store Store, players directory.Directory, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default
	}
	return &Service{
		store:   store,
		players: players,
		logger:  logger.Named("statistics"),
	}
}

// RankedPlayer is one leaderboard line
type RankedPlayer struct {
	Rank   int                  `json:"rank"`
	Player directory.Player     `json:"player"`
	Stats  entities.PlayerStats `json:"stats"`
}

// MyStats returns the caller's counters, creating a zero entry on first use
func (s *Service) MyStats(ctx context.Context, playerID string) (entities.PlayerStats, error) {
	if strings.TrimSpace(playerID) == "" {
		return entities.PlayerStats{}, types.NewStatsError(types.ErrInvalidArgument, "player id is required")
	}
	return s.store.Ledger().GetOrCreate(playerID), nil
}

// LookupStats returns a player's counters without creating an entry; unknown
// ids read as zero. Surfaces open to anyone use it instead of MyStats.
func (s *Service) LookupStats(ctx context.Context, playerID string) (directory.Player, entities.PlayerStats, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return directory.Player{}, entities.PlayerStats{}, types.NewStatsError(types.ErrInvalidArgument, "player id is required")
	}

	player, ok := s.players.FindByID(playerID)
	if !ok {
		player = directory.Player{ID: playerID}
	}
	stats, _ := s.store.Ledger().Get(playerID)
	return player, stats, nil
}

// SearchStats resolves text through the player directory and returns that player's counters
func (s *Service) SearchStats(ctx context.Context, text string) (directory.Player, entities.PlayerStats, error) {
	if strings.TrimSpace(text) == "" {
		return directory.Player{}, entities.PlayerStats{}, types.NewStatsError(types.ErrInvalidArgument, "a player name or id is required")
	}

	player, ok := s.players.FindByNameOrID(text)
	if !ok {
		return directory.Player{}, entities.PlayerStats{}, types.NewStatsError(types.ErrNotFound, "Player not found.")
	}
	return player, s.store.Ledger().GetOrCreate(player.ID), nil
}

// TopStats returns the leaderboard ordered by scrap earned.
// Ids the directory cannot resolve are left out and ranks close the gap.
func (s *Service) TopStats(ctx context.Context) []RankedPlayer {
	top := s.store.Ledger().TopN(LeaderboardSize)

	ranked := make([]RankedPlayer, 0, len(top))
	for _, e := range top {
		player, ok := s.players.FindByID(e.PlayerID)
		if !ok {
			s.logger.Debug("Skipping unresolved player %s", e.PlayerID)
			continue
		}
		ranked = append(ranked, RankedPlayer{
			Rank:   len(ranked) + 1,
			Player: player,
			Stats:  e.Stats,
		})
	}
	return ranked
}

// DeleteStats removes a player's entry and persists the removal at once.
// The bool reports whether an entry existed; the error is the flush failure, if any.
func (s *Service) DeleteStats(ctx context.Context, playerID string) (bool, error) {
	if !s.store.Ledger().Remove(playerID) {
		return false, nil
	}

	s.logger.Info("Deleted stats for %s", playerID)
	if err := s.store.Flush(ctx); err != nil {
		s.logger.LogError(err)
		return true, err
	}
	return true, nil
}
