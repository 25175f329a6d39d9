package entities

import (
	"fmt"
	"math"
	"strings"
)

// FlowKind identifies which counter a currency-flow event applies to
type FlowKind string

const (
	FlowSpent  FlowKind = "spent"
	FlowLost   FlowKind = "lost"
	FlowEarned FlowKind = "earned"
)

// ParseFlowKind converts a user-supplied kind into a FlowKind
func ParseFlowKind(s string) (FlowKind, error) {
	switch FlowKind(strings.ToLower(strings.TrimSpace(s))) {
	case FlowSpent:
		return FlowSpent, nil
	case FlowLost:
		return FlowLost, nil
	case FlowEarned:
		return FlowEarned, nil
	}
	return "", fmt.Errorf("unknown flow kind %q", s)
}

// PlayerStats holds the cumulative gambling counters for one player.
// The JSON field names match the existing GamblingStats data files.
type PlayerStats struct {
	ScrapSpent  int64 `json:"ScrapSpent"`
	ScrapLost   int64 `json:"ScrapLost"`
	ScrapEarned int64 `json:"ScrapEarned"`
}

// ProfitLoss is earned minus the net amount put at risk (spent minus lost).
// The result saturates at ±math.MaxInt64 so it can always be negated.
func (s PlayerStats) ProfitLoss() int64 {
	pl := saturatingSub(s.ScrapEarned, saturatingSub(s.ScrapSpent, s.ScrapLost))
	if pl == math.MinInt64 {
		return -math.MaxInt64
	}
	return pl
}

// Add increases the counter for kind by amount, saturating at math.MaxInt64
func (s *PlayerStats) Add(kind FlowKind, amount int64) {
	switch kind {
	case FlowSpent:
		s.ScrapSpent = saturatingAdd(s.ScrapSpent, amount)
	case FlowLost:
		s.ScrapLost = saturatingAdd(s.ScrapLost, amount)
	case FlowEarned:
		s.ScrapEarned = saturatingAdd(s.ScrapEarned, amount)
	}
}

// Merge adds other's counters to s, saturating at the int64 limits
func (s *PlayerStats) Merge(other PlayerStats) {
	s.ScrapSpent = saturatingAdd(s.ScrapSpent, other.ScrapSpent)
	s.ScrapLost = saturatingAdd(s.ScrapLost, other.ScrapLost)
	s.ScrapEarned = saturatingAdd(s.ScrapEarned, other.ScrapEarned)
}

// IsZero reports whether no scrap has been recorded
func (s PlayerStats) IsZero() bool {
	return s.ScrapSpent == 0 && s.ScrapLost == 0 && s.ScrapEarned == 0
}

func saturatingAdd(a, b int64) int64 {
	switch {
	case b > 0 && a > math.MaxInt64-b:
		return math.MaxInt64
	case b < 0 && a < math.MinInt64-b:
		return math.MinInt64
	}
	return a + b
}

func saturatingSub(a, b int64) int64 {
	switch {
	case b > 0 && a < math.MinInt64+b:
		return math.MinInt64
	case b < 0 && a > math.MaxInt64+b:
		return math.MaxInt64
	}
	return a - b
}
