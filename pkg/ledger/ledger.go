// Package ledger holds the in-memory map of player ids to gambling counters.
package ledger

import (
	"sort"
	"sync"

	"github.com/fadedpez/scrapstats/pkg/entities"
)

// Entry pairs a player id with that player's counters
type Entry struct {
	PlayerID string
	Stats    entities.PlayerStats
}

// Snapshot is a self-consistent copy of the ledger taken under its lock
type Snapshot struct {
	// Entries in insertion order
	Entries []Entry
	// Removed lists ids deleted since the last acknowledged flush
	Removed []string
	// Version is the ledger version the snapshot was taken at
	Version uint64
}

type record struct {
	stats entities.PlayerStats
	seq   uint64
}

// Ledger is the authoritative in-memory copy of every player's counters.
// All methods are safe for concurrent use.
type Ledger struct {
	mu      sync.RWMutex
	players map[string]*record
	removed map[string]struct{}
	nextSeq uint64
	version uint64
}

// New creates an empty ledger
func New() *Ledger {
	return &Ledger{
		players: make(map[string]*record),
		removed: make(map[string]struct{}),
	}
}

// GetOrCreate returns the player's counters, inserting a zero entry when the id is unknown
func (l *Ledger) GetOrCreate(playerID string) entities.PlayerStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.getOrCreate(playerID).stats
}

// Get returns the player's counters without creating an entry
func (l *Ledger) Get(playerID string) (entities.PlayerStats, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, ok := l.players[playerID]
	if !ok {
		return entities.PlayerStats{}, false
	}
	return rec.stats, true
}

// Add applies amount to the player's kind counter and returns the updated counters
func (l *Ledger) Add(playerID string, kind entities.FlowKind, amount int64) entities.PlayerStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec := l.getOrCreate(playerID)
	rec.stats.Add(kind, amount)
	l.version++
	return rec.stats
}

// Remove deletes the player's entry and reports whether one existed
func (l *Ledger) Remove(playerID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.players[playerID]; !ok {
		return false
	}
	delete(l.players, playerID)
	l.removed[playerID] = struct{}{}
	l.version++
	return true
}

// TopN returns up to n entries ordered by ScrapEarned, highest first.
// Equal earnings keep insertion order.
func (l *Ledger) TopN(n int) []Entry {
	if n <= 0 {
		return []Entry{}
	}

	l.mu.RLock()
	ordered := l.sortedLocked()
	l.mu.RUnlock()

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Stats.ScrapEarned > ordered[j].Stats.ScrapEarned
	})

	if len(ordered) > n {
		ordered = ordered[:n]
	}
	return ordered
}

// Len returns the number of players in the ledger
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.players)
}

// Version changes every time the ledger is mutated
func (l *Ledger) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.version
}

// Snapshot copies the full ledger state
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	removed := make([]string, 0, len(l.removed))
	for id := range l.removed {
		removed = append(removed, id)
	}
	sort.Strings(removed)

	return Snapshot{
		Entries: l.sortedLocked(),
		Removed: removed,
		Version: l.version,
	}
}

// Replace discards the current state and loads entries in the given order
func (l *Ledger) Replace(entries []Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.players = make(map[string]*record, len(entries))
	l.removed = make(map[string]struct{})
	l.nextSeq = 0
	for _, e := range entries {
		if rec, ok := l.players[e.PlayerID]; ok {
			rec.stats = e.Stats
			continue
		}
		l.players[e.PlayerID] = &record{stats: e.Stats, seq: l.nextSeq}
		l.nextSeq++
	}
	l.version++
}

// Merge loads entries underneath the current state. Loaded entries come
// first in the given order, then ids only known in memory. Counters of an id
// present in both are summed and ids removed in memory stay removed.
func (l *Ledger) Merge(entries []Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.sortedLocked()
	players := make(map[string]*record, len(entries)+len(current))
	var seq uint64
	for _, e := range entries {
		if _, removed := l.removed[e.PlayerID]; removed {
			continue
		}
		if rec, ok := players[e.PlayerID]; ok {
			rec.stats = e.Stats
			continue
		}
		players[e.PlayerID] = &record{stats: e.Stats, seq: seq}
		seq++
	}
	for _, e := range current {
		if rec, ok := players[e.PlayerID]; ok {
			rec.stats.Merge(e.Stats)
			continue
		}
		players[e.PlayerID] = &record{stats: e.Stats, seq: seq}
		seq++
	}

	l.players = players
	l.nextSeq = seq
	l.version++
}

// Acknowledge forgets pending deletions that have been persisted
func (l *Ledger) Acknowledge(removed []string) {
	if len(removed) == 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range removed {
		delete(l.removed, id)
	}
}

func (l *Ledger) getOrCreate(playerID string) *record {
	rec, ok := l.players[playerID]
	if !ok {
		rec = &record{seq: l.nextSeq}
		l.nextSeq++
		l.players[playerID] = rec
		l.version++
	}
	return rec
}

// sortedLocked returns entries in insertion order. Callers hold l.mu.
func (l *Ledger) sortedLocked() []Entry {
	type seqEntry struct {
		Entry
		seq uint64
	}
	tmp := make([]seqEntry, 0, len(l.players))
	for id, rec := range l.players {
		tmp = append(tmp, seqEntry{Entry: Entry{PlayerID: id, Stats: rec.stats}, seq: rec.seq})
	}
	sort.Slice(tmp, func(i, j int) bool { return tmp[i].seq < tmp[j].seq })

	entries := make([]Entry, len(tmp))
	for i, e := range tmp {
		entries[i] = e.Entry
	}
	return entries
}
