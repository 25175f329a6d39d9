// Package directory resolves player ids and display names.
package directory

import (
	"sort"
	"strings"
	"sync"
)

// Player is a known player identity
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// DisplayName falls back to the id when no name is known
func (p Player) DisplayName() string {
	if p.Name == "" {
		return p.ID
	}
	return p.Name
}

//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_directory
type Directory interface {
	FindByID(id string) (Player, bool)
	FindByNameOrID(text string) (Player, bool)
}

// Registry is a Directory that learns players as they are seen
type Registry interface {
	Directory
	Register(p Player)
}

// Linker maps chat accounts (Discord user ids) to the player id they play as
type Linker interface {
	Link(account, playerID string)
	LinkedPlayer(account string) (string, bool)
}

// Memory is an in-memory Registry and Linker
type Memory struct {
	mu      sync.RWMutex
	players map[string]Player
	links   map[string]string
	// version changes whenever players or links change
	version uint64
}

var (
	_ Registry = (*Memory)(nil)
	_ Linker   = (*Memory)(nil)
)

// NewMemory creates an empty directory
func NewMemory() *Memory {
	return &Memory{
		players: make(map[string]Player),
		links:   make(map[string]string),
	}
}

// Register adds a player or updates their name. An empty name keeps the known one.
func (m *Memory) Register(p Player) {
	if p.ID == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.players[p.ID]
	if ok && p.Name == "" {
		p.Name = existing.Name
	}
	if ok && existing == p {
		return
	}
	m.players[p.ID] = p
	m.version++
}

// AddIDs makes ids resolvable by exact id without touching known names
func (m *Memory) AddIDs(ids []string) {
	for _, id := range ids {
		m.Register(Player{ID: id})
	}
}

// Link points account at playerID, replacing any earlier link
func (m *Memory) Link(account, playerID string) {
	if account == "" || playerID == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.links[account] == playerID {
		return
	}
	m.links[account] = playerID
	m.version++
}

// LinkedPlayer returns the player id account is linked to
func (m *Memory) LinkedPlayer(account string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.links[account]
	return id, ok
}

// FindByID returns the player with the exact id
func (m *Memory) FindByID(id string) (Player, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.players[id]
	return p, ok
}

// FindByNameOrID matches, in order, an exact id, a case-insensitive exact
// name, then a case-insensitive name fragment. A fragment shared by more
// than one player matches nobody.
func (m *Memory) FindByNameOrID(text string) (Player, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Player{}, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if p, ok := m.players[text]; ok {
		return p, true
	}

	needle := strings.ToLower(text)
	var exact, partial []Player
	for _, p := range m.players {
		name := strings.ToLower(p.Name)
		if name == "" {
			continue
		}
		if name == needle {
			exact = append(exact, p)
		} else if strings.Contains(name, needle) {
			partial = append(partial, p)
		}
	}

	switch {
	case len(exact) > 0:
		// Several players can share a name; pick deterministically
		sort.Slice(exact, func(i, j int) bool { return exact[i].ID < exact[j].ID })
		return exact[0], true
	case len(partial) == 1:
		return partial[0], true
	}
	return Player{}, false
}

// Len returns the number of known players
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.players)
}

// Version changes every time a player or link is added or renamed
func (m *Memory) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.version
}

// Players returns every known player ordered by id
func (m *Memory) Players() []Player {
	m.mu.RLock()
	defer m.mu.RUnlock()

	players := make([]Player, 0, len(m.players))
	for _, p := range m.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	return players
}

// Links returns a copy of every account link
func (m *Memory) Links() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	links := make(map[string]string, len(m.links))
	for account, id := range m.links {
		links[account] = id
	}
	return links
}
