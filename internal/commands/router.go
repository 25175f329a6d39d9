// Package commands turns plain-text chat commands into plain-text replies.
package commands

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/fadedpez/scrapstats/internal/logging"
	"github.com/fadedpez/scrapstats/internal/types"
	"github.com/fadedpez/scrapstats/pkg/directory"
	"github.com/fadedpez/scrapstats/pkg/entities"
	"github.com/fadedpez/scrapstats/pkg/services/statistics"
)

// Command names
const (
	MyStats     = "mystats"
	TopStats    = "topstats"
	SearchStats = "searchstats"
	Help        = "help"
	DelData     = "deldata"
	Link        = "link"
)

var steamIDPattern = regexp.MustCompile(`^7656119\d{10}$`)

// Queries is the statistics surface the router calls
type Queries interface {
	MyStats(ctx context.Context, playerID string) (entities.PlayerStats, error)
	SearchStats(ctx context.Context, text string) (directory.Player, entities.PlayerStats, error)
	TopStats(ctx context.Context) []statistics.RankedPlayer
	DeleteStats(ctx context.Context, playerID string) (bool, error)
}

// Counter is told about every executed command
type Counter interface {
	CommandExecuted(command string)
}

// Caller identifies who issued a command. Game chat callers carry their
// player ID. Discord callers carry their Account and get an ID from its link.
type Caller struct {
	ID      string
	Account string
	Name    string
	Admin   bool
}

func (c Caller) label() string {
	switch {
	case c.Name != "":
		return c.Name
	case c.Account != "":
		return c.Account
	}
	return c.ID
}

// Reply is the text sent back. Private replies are shown only to the caller.
type Reply struct {
	Text    string
	Private bool
}

type handler struct {
	usage     string
	summary   string
	adminOnly bool
	run       func(ctx context.Context, caller Caller, args []string) Reply

	// accountOnly commands need a linkable chat account
	accountOnly bool
}

// Router dispatches commands to the statistics service
type Router struct {
	queries  Queries
	players  directory.Registry
	links    directory.Linker
	counter  Counter
	logger   *logging.Logger
	handlers map[string]handler
}

// Option configures a Router
type Option func(*Router)

// WithDirectory registers every caller so others can search for them
func WithDirectory(players directory.Registry) Option {
	return func(r *Router) { r.players = players }
}

// WithLinks resolves chat accounts to players and enables /link
func WithLinks(links directory.Linker) Option {
	return func(r *Router) { r.links = links }
}

// WithCounter counts executed commands
func WithCounter(c Counter) Option {
	return func(r *Router) { r.counter = c }
}

// WithLogger sets the logger
func WithLogger(logger *logging.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// NewRouter creates a router over queries
func NewRouter(queries Queries, opts ...Option) *Router {
	r := &Router{
		queries: queries,
		logger:  logging.Default,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("commands")

	r.handlers = map[string]handler{
		MyStats: {
			usage:   "/mystats",
			summary: "Show your gambling stats",
			run:     r.myStats,
		},
		TopStats: {
			usage:   "/topstats",
			summary: "Show the top 10 gamblers by scrap earned",
			run:     r.topStats,
		},
		SearchStats: {
			usage:   "/searchstats <PlayerName or Steam64ID>",
			summary: "Show another player's gambling stats",
			run:     r.searchStats,
		},
		Help: {
			usage:   "/help",
			summary: "List the available commands",
			run:     r.help,
		},
		DelData: {
			usage:     "/deldata <Steam64ID>",
			summary:   "Delete a player's gambling stats",
			adminOnly: true,
			run:       r.delData,
		},
		Link: {
			usage:       "/link <Steam64ID>",
			summary:     "Link your account to your Steam64ID for /mystats",
			accountOnly: true,
			run:         r.link,
		},
	}
	return r
}

// Names returns every command name, sorted
func (r *Router) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summary returns the one-line description of a command
func (r *Router) Summary(name string) string {
	return r.handlers[name].summary
}

// ExecuteLine parses a raw chat line such as "/searchstats Rusty"
func (r *Router) ExecuteLine(ctx context.Context, caller Caller, line string) Reply {
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return r.Execute(ctx, caller, Help, nil)
	}
	return r.Execute(ctx, caller, strings.TrimPrefix(fields[0], "/"), fields[1:])
}

// Execute runs one command
func (r *Router) Execute(ctx context.Context, caller Caller, name string, args []string) Reply {
	name = strings.ToLower(name)

	if caller.Account != "" {
		// Chat account names are not player names, so only the link is used
		caller.ID = ""
		if r.links != nil {
			caller.ID, _ = r.links.LinkedPlayer(caller.Account)
		}
	} else if r.players != nil && caller.ID != "" {
		r.players.Register(directory.Player{ID: caller.ID, Name: caller.Name})
	}

	h, ok := r.handlers[name]
	if !ok {
		return Reply{Text: fmt.Sprintf("Unknown command %q. Type /help for a list of commands.", name), Private: true}
	}
	if h.adminOnly && !caller.Admin {
		r.logger.Warn("%s tried to run %s without permission", caller.label(), name)
		return Reply{Text: "You do not have permission to use this command.", Private: true}
	}
	if h.accountOnly && !r.canLink(caller) {
		return Reply{Text: "This command is only available from Discord.", Private: true}
	}

	if r.counter != nil {
		r.counter.CommandExecuted(name)
	}
	return h.run(ctx, caller, args)
}

func (r *Router) myStats(ctx context.Context, caller Caller, args []string) Reply {
	if caller.ID == "" {
		return Reply{Text: "Your account is not linked to a Steam64ID yet. Use /link <Steam64ID> first.", Private: true}
	}
	stats, err := r.queries.MyStats(ctx, caller.ID)
	if err != nil {
		return r.errorReply(err)
	}
	return Reply{Text: fmt.Sprintf("You have spent %d scrap, lost %d scrap, and earned %d scrap through gambling.\n%s",
		stats.ScrapSpent, stats.ScrapLost, stats.ScrapEarned, profitLine(stats))}
}

func (r *Router) topStats(ctx context.Context, caller Caller, args []string) Reply {
	top := r.queries.TopStats(ctx)
	if len(top) == 0 {
		return Reply{Text: "No gambling stats have been recorded yet."}
	}

	lines := make([]string, 0, len(top))
	for _, p := range top {
		lines = append(lines, fmt.Sprintf("%d. %s: Spent %d, Lost %d, Earned %d",
			p.Rank, p.Player.DisplayName(), p.Stats.ScrapSpent, p.Stats.ScrapLost, p.Stats.ScrapEarned))
	}
	return Reply{Text: strings.Join(lines, "\n")}
}

func (r *Router) searchStats(ctx context.Context, caller Caller, args []string) Reply {
	if len(args) == 0 {
		return Reply{Text: "Usage: " + r.handlers[SearchStats].usage, Private: true}
	}

	player, stats, err := r.queries.SearchStats(ctx, strings.Join(args, " "))
	if err != nil {
		return r.errorReply(err)
	}
	return Reply{Text: fmt.Sprintf("%s has spent %d scrap, lost %d scrap, and earned %d scrap through gambling.\n%s",
		player.DisplayName(), stats.ScrapSpent, stats.ScrapLost, stats.ScrapEarned, profitLine(stats))}
}

func (r *Router) help(ctx context.Context, caller Caller, args []string) Reply {
	var b strings.Builder
	b.WriteString("Gambling stats commands:")
	for _, name := range r.Names() {
		h := r.handlers[name]
		if (h.adminOnly && !caller.Admin) || (h.accountOnly && !r.canLink(caller)) {
			continue
		}
		fmt.Fprintf(&b, "\n%s - %s", h.usage, h.summary)
	}
	return Reply{Text: b.String(), Private: true}
}

func (r *Router) delData(ctx context.Context, caller Caller, args []string) Reply {
	if len(args) == 0 {
		return Reply{Text: "Usage: " + r.handlers[DelData].usage, Private: true}
	}
	id := args[0]

	removed, err := r.queries.DeleteStats(ctx, id)
	switch {
	case !removed:
		return Reply{Text: fmt.Sprintf("No gambling stats found for %s.", id), Private: true}
	case err != nil:
		return Reply{Text: fmt.Sprintf("Deleted gambling stats for %s, but saving failed. The deletion will be saved on the next flush.", id), Private: true}
	}
	r.logger.Info("%s deleted stats for %s", caller.label(), id)
	return Reply{Text: fmt.Sprintf("Deleted gambling stats for %s.", id), Private: true}
}

func (r *Router) link(ctx context.Context, caller Caller, args []string) Reply {
	if len(args) == 0 {
		return Reply{Text: "Usage: " + r.handlers[Link].usage, Private: true}
	}
	id := strings.TrimSpace(args[0])
	if !steamIDPattern.MatchString(id) {
		return Reply{Text: fmt.Sprintf("%q is not a Steam64ID.", id), Private: true}
	}

	r.links.Link(caller.Account, id)
	r.logger.Info("%s linked account %s to %s", caller.label(), caller.Account, id)
	return Reply{Text: fmt.Sprintf("Linked your account to %s. /mystats now shows that player's stats.", id), Private: true}
}

func (r *Router) canLink(caller Caller) bool {
	return r.links != nil && caller.Account != ""
}

func (r *Router) errorReply(err error) Reply {
	var statsErr *types.StatsError
	if types.As(err, &statsErr) {
		switch statsErr.Code {
		case types.ErrNotFound:
			return Reply{Text: "Player not found.", Private: true}
		case types.ErrInvalidArgument, types.ErrPermissionDenied:
			return Reply{Text: statsErr.Message, Private: true}
		}
	}
	r.logger.LogError(err)
	return Reply{Text: "Something went wrong, please try again later.", Private: true}
}

func profitLine(stats entities.PlayerStats) string {
	pl := stats.ProfitLoss()
	if pl >= 0 {
		return fmt.Sprintf("Net profit: %d scrap.", pl)
	}
	return fmt.Sprintf("Net loss: %d scrap.", -pl)
}
