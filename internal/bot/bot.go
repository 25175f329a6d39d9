package bot

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/scrapstats/internal/commands"
	"github.com/fadedpez/scrapstats/internal/config"
	"github.com/fadedpez/scrapstats/internal/discord"
	"github.com/fadedpez/scrapstats/internal/logging"
)

// Bot represents the Discord bot and its dependencies
type Bot struct {
	session  discord.SessionHandler
	router   *commands.Router
	appID    string
	guildID  string
	admins   map[string]bool
	cleanup  bool
	logger   *logging.Logger
	commands []*discordgo.ApplicationCommand

	removeHandler func()
	shutdownWg    sync.WaitGroup
}

// New creates a new instance of Bot. Nothing touches Discord until Start.
func New(cfg *config.Config, session discord.SessionHandler, router *commands.Router, logger *logging.Logger) *Bot {
	if logger == nil {
		logger = logging.Default
	}

	admins := make(map[string]bool, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = true
	}

	return &Bot{
		session:  session,
		router:   router,
		appID:    cfg.AppID,
		guildID:  cfg.GuildID,
		admins:   admins,
		cleanup:  cfg.IsDevelopment(),
		logger:   logger.Named("bot"),
		commands: make([]*discordgo.ApplicationCommand, 0),
	}
}

// Start initializes the bot and connects to Discord
func (b *Bot) Start() error {
	b.removeHandler = b.session.AddHandler(b.handleInteractionCreate)

	// Open connection to Discord
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	// Register commands
	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	b.logger.Info("registered %d slash commands", len(b.commands))
	return nil
}

// Shutdown gracefully shuts down the bot
func (b *Bot) Shutdown() {
	// Cleanup commands if in development
	if b.cleanup {
		if err := b.cleanupCommands(); err != nil {
			b.logger.Warn("failed to clean up commands: %v", err)
		}
	}

	if b.removeHandler != nil {
		b.removeHandler()
	}

	// Close Discord session
	if err := b.session.Close(); err != nil {
		b.logger.Error("error closing Discord session: %v", err)
	}

	// Wait for any in-flight interactions
	b.shutdownWg.Wait()
}

func (b *Bot) registerCommands() error {
	for _, cmd := range Commands {
		created, err := b.session.ApplicationCommandCreate(b.appID, b.guildID, cmd)
		if err != nil {
			return fmt.Errorf("cannot create %q command: %w", cmd.Name, err)
		}
		b.commands = append(b.commands, created)
	}
	return nil
}

func (b *Bot) cleanupCommands() error {
	registered, err := b.session.ApplicationCommands(b.appID, b.guildID)
	if err != nil {
		return fmt.Errorf("cannot list commands: %w", err)
	}

	for _, cmd := range registered {
		if err := b.session.ApplicationCommandDelete(b.appID, b.guildID, cmd.ID); err != nil {
			return fmt.Errorf("cannot delete %q command: %w", cmd.Name, err)
		}
	}
	b.commands = b.commands[:0]
	return nil
}

// handleInteractionCreate handles Discord interaction events
func (b *Bot) handleInteractionCreate(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	b.shutdownWg.Add(1)
	defer b.shutdownWg.Done()

	if i.Type == discordgo.InteractionApplicationCommand {
		b.handleSlashCommand(b.session, i)
	}
}

// Additional handler methods are defined in handlers.go
