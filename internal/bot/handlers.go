package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/scrapstats/internal/commands"
	"github.com/fadedpez/scrapstats/internal/discord"
)

// interactionTimeout bounds a single command, Discord drops replies after 3s
const interactionTimeout = 2500 * time.Millisecond

// handleSlashCommand routes a slash command through the command router
func (b *Bot) handleSlashCommand(s discord.SessionHandler, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	reply := b.router.Execute(ctx, b.caller(i), data.Name, optionArgs(data.Options))

	resp := discord.NewResponse(reply.Text)
	if reply.Private {
		resp = discord.NewEphemeralResponse(reply.Text)
	}
	if err := discord.SendResponse(s, i, resp); err != nil {
		b.logger.Error("failed to respond to /%s: %v", data.Name, err)
	}
}

// caller identifies the member or user behind an interaction. The Discord
// user id is an account, the router maps it to a player through its link.
func (b *Bot) caller(i *discordgo.InteractionCreate) commands.Caller {
	var (
		user  *discordgo.User
		nick  string
		perms int64
	)
	switch {
	case i.Member != nil:
		user = i.Member.User
		nick = i.Member.Nick
		perms = i.Member.Permissions
	case i.User != nil:
		user = i.User
	}
	if user == nil {
		return commands.Caller{}
	}

	name := nick
	if name == "" {
		name = user.GlobalName
	}
	if name == "" {
		name = user.Username
	}

	return commands.Caller{
		Account: user.ID,
		Name:    name,
		Admin:   b.admins[user.ID] || perms&discordgo.PermissionAdministrator != 0,
	}
}

// optionArgs flattens slash command options into positional arguments
func optionArgs(options []*discordgo.ApplicationCommandInteractionDataOption) []string {
	args := make([]string, 0, len(options))
	for _, opt := range options {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionString:
			args = append(args, opt.StringValue())
		default:
			args = append(args, fmt.Sprint(opt.Value))
		}
	}
	return args
}
