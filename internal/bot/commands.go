package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/scrapstats/internal/commands"
)

// Commands defines all slash commands for the bot
var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        commands.MyStats,
		Description: "Show your gambling stats",
	},
	{
		Name:        commands.TopStats,
		Description: "Show the top 10 gamblers by scrap earned",
	},
	{
		Name:        commands.SearchStats,
		Description: "Show another player's gambling stats",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "player",
				Description: "Player name or Steam64 ID",
				Required:    true,
			},
		},
	},
	{
		Name:        commands.Help,
		Description: "List the gambling stats commands",
	},
	{
		Name:        commands.DelData,
		Description: "Delete a player's gambling stats (admin only)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "steam_id",
				Description: "Steam64 ID of the player",
				Required:    true,
			},
		},
	},
	{
		Name:        commands.Link,
		Description: "Link your Discord account to your Steam64 ID",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "steam_id",
				Description: "Your Steam64 ID",
				Required:    true,
			},
		},
	},
}
