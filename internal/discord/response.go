package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/fadedpez/scrapstats/internal/types"
)

// ResponseEmoji maps error codes to appropriate emojis
var ResponseEmoji = map[types.ErrorCode]string{
	types.ErrNotFound:           "🔍",
	types.ErrInvalidArgument:    "❗",
	types.ErrPermissionDenied:   "🚫",
	types.ErrValidation:         "⚠️",
	types.ErrPersistenceConnect: "💾",
	types.ErrCorruptSnapshot:    "💾",
	types.ErrInternalError:      "💥",
}

// Response represents a Discord interaction response
type Response struct {
	Content   string
	Ephemeral bool
}

// NewResponse creates a new Response
func NewResponse(content string) *Response {
	return &Response{
		Content:   content,
		Ephemeral: false,
	}
}

// NewEphemeralResponse creates a new ephemeral Response (only visible to the user)
func NewEphemeralResponse(content string) *Response {
	return &Response{
		Content:   content,
		Ephemeral: true,
	}
}

// NewErrorResponse creates a new error Response
func NewErrorResponse(err error) *Response {
	var statsErr *types.StatsError
	if types.As(err, &statsErr) {
		emoji := ResponseEmoji[statsErr.Code]
		if emoji == "" {
			emoji = "❌"
		}
		return NewEphemeralResponse(fmt.Sprintf("%s %s", emoji, statsErr.Message))
	}
	return NewEphemeralResponse(fmt.Sprintf("❌ An error occurred: %v", err))
}

// SendResponse sends a response to a Discord interaction
func SendResponse(s SessionHandler, i *discordgo.InteractionCreate, r *Response) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: truncate(r.Content),
			Flags:   getFlags(r.Ephemeral),
		},
	})
}

// SendErrorResponse sends an error response
func SendErrorResponse(s SessionHandler, i *discordgo.InteractionCreate, err error) error {
	return SendResponse(s, i, NewErrorResponse(err))
}

// Helper functions

// maxContentLength is Discord's message content limit
const maxContentLength = 2000

func truncate(content string) string {
	runes := []rune(content)
	if len(runes) <= maxContentLength {
		return content
	}
	return string(runes[:maxContentLength-1]) + "…"
}

func getFlags(ephemeral bool) discordgo.MessageFlags {
	if ephemeral {
		return discordgo.MessageFlagsEphemeral
	}
	return 0
}
