package bot

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/quorkbot/quork/internal/discord"
)

// handleInteraction is the single entry point for every interaction type
// the gateway delivers.
func (b *Bot) handleInteraction(i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.routeCommand(i)
	case discordgo.InteractionMessageComponent:
		if b.pager.HandleComponent(b.rest, i) {
			return
		}
		slog.Warn("unhandled component interaction", "custom_id", i.MessageComponentData().CustomID)
	case discordgo.InteractionModalSubmit:
		b.routeModal(i)
	}
}

func (b *Bot) routeCommand(i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	slog.Info("command received",
		"command", data.Name,
		"guild_id", i.GuildID,
		"user_id", interactionUserID(i),
	)

	if i.GuildID == "" {
		b.replyEphemeral(i, "This bot only works inside a server.")
		return
	}

	switch data.Name {
	case "quote":
		if !b.requireDatabase(i) {
			return
		}
		switch data.Options[0].Name {
		case "add":
			b.handleQuoteAdd(i)
		case "random":
			b.handleQuoteRandom(i)
		case "find":
			b.handleQuoteFind(i)
		case "edit":
			b.handleQuoteEdit(i)
		case "remove":
			b.handleQuoteRemove(i)
		}
	case "qperms":
		if !b.requireDatabase(i) {
			return
		}
		b.handlePermissions(i)
	case "untimeout":
		b.handleUntimeout(i)
	case "nickname":
		b.handleNickname(i)
	case "quorkhelp":
		b.handleHelp(i)
	default:
		slog.Warn("unknown command", "command", data.Name)
	}
}

func (b *Bot) routeModal(i *discordgo.InteractionCreate) {
	customID := i.ModalSubmitData().CustomID
	if strings.HasPrefix(customID, editModalPrefix+":") {
		b.handleEditModalSubmit(i)
		return
	}
	slog.Warn("unhandled modal submission", "custom_id", customID)
}

// requireDatabase rejects database-backed commands while running degraded
func (b *Bot) requireDatabase(i *discordgo.InteractionCreate) bool {
	if b.quotes == nil {
		b.replyEphemeral(i, "Quote features are temporarily disabled: the database is unavailable.")
		return false
	}
	return true
}

// interactionUserID returns the acting user's ID for both guild and DM
// interactions.
func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func parseSnowflake(id string) int64 {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// subOptions flattens a subcommand's options into a name-keyed map
func subOptions(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	if len(options) == 1 && options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		options = options[0].Options
	}
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func optString(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := opts[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func optBool(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) bool {
	if opt, ok := opts[name]; ok {
		return opt.BoolValue()
	}
	return false
}

// optUserID reads a user option without a State lookup
func optUserID(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := opts[name]; ok {
		if id, ok := opt.Value.(string); ok {
			return id
		}
	}
	return ""
}

// replyEphemeral answers an interaction with a message only the actor sees
func (b *Bot) replyEphemeral(i *discordgo.InteractionCreate, content string) {
	err := b.rest.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		slog.Error("failed to send ephemeral reply", "error", err)
	}
}

// replyTransient sends an ephemeral confirmation that deletes itself after
// the configured delay.
func (b *Bot) replyTransient(i *discordgo.InteractionCreate, content string) {
	b.replyEphemeral(i, content)
	discord.ScheduleResponseDelete(b.rest, i.Interaction, b.cfg.Ephemeral.DeleteDelay)
}

// replyEmbed answers an interaction with a public embed
func (b *Bot) replyEmbed(i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	err := b.rest.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
	if err != nil {
		slog.Error("failed to send embed reply", "error", err)
	}
}
