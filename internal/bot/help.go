package bot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/quorkbot/quork/internal/permissions"
	"github.com/quorkbot/quork/internal/quotes"
)

// helpEntry describes one command line in the help embed. Entries with a
// requirement are hidden from users who would only be refused.
type helpEntry struct {
	usage       string
	description string
	// requires hides the entry unless the actor holds any of the listed
	// permissions. adminOnly hides it from everyone off the allow-list.
	requires  []permissions.Permission
	adminOnly bool
}

var helpEntries = []helpEntry{
	{usage: "/quote add", description: "Save a new quote. React with 👍 or 👎 on a posted quote to vote."},
	{usage: "/quote random", description: "Post a random quote from this server."},
	{usage: "/quote find", description: "Search quotes by text, author, or context and post one."},
	{usage: "/quote edit", description: "Edit your own quotes through a selection menu. With the edit-all permission, anyone's."},
	{usage: "/quote remove", description: "Remove your own quotes through a selection menu. With the remove-all permission, anyone's."},
	{
		usage:       "/untimeout",
		description: "Lift a member's timeout.",
		requires:    []permissions.Permission{permissions.Untimeout},
	},
	{
		usage:       "/nickname",
		description: "Change a member's nickname.",
		requires:    []permissions.Permission{permissions.ChangeNickname},
	},
	{usage: "/qperms", description: "Grant, revoke, and inspect bot permissions.", adminOnly: true},
}

func (b *Bot) handleHelp(i *discordgo.InteractionCreate) {
	guildID := parseSnowflake(i.GuildID)
	actorID := parseSnowflake(interactionUserID(i))

	var lines []string
	for _, entry := range helpEntries {
		if b.helpEntryVisible(guildID, actorID, entry) {
			lines = append(lines, "**"+entry.usage+"** - "+entry.description)
		}
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Quork",
		Description: strings.Join(lines, "\n"),
		Color:       quotes.ColorCyan,
	}
	err := b.rest.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		slog.Error("failed to send help", "error", err)
	}
}

func (b *Bot) helpEntryVisible(guildID, actorID int64, entry helpEntry) bool {
	if !entry.adminOnly && len(entry.requires) == 0 {
		return true
	}
	// Without a database only the open commands can be shown
	if b.resolver == nil {
		return false
	}
	if entry.adminOnly {
		return b.resolver.IsAdmin(actorID)
	}
	for _, perm := range entry.requires {
		allowed, err := b.resolver.Allowed(context.Background(), guildID, actorID, perm)
		if err != nil {
			slog.Error("failed to resolve help visibility", "permission", perm, "error", err)
			return false
		}
		if allowed {
			return true
		}
	}
	return false
}
