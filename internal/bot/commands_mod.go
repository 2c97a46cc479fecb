package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/quorkbot/quork/internal/permissions"
)

// requirePermission gates the moderation helpers. These permissions have
// no own/all split: either the grant exists or the command is refused.
func (b *Bot) requirePermission(i *discordgo.InteractionCreate, perm permissions.Permission) bool {
	if b.resolver == nil {
		b.replyEphemeral(i, "Permission checks are temporarily disabled: the database is unavailable.")
		return false
	}

	allowed, err := b.resolver.Allowed(context.Background(),
		parseSnowflake(i.GuildID), parseSnowflake(interactionUserID(i)), perm)
	if err != nil {
		slog.Error("failed to check permission", "permission", perm, "error", err)
		b.replyEphemeral(i, "Something went wrong checking your permissions.")
		return false
	}
	if !allowed {
		b.replyEphemeral(i, fmt.Sprintf("You need the **%s** permission for that.", permissions.Name(perm)))
		return false
	}
	return true
}

func (b *Bot) handleUntimeout(i *discordgo.InteractionCreate) {
	if !b.requirePermission(i, permissions.Untimeout) {
		return
	}

	targetID := optUserID(subOptions(i), "user")
	// A nil deadline clears the timeout
	if err := b.rest.GuildMemberTimeout(i.GuildID, targetID, nil); err != nil {
		slog.Error("failed to clear timeout", "user_id", targetID, "error", err)
		b.replyEphemeral(i, "Could not lift the timeout. Check the bot's role permissions.")
		return
	}

	slog.Info("timeout lifted", "guild_id", i.GuildID, "user_id", targetID, "by", interactionUserID(i))
	b.replyEphemeral(i, fmt.Sprintf("Timeout lifted for <@%s>.", targetID))
}

func (b *Bot) handleNickname(i *discordgo.InteractionCreate) {
	if !b.requirePermission(i, permissions.ChangeNickname) {
		return
	}

	opts := subOptions(i)
	targetID := optUserID(opts, "user")
	name := optString(opts, "name")

	if err := b.rest.GuildMemberNickname(i.GuildID, targetID, name); err != nil {
		slog.Error("failed to change nickname", "user_id", targetID, "error", err)
		b.replyEphemeral(i, "Could not change the nickname. Check the bot's role permissions.")
		return
	}

	slog.Info("nickname changed", "guild_id", i.GuildID, "user_id", targetID, "by", interactionUserID(i))
	if name == "" {
		b.replyEphemeral(i, fmt.Sprintf("Nickname cleared for <@%s>.", targetID))
	} else {
		b.replyEphemeral(i, fmt.Sprintf("Nickname for <@%s> set to **%s**.", targetID, name))
	}
}
