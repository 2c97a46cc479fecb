package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/quorkbot/quork/internal/permissions"
)

// handlePermissions serves the qperms subcommands. Granting, revoking, and
// listing are gated on the static admin allow-list, never on grants. Check
// is self-service: any member may query their own permissions, admins may
// query anyone's.
func (b *Bot) handlePermissions(i *discordgo.InteractionCreate) {
	actorID := parseSnowflake(interactionUserID(i))
	sub := i.ApplicationCommandData().Options[0].Name
	opts := subOptions(i)
	guildID := parseSnowflake(i.GuildID)
	targetID := optUserID(opts, "user")
	perm := permissions.Permission(optString(opts, "permission"))

	if sub == "check" {
		if targetID == "" {
			targetID = interactionUserID(i)
		}
		if parseSnowflake(targetID) != actorID && !b.resolver.IsAdmin(actorID) {
			b.replyEphemeral(i, "Only bot admins can check other members' permissions.")
			return
		}
		b.handlePermissionCheck(i, guildID, targetID, perm)
		return
	}

	if !b.resolver.IsAdmin(actorID) {
		b.replyEphemeral(i, "Only bot admins can manage permissions.")
		return
	}

	switch sub {
	case "grant":
		b.handleGrant(i, guildID, targetID, perm, actorID)
	case "revoke":
		b.handleRevoke(i, guildID, targetID, perm)
	case "list":
		if targetID == "" {
			b.handlePermissionListAll(i, guildID)
			return
		}
		b.handlePermissionList(i, guildID, targetID)
	}
}

func (b *Bot) handleGrant(i *discordgo.InteractionCreate, guildID int64, targetID string, perm permissions.Permission, actorID int64) {
	err := b.grants.Grant(context.Background(), guildID, parseSnowflake(targetID), perm, actorID)
	if err != nil {
		slog.Error("failed to grant permission", "error", err)
		b.replyEphemeral(i, "Something went wrong granting the permission.")
		return
	}

	slog.Info("permission granted",
		"guild_id", guildID,
		"user_id", targetID,
		"permission", perm,
		"granted_by", actorID,
	)
	b.replyEphemeral(i, fmt.Sprintf("Granted **%s** to <@%s>.", permissions.Name(perm), targetID))
}

func (b *Bot) handleRevoke(i *discordgo.InteractionCreate, guildID int64, targetID string, perm permissions.Permission) {
	removed, err := b.grants.Revoke(context.Background(), guildID, parseSnowflake(targetID), perm)
	if err != nil {
		slog.Error("failed to revoke permission", "error", err)
		b.replyEphemeral(i, "Something went wrong revoking the permission.")
		return
	}
	if !removed {
		b.replyEphemeral(i, fmt.Sprintf("<@%s> did not have **%s**.", targetID, permissions.Name(perm)))
		return
	}

	slog.Info("permission revoked", "guild_id", guildID, "user_id", targetID, "permission", perm)
	b.replyEphemeral(i, fmt.Sprintf("Revoked **%s** from <@%s>.", permissions.Name(perm), targetID))
}

func (b *Bot) handlePermissionList(i *discordgo.InteractionCreate, guildID int64, targetID string) {
	perms, err := b.grants.UserPermissions(context.Background(), guildID, parseSnowflake(targetID))
	if err != nil {
		slog.Error("failed to list permissions", "error", err)
		b.replyEphemeral(i, "Something went wrong listing permissions.")
		return
	}

	if b.resolver.IsAdmin(parseSnowflake(targetID)) {
		b.replyEphemeral(i, fmt.Sprintf("<@%s> is a bot admin and holds every permission.", targetID))
		return
	}
	if len(perms) == 0 {
		b.replyEphemeral(i, fmt.Sprintf("<@%s> has no granted permissions.", targetID))
		return
	}

	lines := make([]string, 0, len(perms))
	for _, perm := range perms {
		lines = append(lines, fmt.Sprintf("- %s (`%s`)", permissions.Name(perm), perm))
	}
	b.replyEphemeral(i, fmt.Sprintf("<@%s> has:\n%s", targetID, strings.Join(lines, "\n")))
}

// handlePermissionListAll enumerates every granted permission in the guild
// with its holders.
func (b *Bot) handlePermissionListAll(i *discordgo.InteractionCreate, guildID int64) {
	var lines []string
	for _, perm := range permissions.All() {
		userIDs, err := b.grants.UsersWithPermission(context.Background(), guildID, perm)
		if err != nil {
			slog.Error("failed to list permission holders", "permission", perm, "error", err)
			b.replyEphemeral(i, "Something went wrong listing permissions.")
			return
		}
		if len(userIDs) == 0 {
			continue
		}
		mentions := make([]string, 0, len(userIDs))
		for _, id := range userIDs {
			mentions = append(mentions, fmt.Sprintf("<@%d>", id))
		}
		lines = append(lines, fmt.Sprintf("**%s**: %s", permissions.Name(perm), strings.Join(mentions, ", ")))
	}

	if len(lines) == 0 {
		b.replyEphemeral(i, "No permissions have been granted in this server.")
		return
	}
	b.replyEphemeral(i, strings.Join(lines, "\n"))
}

func (b *Bot) handlePermissionCheck(i *discordgo.InteractionCreate, guildID int64, targetID string, perm permissions.Permission) {
	allowed, err := b.resolver.Allowed(context.Background(), guildID, parseSnowflake(targetID), perm)
	if err != nil {
		slog.Error("failed to check permission", "error", err)
		b.replyEphemeral(i, "Something went wrong checking the permission.")
		return
	}

	if allowed {
		b.replyEphemeral(i, fmt.Sprintf("<@%s> **can** %s.", targetID, strings.ToLower(permissions.Name(perm))))
	} else {
		b.replyEphemeral(i, fmt.Sprintf("<@%s> **cannot** %s.", targetID, strings.ToLower(permissions.Name(perm))))
	}
}
