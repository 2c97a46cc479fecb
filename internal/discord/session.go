// Package discord wraps the gateway session behind a narrow interface so
// handlers can be exercised against a mock instead of a live connection.
package discord

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Session is the subset of the discordgo REST API the bot calls. The
// variadic options match the real method signatures, so *discordgo.Session
// satisfies this interface directly.
type Session interface {
	InteractionRespond(i *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponse(i *discordgo.Interaction, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionResponseEdit(i *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionResponseDelete(i *discordgo.Interaction, options ...discordgo.RequestOption) error
	FollowupMessageCreate(i *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageDelete(i *discordgo.Interaction, messageID string, options ...discordgo.RequestOption) error
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	MessageReactionRemove(channelID, messageID, emojiID, userID string, options ...discordgo.RequestOption) error
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
	GuildMemberTimeout(guildID, userID string, until *time.Time, options ...discordgo.RequestOption) error
	GuildMemberNickname(guildID, userID, nickname string, options ...discordgo.RequestOption) error
}

var _ Session = (*discordgo.Session)(nil)

// MemberDisplay resolves how a user should be shown in a guild: server
// nickname first, then global display name, then username. The avatar URL
// follows the same precedence via the member endpoint. Degrades to a plain
// user lookup when the member left the guild, and to "User <id>" when even
// that fails.
func MemberDisplay(s Session, guildID, userID string) (name, avatarURL string) {
	member, err := s.GuildMember(guildID, userID)
	if err == nil && member.User != nil {
		return displayName(member.Nick, member.User), member.AvatarURL("")
	}

	user, err := s.User(userID)
	if err == nil {
		return displayName("", user), user.AvatarURL("")
	}

	slog.Debug("could not resolve member display", "user_id", userID, "error", err)
	return fmt.Sprintf("User %s", userID), ""
}

func displayName(nick string, user *discordgo.User) string {
	if nick != "" {
		return nick
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}

// ScheduleResponseDelete removes an interaction response after a delay.
// Used for transient confirmations; deletion failures are expected when the
// response was ephemeral and already dismissed, so they are only logged.
func ScheduleResponseDelete(s Session, i *discordgo.Interaction, delay time.Duration) *time.Timer {
	return time.AfterFunc(delay, func() {
		if err := s.InteractionResponseDelete(i); err != nil {
			slog.Debug("could not delete interaction response", "error", err)
		}
	})
}

// ScheduleFollowupDelete removes a followup message after a delay.
func ScheduleFollowupDelete(s Session, i *discordgo.Interaction, messageID string, delay time.Duration) *time.Timer {
	return time.AfterFunc(delay, func() {
		if err := s.FollowupMessageDelete(i, messageID); err != nil {
			slog.Debug("could not delete followup message", "error", err)
		}
	})
}
