package bot

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/quorkbot/quork/internal/quotes"
)

const (
	emojiUpvote   = "👍"
	emojiDownvote = "👎"
)

func voteValue(emojiName string) (int, bool) {
	switch emojiName {
	case emojiUpvote:
		return quotes.Upvote, true
	case emojiDownvote:
		return quotes.Downvote, true
	}
	return 0, false
}

// handleReactionAdd turns a thumb reaction on a quote message into a vote.
// Adding the opposite thumb replaces the voter's existing vote, and the
// stale reaction is cleared so the message reflects one vote per person.
func (b *Bot) handleReactionAdd(r *discordgo.MessageReactionAdd) {
	if b.quotes == nil || r.UserID == b.botID || r.GuildID == "" {
		return
	}
	value, ok := voteValue(r.Emoji.Name)
	if !ok {
		return
	}

	quote, msg := b.resolveQuoteMessage(r.ChannelID, r.MessageID, r.GuildID)
	if quote == nil {
		return
	}

	if err := b.votes.CastOrReplace(context.Background(), quote.ID, parseSnowflake(r.UserID), value); err != nil {
		slog.Error("failed to cast vote", "quote_id", quote.ID, "error", err)
		return
	}

	opposite := emojiDownvote
	if value == quotes.Downvote {
		opposite = emojiUpvote
	}
	// Best effort: the voter may not have an opposite reaction to clear
	if err := b.rest.MessageReactionRemove(r.ChannelID, r.MessageID, opposite, r.UserID); err != nil {
		slog.Debug("could not remove opposite reaction", "error", err)
	}

	b.refreshScore(msg, quote.ID)
}

// handleReactionRemove retracts a vote when its thumb reaction disappears.
// The retraction is conditional on the stored value so the reaction swap
// sequence (add new, remove old) cannot erase the fresh vote.
func (b *Bot) handleReactionRemove(r *discordgo.MessageReactionRemove) {
	if b.quotes == nil || r.UserID == b.botID || r.GuildID == "" {
		return
	}
	value, ok := voteValue(r.Emoji.Name)
	if !ok {
		return
	}

	quote, msg := b.resolveQuoteMessage(r.ChannelID, r.MessageID, r.GuildID)
	if quote == nil {
		return
	}

	retracted, err := b.votes.Retract(context.Background(), quote.ID, parseSnowflake(r.UserID), value)
	if err != nil {
		slog.Error("failed to retract vote", "quote_id", quote.ID, "error", err)
		return
	}
	if retracted {
		b.refreshScore(msg, quote.ID)
	}
}

// resolveQuoteMessage decides whether a message is one of the bot's quote
// embeds and, if so, which stored quote it shows. Returns nils for every
// unrelated message; reactions elsewhere are not the bot's business.
func (b *Bot) resolveQuoteMessage(channelID, messageID, guildID string) (*quotes.Quote, *discordgo.Message) {
	msg, err := b.rest.ChannelMessage(channelID, messageID)
	if err != nil {
		slog.Debug("could not fetch reacted message", "error", err)
		return nil, nil
	}
	if msg.Author == nil || msg.Author.ID != b.botID {
		return nil, nil
	}
	if len(msg.Embeds) == 0 || msg.Embeds[0].Footer == nil {
		return nil, nil
	}

	quoteID, ok := quotes.QuoteIDFromFooter(msg.Embeds[0].Footer.Text)
	if !ok {
		return nil, nil
	}

	quote, err := b.quotes.Get(context.Background(), quoteID, parseSnowflake(guildID))
	if err != nil {
		slog.Debug("reacted message references no stored quote", "quote_id", quoteID, "error", err)
		return nil, nil
	}
	return quote, msg
}

// refreshScore recomputes the net score and rewrites only the bracketed
// token in the message footer.
func (b *Bot) refreshScore(msg *discordgo.Message, quoteID int64) {
	score, err := b.votes.Score(context.Background(), quoteID)
	if err != nil {
		slog.Error("failed to recompute score", "quote_id", quoteID, "error", err)
		return
	}

	embed := *msg.Embeds[0]
	footer := *embed.Footer
	footer.Text = quotes.RewriteFooterScore(footer.Text, score)
	embed.Footer = &footer

	embeds := []*discordgo.MessageEmbed{&embed}
	_, err = b.rest.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel: msg.ChannelID,
		ID:      msg.ID,
		Embeds:  &embeds,
	})
	if err != nil {
		slog.Error("failed to update quote score", "quote_id", quoteID, "error", err)
	}
}
