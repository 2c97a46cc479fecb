package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/quorkbot/quork/internal/discord"
	"github.com/quorkbot/quork/internal/pager"
	"github.com/quorkbot/quork/internal/quotes"
)

const editModalPrefix = "qedit"

func (b *Bot) handleQuoteAdd(i *discordgo.InteractionCreate) {
	opts := subOptions(i)
	submitterID := parseSnowflake(interactionUserID(i))

	quote, err := b.quotes.Add(context.Background(), quotes.AddOptions{
		GuildID:    parseSnowflake(i.GuildID),
		Text:       strings.TrimSpace(optString(opts, "text")),
		AuthorName: nilIfEmpty(optString(opts, "author")),
		Context:    nilIfEmpty(optString(opts, "context")),
		AddedByID:  &submitterID,
	})
	if err != nil {
		if errors.Is(err, quotes.ErrDuplicate) {
			b.replyEphemeral(i, "That quote already exists in this server.")
			return
		}
		slog.Error("failed to add quote", "error", err)
		b.replyEphemeral(i, "Something went wrong saving the quote.")
		return
	}

	slog.Info("quote added", "quote_id", quote.ID, "guild_id", quote.GuildID)
	b.postQuote(i, quote)
}

func (b *Bot) handleQuoteRandom(i *discordgo.InteractionCreate) {
	quote, err := b.quotes.Random(context.Background(), parseSnowflake(i.GuildID))
	if err != nil {
		slog.Error("failed to fetch random quote", "error", err)
		b.replyEphemeral(i, "Something went wrong fetching a quote.")
		return
	}
	if quote == nil {
		b.replyEphemeral(i, "This server has no quotes yet. Add one with `/quote add`!")
		return
	}
	b.postQuote(i, quote)
}

func (b *Bot) handleQuoteFind(i *discordgo.InteractionCreate) {
	opts := subOptions(i)
	filters := quotes.SearchFilters{
		Text:    optString(opts, "text"),
		Author:  optString(opts, "author"),
		Context: optString(opts, "context"),
	}
	if filters.Text == "" && filters.Author == "" && filters.Context == "" {
		b.replyEphemeral(i, "Give me something to search for: text, author, or context.")
		return
	}

	guildID := parseSnowflake(i.GuildID)
	rows, err := b.quotes.Search(context.Background(), guildID, filters)
	if err != nil {
		slog.Error("failed to search quotes", "error", err)
		b.replyEphemeral(i, "Something went wrong searching quotes.")
		return
	}
	if len(rows) == 0 {
		b.replyEphemeral(i, "No quotes matched your search.")
		return
	}
	if len(rows) == 1 {
		b.postQuote(i, &rows[0])
		return
	}

	hooks := b.listHooks(rows, "Select a quote to post...", false)
	hooks.OnSelect = func(s discord.Session, sel *discordgo.InteractionCreate, rowID int64) (pager.Action, error) {
		quote, err := b.quotes.Get(context.Background(), rowID, guildID)
		if err != nil {
			b.selectionError(sel, err, "post")
			return pager.ActionClose, nil
		}
		b.postQuote(sel, quote)
		return pager.ActionClose, nil
	}

	if err := b.pager.Open(b.rest, i, selectionRows(rows), hooks); err != nil {
		slog.Error("failed to open find menu", "error", err)
	}
}

func (b *Bot) handleQuoteEdit(i *discordgo.InteractionCreate) {
	opts := subOptions(i)
	guildID := parseSnowflake(i.GuildID)
	actorID := parseSnowflake(interactionUserID(i))

	_, canAll, err := b.resolver.ResolveEdit(context.Background(), guildID, actorID)
	if err != nil {
		slog.Error("failed to resolve edit permissions", "error", err)
		b.replyEphemeral(i, "Something went wrong checking your permissions.")
		return
	}

	// Without an all-scope grant the menu is restricted to the actor's own
	// submissions; no grant is needed to edit those.
	scopeAll := optBool(opts, "all") && canAll
	filters := quotes.SearchFilters{
		Text:   optString(opts, "text"),
		Author: optString(opts, "author"),
	}
	if !scopeAll {
		filters.AddedByID = &actorID
	}
	rows, err := b.quotes.Search(context.Background(), guildID, filters)
	if err != nil {
		slog.Error("failed to search quotes", "error", err)
		b.replyEphemeral(i, "Something went wrong searching quotes.")
		return
	}
	if len(rows) == 0 {
		b.replyEphemeral(i, "No editable quotes matched your search.")
		return
	}

	hooks := b.listHooks(rows, "Select a quote to edit...", scopeAll)
	hooks.OnSelect = func(s discord.Session, sel *discordgo.InteractionCreate, rowID int64) (pager.Action, error) {
		quote, err := b.quotes.Get(context.Background(), rowID, guildID)
		if err != nil {
			b.selectionError(sel, err, "edit")
			return pager.ActionClose, nil
		}
		// Permissions may have changed while the menu sat open
		if !b.authorizeEdit(sel, quote) {
			return pager.ActionClose, nil
		}
		b.openEditModal(sel, quote)
		return pager.ActionClose, nil
	}

	if err := b.pager.Open(b.rest, i, selectionRows(rows), hooks); err != nil {
		slog.Error("failed to open edit menu", "error", err)
	}
}

func (b *Bot) handleQuoteRemove(i *discordgo.InteractionCreate) {
	opts := subOptions(i)
	guildID := parseSnowflake(i.GuildID)
	actorID := parseSnowflake(interactionUserID(i))

	_, canAll, err := b.resolver.ResolveRemove(context.Background(), guildID, actorID)
	if err != nil {
		slog.Error("failed to resolve remove permissions", "error", err)
		b.replyEphemeral(i, "Something went wrong checking your permissions.")
		return
	}

	scopeAll := optBool(opts, "all") && canAll
	filters := quotes.SearchFilters{
		Text:    optString(opts, "text"),
		Author:  optString(opts, "author"),
		Context: optString(opts, "context"),
	}
	if !scopeAll {
		filters.AddedByID = &actorID
	}
	rows, err := b.quotes.Search(context.Background(), guildID, filters)
	if err != nil {
		slog.Error("failed to search quotes", "error", err)
		b.replyEphemeral(i, "Something went wrong searching quotes.")
		return
	}
	if len(rows) == 0 {
		b.replyEphemeral(i, "No removable quotes matched your search.")
		return
	}

	hooks := b.listHooks(rows, "Select a quote to remove...", scopeAll)
	hooks.OnSelect = func(s discord.Session, sel *discordgo.InteractionCreate, rowID int64) (pager.Action, error) {
		quote, err := b.quotes.Get(context.Background(), rowID, guildID)
		if err != nil {
			if errors.Is(err, quotes.ErrNotFound) {
				b.replyTransient(sel, "That quote was already removed.")
				return pager.ActionRemoveRow, nil
			}
			b.selectionError(sel, err, "remove")
			return pager.ActionClose, nil
		}
		if !b.authorizeRemove(sel, quote) {
			return pager.ActionClose, nil
		}

		if err := b.quotes.Remove(context.Background(), quote.ID, guildID); err != nil {
			if errors.Is(err, quotes.ErrNotFound) {
				b.replyTransient(sel, "That quote was already removed.")
				return pager.ActionRemoveRow, nil
			}
			b.selectionError(sel, err, "remove")
			return pager.ActionClose, nil
		}

		slog.Info("quote removed", "quote_id", quote.ID, "guild_id", guildID, "by", interactionUserID(sel))
		b.replyTransient(sel, fmt.Sprintf("Quote #%d removed.", quote.ID))
		return pager.ActionRemoveRow, nil
	}

	if err := b.pager.Open(b.rest, i, selectionRows(rows), hooks); err != nil {
		slog.Error("failed to open remove menu", "error", err)
	}
}

// authorizeEdit re-resolves permissions at selection time. Covers grants
// revoked while the menu sat open. Submitters can always act on their own
// quotes; anyone else needs the all-scope grant.
func (b *Bot) authorizeEdit(i *discordgo.InteractionCreate, quote *quotes.Quote) bool {
	actorID := parseSnowflake(interactionUserID(i))
	if isSubmitter(quote, actorID) {
		return true
	}
	_, canAll, err := b.resolver.ResolveEdit(context.Background(), quote.GuildID, actorID)
	if err != nil {
		slog.Error("failed to re-resolve edit permissions", "error", err)
		b.replyEphemeral(i, "Something went wrong checking your permissions.")
		return false
	}
	if canAll {
		return true
	}
	b.replyEphemeral(i, "You are not allowed to edit this quote.")
	return false
}

func (b *Bot) authorizeRemove(i *discordgo.InteractionCreate, quote *quotes.Quote) bool {
	actorID := parseSnowflake(interactionUserID(i))
	if isSubmitter(quote, actorID) {
		return true
	}
	_, canAll, err := b.resolver.ResolveRemove(context.Background(), quote.GuildID, actorID)
	if err != nil {
		slog.Error("failed to re-resolve remove permissions", "error", err)
		b.replyEphemeral(i, "Something went wrong checking your permissions.")
		return false
	}
	if canAll {
		return true
	}
	b.replyEphemeral(i, "You are not allowed to remove this quote.")
	return false
}

func isSubmitter(quote *quotes.Quote, userID int64) bool {
	return quote.AddedByID != nil && *quote.AddedByID == userID
}

// openEditModal responds to a selection with a prefilled edit form. The
// quote id rides in the modal's custom ID.
func (b *Bot) openEditModal(i *discordgo.InteractionCreate, quote *quotes.Quote) {
	author := ""
	if quote.AuthorName != nil {
		author = *quote.AuthorName
	}
	quoteContext := ""
	if quote.Context != nil {
		quoteContext = *quote.Context
	}

	err := b.rest.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: fmt.Sprintf("%s:%d", editModalPrefix, quote.ID),
			Title:    fmt.Sprintf("Edit quote #%d", quote.ID),
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  "text",
						Label:     "Quote",
						Style:     discordgo.TextInputParagraph,
						Value:     quote.QuoteText,
						Required:  true,
						MaxLength: 2000,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  "author",
						Label:     "Author",
						Style:     discordgo.TextInputShort,
						Value:     author,
						MaxLength: 100,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  "context",
						Label:     "Context",
						Style:     discordgo.TextInputShort,
						Value:     quoteContext,
						MaxLength: 200,
					},
				}},
			},
		},
	})
	if err != nil {
		slog.Error("failed to open edit modal", "error", err)
	}
}

func (b *Bot) handleEditModalSubmit(i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()

	idPart := strings.TrimPrefix(data.CustomID, editModalPrefix+":")
	quoteID, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		slog.Warn("malformed edit modal custom id", "custom_id", data.CustomID)
		return
	}
	guildID := parseSnowflake(i.GuildID)

	quote, err := b.quotes.Get(context.Background(), quoteID, guildID)
	if err != nil {
		if errors.Is(err, quotes.ErrNotFound) {
			b.replyEphemeral(i, "That quote no longer exists.")
			return
		}
		slog.Error("failed to load quote for edit", "error", err)
		b.replyEphemeral(i, "Something went wrong saving your edit.")
		return
	}
	if !b.authorizeEdit(i, quote) {
		return
	}

	fields := modalValues(data)
	text := strings.TrimSpace(fields["text"])
	if text == "" {
		b.replyEphemeral(i, "A quote needs text.")
		return
	}

	err = b.quotes.Update(context.Background(), quoteID, guildID, text,
		nilIfEmpty(strings.TrimSpace(fields["author"])),
		nilIfEmpty(strings.TrimSpace(fields["context"])),
	)
	if err != nil {
		if errors.Is(err, quotes.ErrDuplicate) {
			b.replyEphemeral(i, "Another quote in this server already has that text.")
			return
		}
		if errors.Is(err, quotes.ErrNotFound) {
			b.replyEphemeral(i, "That quote no longer exists.")
			return
		}
		slog.Error("failed to update quote", "error", err)
		b.replyEphemeral(i, "Something went wrong saving your edit.")
		return
	}

	slog.Info("quote edited", "quote_id", quoteID, "guild_id", guildID, "by", interactionUserID(i))
	b.replyTransient(i, fmt.Sprintf("Quote #%d updated.", quoteID))
}

// modalValues flattens modal text inputs into a custom-id-keyed map
func modalValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	values := make(map[string]string)
	for _, row := range data.Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, component := range actionsRow.Components {
			if input, ok := component.(*discordgo.TextInput); ok {
				values[input.CustomID] = input.Value
			}
		}
	}
	return values
}

// postQuote renders a quote publicly with its current score and the
// submitter's display identity.
func (b *Bot) postQuote(i *discordgo.InteractionCreate, quote *quotes.Quote) {
	score, err := b.votes.Score(context.Background(), quote.ID)
	if err != nil {
		slog.Error("failed to compute score", "quote_id", quote.ID, "error", err)
	}

	name, avatar := b.submitterDisplay(i.GuildID, quote)
	embed := b.renderer.QuoteEmbed(quote, score, name, avatar)
	b.replyEmbed(i, embed, b.renderer.LinkComponents(quote.ID))
	b.seedVoteReactions(i)
}

// seedVoteReactions pre-adds both voting thumbs to a freshly posted quote
// message so voters have a one-click target. Best effort: a posted quote
// without seeded reactions is still votable.
func (b *Bot) seedVoteReactions(i *discordgo.InteractionCreate) {
	msg, err := b.rest.InteractionResponse(i.Interaction)
	if err != nil || msg == nil {
		slog.Debug("could not fetch posted quote message", "error", err)
		return
	}
	for _, emoji := range []string{emojiUpvote, emojiDownvote} {
		if err := b.rest.MessageReactionAdd(msg.ChannelID, msg.ID, emoji); err != nil {
			slog.Debug("could not seed vote reaction", "emoji", emoji, "error", err)
		}
	}
}

func (b *Bot) submitterDisplay(guildID string, quote *quotes.Quote) (string, string) {
	if quote.AddedByID == nil {
		return "Unknown", ""
	}
	return discord.MemberDisplay(b.rest, guildID, strconv.FormatInt(*quote.AddedByID, 10))
}

// listHooks builds the shared rendering hooks for a quote selection menu
func (b *Bot) listHooks(all []quotes.Quote, placeholder string, showOwner bool) pager.Hooks {
	byID := make(map[int64]quotes.Quote, len(all))
	for _, q := range all {
		byID[q.ID] = q
	}

	return pager.Hooks{
		Placeholder: placeholder,
		Embed: func(pageRows []pager.Row, page, totalPages, totalRows int) *discordgo.MessageEmbed {
			pageQuotes := make([]quotes.Quote, 0, len(pageRows))
			for _, row := range pageRows {
				if q, ok := byID[row.ID]; ok {
					pageQuotes = append(pageQuotes, q)
				}
			}
			return b.renderer.ListEmbed(pageQuotes, page, totalPages, totalRows, quotes.ListEmbedOptions{
				ShowOwner:  showOwner,
				FooterText: placeholder,
			})
		},
		EmptyEmbed: func() *discordgo.MessageEmbed {
			return &discordgo.MessageEmbed{
				Description: "Nothing left to select.",
				Color:       quotes.ColorBlue,
			}
		},
	}
}

// selectionRows converts quotes into pager rows. Labels are capped to the
// select menu option limit.
func selectionRows(all []quotes.Quote) []pager.Row {
	rows := make([]pager.Row, 0, len(all))
	for _, q := range all {
		description := quotes.FormatDate(q.CreatedAt)
		if q.AuthorName != nil && *q.AuthorName != "" {
			description = *q.AuthorName + ", " + description
		}
		rows = append(rows, pager.Row{
			ID:          q.ID,
			Label:       quotes.Truncate(q.QuoteText, 100),
			Description: quotes.Truncate(description, 100),
		})
	}
	return rows
}

func (b *Bot) selectionError(i *discordgo.InteractionCreate, err error, verb string) {
	if errors.Is(err, quotes.ErrNotFound) {
		b.replyEphemeral(i, "That quote no longer exists.")
		return
	}
	slog.Error("selection failed", "verb", verb, "error", err)
	b.replyEphemeral(i, "Something went wrong. Try again.")
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
