// Package bot wires the Discord gateway to the quote and permission
// stores: slash commands, the selection menus they open, and the
// reaction-vote bridge.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/quorkbot/quork/internal/config"
	"github.com/quorkbot/quork/internal/discord"
	"github.com/quorkbot/quork/internal/pager"
	"github.com/quorkbot/quork/internal/permissions"
	"github.com/quorkbot/quork/internal/quotes"
	"github.com/quorkbot/quork/internal/storage"
)

// Bot is the Discord-facing application. When the database is unavailable
// it still connects and answers commands with a degraded-mode notice.
type Bot struct {
	cfg     *config.Config
	session *discordgo.Session
	rest    discord.Session
	botID   string

	quotes   *quotes.Store
	votes    *quotes.VoteStore
	grants   *permissions.GrantStore
	resolver *permissions.Resolver
	renderer *quotes.Renderer
	pager    *pager.Manager
}

// New creates the bot and its gateway session. A nil db puts the bot in
// degraded mode: it connects and registers commands, but every
// database-backed command reports that quote features are disabled.
func New(cfg *config.Config, db *storage.DB) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions

	b := &Bot{
		cfg:      cfg,
		session:  session,
		rest:     session,
		renderer: quotes.NewRenderer(cfg.WebURL),
		pager:    pager.NewManager(cfg.Pager.IdleTimeout),
	}
	if db != nil {
		b.quotes = quotes.NewStore(db.DB)
		b.votes = quotes.NewVoteStore(db.DB)
		b.grants = permissions.NewGrantStore(db.DB)
		b.resolver = permissions.NewResolver(permissions.AdminList(cfg.AdminIDs), b.grants)
	}

	session.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		b.botID = r.User.ID
		slog.Info("connected to discord", "username", r.User.Username, "id", r.User.ID)
	})
	session.AddHandler(func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		b.handleInteraction(i)
	})
	session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionAdd) {
		b.handleReactionAdd(r)
	})
	session.AddHandler(func(_ *discordgo.Session, r *discordgo.MessageReactionRemove) {
		b.handleReactionRemove(r)
	})

	return b, nil
}

// Run connects, registers the command set, and serves until the context is
// canceled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open gateway connection: %w", err)
	}
	defer func() {
		if err := b.session.Close(); err != nil {
			slog.Warn("error closing gateway connection", "error", err)
		}
	}()

	if err := b.registerCommands(); err != nil {
		return err
	}

	go b.pager.RunSweeper(ctx, b.rest, b.cfg.Pager.SweepInterval)

	<-ctx.Done()
	slog.Info("shutting down bot")
	return nil
}

// registerCommands bulk-overwrites the application command set, scoped to
// one guild when configured for faster iteration in development.
func (b *Bot) registerCommands() error {
	appID := b.cfg.Discord.ApplicationID
	if appID == "" {
		appID = b.session.State.User.ID
	}

	registered, err := b.session.ApplicationCommandBulkOverwrite(appID, b.cfg.Discord.GuildID, commandDefinitions())
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	slog.Info("registered application commands", "count", len(registered), "guild_id", b.cfg.Discord.GuildID)
	return nil
}

func permissionChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(permissions.All()))
	for _, perm := range permissions.All() {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  permissions.Name(perm),
			Value: string(perm),
		})
	}
	return choices
}

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "quote",
			Description: "Save and recall community quotes",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Save a new quote",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "text", Description: "What was said", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "author", Description: "Who said it"},
						{Type: discordgo.ApplicationCommandOptionString, Name: "context", Description: "What was going on"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "random",
					Description: "Post a random quote",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "find",
					Description: "Search quotes and post one",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "text", Description: "Text to search for"},
						{Type: discordgo.ApplicationCommandOptionString, Name: "author", Description: "Author to search for"},
						{Type: discordgo.ApplicationCommandOptionString, Name: "context", Description: "Context to search for"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "edit",
					Description: "Edit a quote you are allowed to edit",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "text", Description: "Narrow the list by text"},
						{Type: discordgo.ApplicationCommandOptionString, Name: "author", Description: "Narrow the list by author"},
						{Type: discordgo.ApplicationCommandOptionBoolean, Name: "all", Description: "Include everyone's quotes"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Remove a quote you are allowed to remove",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "text", Description: "Narrow the list by text"},
						{Type: discordgo.ApplicationCommandOptionString, Name: "author", Description: "Narrow the list by author"},
						{Type: discordgo.ApplicationCommandOptionString, Name: "context", Description: "Narrow the list by context"},
						{Type: discordgo.ApplicationCommandOptionBoolean, Name: "all", Description: "Include everyone's quotes"},
					},
				},
			},
		},
		{
			Name:        "qperms",
			Description: "Manage quote bot permissions",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "grant",
					Description: "Grant a permission to a member",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to grant to", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "permission", Description: "Permission to grant", Required: true, Choices: permissionChoices()},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "revoke",
					Description: "Revoke a permission from a member",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to revoke from", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "permission", Description: "Permission to revoke", Required: true, Choices: permissionChoices()},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List granted permissions",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to inspect, omit for everyone"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "check",
					Description: "Check whether a member holds a permission",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "permission", Description: "Permission to check", Required: true, Choices: permissionChoices()},
						{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to check, defaults to you"},
					},
				},
			},
		},
		{
			Name:        "untimeout",
			Description: "Lift a member's timeout",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to untimeout", Required: true},
			},
		},
		{
			Name:        "nickname",
			Description: "Change a member's nickname",
			Options: []*discordgo.ApplicationCommandOption{
				{Type: discordgo.ApplicationCommandOptionUser, Name: "user", Description: "Member to rename", Required: true},
				{Type: discordgo.ApplicationCommandOptionString, Name: "name", Description: "New nickname, empty to clear"},
			},
		},
		{
			Name:        "quorkhelp",
			Description: "Show what this bot can do",
		},
	}
}
