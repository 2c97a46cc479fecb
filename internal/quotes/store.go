package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrDuplicate is returned when a quote with the same text already exists
// in the guild.
var ErrDuplicate = errors.New("quote already exists in this guild")

// ErrNotFound is returned when the target quote vanished between listing
// and mutation. Callers treat it as a normal outcome, not a fault.
var ErrNotFound = errors.New("quote not found")

// Store handles persistence of quotes to the database
type Store struct {
	db *gorm.DB
}

// NewStore creates a new quote store
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AddOptions contains the fields for a new quote
type AddOptions struct {
	GuildID    int64
	Text       string
	AuthorName *string
	Context    *string
	AddedByID  *int64
}

// Add saves a new quote and returns it with its assigned id and timestamp.
// Returns ErrDuplicate when (guild, text) already exists.
func (s *Store) Add(ctx context.Context, opts AddOptions) (*Quote, error) {
	if opts.Text == "" {
		return nil, fmt.Errorf("cannot store quote with no text")
	}

	quote := Quote{
		GuildID:    opts.GuildID,
		QuoteText:  opts.Text,
		AuthorName: opts.AuthorName,
		Context:    opts.Context,
		AddedByID:  opts.AddedByID,
	}
	if err := s.db.WithContext(ctx).Create(&quote).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create quote: %w", err)
	}

	return &quote, nil
}

// SearchFilters are case-insensitive substring filters, ANDed together.
// AddedByID restricts results to one submitter; the caller decides whether
// to set it based on the actor's resolved permissions.
type SearchFilters struct {
	Text      string
	Author    string
	Context   string
	AddedByID *int64
}

// Search returns matching quotes for a guild, newest first.
func (s *Store) Search(ctx context.Context, guildID int64, filters SearchFilters) ([]Quote, error) {
	query := s.db.WithContext(ctx).Where("guild_id = ?", guildID)

	if filters.AddedByID != nil {
		query = query.Where("added_by_id = ?", *filters.AddedByID)
	}
	if filters.Text != "" {
		query = query.Where("LOWER(quote_text) LIKE ?", pattern(filters.Text))
	}
	if filters.Author != "" {
		query = query.Where("LOWER(COALESCE(author_name, '')) LIKE ?", pattern(filters.Author))
	}
	if filters.Context != "" {
		query = query.Where("LOWER(COALESCE(context, '')) LIKE ?", pattern(filters.Context))
	}

	var quotes []Quote
	if err := query.Order("created_at DESC, id DESC").Find(&quotes).Error; err != nil {
		return nil, fmt.Errorf("failed to search quotes: %w", err)
	}
	return quotes, nil
}

// Random returns a random quote for a guild, or nil when the guild has none.
func (s *Store) Random(ctx context.Context, guildID int64) (*Quote, error) {
	var quote Quote
	err := s.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		Order("RANDOM()").
		First(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get random quote: %w", err)
	}
	return &quote, nil
}

// Get retrieves one quote by id, scoped to a guild.
func (s *Store) Get(ctx context.Context, id, guildID int64) (*Quote, error) {
	var quote Quote
	err := s.db.WithContext(ctx).
		Where("id = ? AND guild_id = ?", id, guildID).
		First(&quote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return &quote, nil
}

// Update rewrites a quote's text, author, and context in place. The guild
// scope prevents cross-guild mutation by id guessing. Returns ErrNotFound
// when no row matched.
func (s *Store) Update(ctx context.Context, id, guildID int64, text string, author, context *string) error {
	result := s.db.WithContext(ctx).
		Model(&Quote{}).
		Where("id = ? AND guild_id = ?", id, guildID).
		Updates(map[string]interface{}{
			"quote_text":  text,
			"author_name": author,
			"context":     context,
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update quote: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Remove hard-deletes a quote; its votes cascade. Returns ErrNotFound when
// no row matched.
func (s *Store) Remove(ctx context.Context, id, guildID int64) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND guild_id = ?", id, guildID).
		Delete(&Quote{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete quote: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountForGuild returns the number of quotes in a guild
func (s *Store) CountForGuild(ctx context.Context, guildID int64) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&Quote{}).
		Where("guild_id = ?", guildID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count quotes: %w", err)
	}
	return count, nil
}

// ScoredQuote is a quote with its recomputed net vote score, as served by
// the listing endpoint.
type ScoredQuote struct {
	Quote
	Score int `json:"score"`
}

// ListWithScores returns quotes newest first, each with its net score.
// A nil guildID lists every guild.
func (s *Store) ListWithScores(ctx context.Context, guildID *int64) ([]ScoredQuote, error) {
	query := s.db.WithContext(ctx).
		Model(&Quote{}).
		Select("quotes.*, COALESCE(SUM(quote_votes.vote), 0) AS score").
		Joins("LEFT JOIN quote_votes ON quote_votes.quote_id = quotes.id").
		Group("quotes.id")

	if guildID != nil {
		query = query.Where("quotes.guild_id = ?", *guildID)
	}

	var rows []ScoredQuote
	if err := query.Order("quotes.created_at DESC, quotes.id DESC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	return rows, nil
}

// pattern lowers a filter term and wraps it for a substring LIKE match
func pattern(term string) string {
	return "%" + strings.ToLower(term) + "%"
}
