package quotes

import (
	"time"
)

// Quote is a saved quote scoped to one guild. The (guild_id, quote_text)
// pair is unique: submitting the same text twice in a guild is rejected,
// not merged.
type Quote struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	GuildID    int64     `gorm:"not null;uniqueIndex:quotes_guild_text_idx" json:"guild_id"`
	AuthorName *string   `json:"author_name"`
	QuoteText  string    `gorm:"not null;uniqueIndex:quotes_guild_text_idx" json:"quote_text"`
	Context    *string   `json:"context"`
	AddedByID  *int64    `json:"added_by_id"`
	CreatedAt  time.Time `json:"created_at"`

	Votes []Vote `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE;" json:"-"`
}

// TableName specifies the table name for Quote
func (Quote) TableName() string {
	return "quotes"
}

// Vote is one signed vote by one user on one quote. The composite primary
// key keeps it to at most one row per (quote, voter); casting again
// overwrites the value.
type Vote struct {
	QuoteID   int64     `gorm:"primaryKey;autoIncrement:false" json:"quote_id"`
	UserID    int64     `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Vote      int       `gorm:"not null" json:"vote"` // +1 or -1
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for Vote
func (Vote) TableName() string {
	return "quote_votes"
}
