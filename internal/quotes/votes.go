package quotes

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Vote directions as stored in the vote column.
const (
	Upvote   = 1
	Downvote = -1
)

// VoteStore maintains one signed vote per (quote, voter) pair. Correctness
// under concurrent reaction events relies on the database's upsert and
// conditional-delete primitives, not on in-process locking.
type VoteStore struct {
	db *gorm.DB
}

// NewVoteStore creates a new vote store
func NewVoteStore(db *gorm.DB) *VoteStore {
	return &VoteStore{db: db}
}

// CastOrReplace records a vote. A second vote from the same voter on the
// same quote overwrites the first, it does not accumulate.
func (s *VoteStore) CastOrReplace(ctx context.Context, quoteID, userID int64, value int) error {
	if value != Upvote && value != Downvote {
		return fmt.Errorf("invalid vote value %d", value)
	}

	vote := Vote{QuoteID: quoteID, UserID: userID, Vote: value}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "quote_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"vote"}),
		}).
		Create(&vote).Error
	if err != nil {
		return fmt.Errorf("failed to cast vote: %w", err)
	}
	return nil
}

// Retract removes a vote only if its stored value still equals
// expectedValue, protecting against a stale retract after the voter already
// flipped their vote. Reports whether a row was actually removed.
func (s *VoteStore) Retract(ctx context.Context, quoteID, userID int64, expectedValue int) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("quote_id = ? AND user_id = ? AND vote = ?", quoteID, userID, expectedValue).
		Delete(&Vote{})
	if result.Error != nil {
		return false, fmt.Errorf("failed to retract vote: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Score computes a quote's net score as the sum of its vote values,
// 0 when no votes exist. Never cached, always recomputed.
func (s *VoteStore) Score(ctx context.Context, quoteID int64) (int, error) {
	var score int
	err := s.db.WithContext(ctx).
		Model(&Vote{}).
		Where("quote_id = ?", quoteID).
		Select("COALESCE(SUM(vote), 0)").
		Scan(&score).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute score: %w", err)
	}
	return score, nil
}
