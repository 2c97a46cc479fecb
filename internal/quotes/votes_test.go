package quotes_test

import (
	"context"
	"testing"

	"github.com/quorkbot/quork/internal/quotes"
	"github.com/quorkbot/quork/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteStore_CastOrReplace(t *testing.T) {
	db := testutils.NewTestDB(t)
	store := quotes.NewStore(db)
	votes := quotes.NewVoteStore(db)
	ctx := context.Background()

	quote, err := store.Add(ctx, quotes.AddOptions{GuildID: 1, Text: "voted"})
	require.NoError(t, err)

	require.NoError(t, votes.CastOrReplace(ctx, quote.ID, 7, quotes.Upvote))

	score, err := votes.Score(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, score)

	// Flipping the vote replaces it, it does not accumulate
	require.NoError(t, votes.CastOrReplace(ctx, quote.ID, 7, quotes.Downvote))

	score, err = votes.Score(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, -1, score)
}

func TestVoteStore_CastOrReplace_InvalidValue(t *testing.T) {
	db := testutils.NewTestDB(t)
	votes := quotes.NewVoteStore(db)

	err := votes.CastOrReplace(context.Background(), 1, 7, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid vote value")
}

func TestVoteStore_Score_ManyVoters(t *testing.T) {
	db := testutils.NewTestDB(t)
	store := quotes.NewStore(db)
	votes := quotes.NewVoteStore(db)
	ctx := context.Background()

	quote, err := store.Add(ctx, quotes.AddOptions{GuildID: 1, Text: "popular"})
	require.NoError(t, err)

	for _, userID := range []int64{1, 2, 3} {
		require.NoError(t, votes.CastOrReplace(ctx, quote.ID, userID, quotes.Upvote))
	}
	require.NoError(t, votes.CastOrReplace(ctx, quote.ID, 4, quotes.Downvote))

	score, err := votes.Score(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, score)
}

func TestVoteStore_Score_NoVotes(t *testing.T) {
	db := testutils.NewTestDB(t)
	votes := quotes.NewVoteStore(db)

	score, err := votes.Score(context.Background(), 999)
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestVoteStore_Retract(t *testing.T) {
	db := testutils.NewTestDB(t)
	store := quotes.NewStore(db)
	votes := quotes.NewVoteStore(db)
	ctx := context.Background()

	quote, err := store.Add(ctx, quotes.AddOptions{GuildID: 1, Text: "retracted"})
	require.NoError(t, err)
	require.NoError(t, votes.CastOrReplace(ctx, quote.ID, 7, quotes.Upvote))

	removed, err := votes.Retract(ctx, quote.ID, 7, quotes.Upvote)
	require.NoError(t, err)
	assert.True(t, removed)

	score, err := votes.Score(ctx, quote.ID)
	require.NoError(t, err)
	assert.Zero(t, score)
}

func TestVoteStore_Retract_StaleValue(t *testing.T) {
	db := testutils.NewTestDB(t)
	store := quotes.NewStore(db)
	votes := quotes.NewVoteStore(db)
	ctx := context.Background()

	quote, err := store.Add(ctx, quotes.AddOptions{GuildID: 1, Text: "flipped"})
	require.NoError(t, err)
	require.NoError(t, votes.CastOrReplace(ctx, quote.ID, 7, quotes.Downvote))

	// The voter already flipped to a downvote, so retracting the old
	// upvote must leave the current vote alone.
	removed, err := votes.Retract(ctx, quote.ID, 7, quotes.Upvote)
	require.NoError(t, err)
	assert.False(t, removed)

	score, err := votes.Score(ctx, quote.ID)
	require.NoError(t, err)
	assert.Equal(t, -1, score)
}
