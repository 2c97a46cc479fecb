package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quorkbot/quork/internal/api"
	"github.com/quorkbot/quork/internal/config"
	"github.com/quorkbot/quork/internal/quotes"
	"github.com/quorkbot/quork/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestServer(t *testing.T) (*api.Server, *gorm.DB) {
	t.Helper()
	db := testutils.NewTestDB(t)
	cfg := &config.APIConfig{Host: "127.0.0.1", Port: 0}
	return api.New(cfg, quotes.NewStore(db)), db
}

func get(t *testing.T, srv *api.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

type quotesResponse struct {
	Quotes []struct {
		ID        int64  `json:"id"`
		GuildID   int64  `json:"guild_id"`
		QuoteText string `json:"quote_text"`
		Score     int    `json:"score"`
	} `json:"quotes"`
	Count int `json:"count"`
}

func TestServer_ListQuotes(t *testing.T) {
	srv, db := newTestServer(t)
	store := quotes.NewStore(db)
	votes := quotes.NewVoteStore(db)
	ctx := context.Background()

	first, err := store.Add(ctx, quotes.AddOptions{GuildID: 1, Text: "guild one quote"})
	require.NoError(t, err)
	_, err = store.Add(ctx, quotes.AddOptions{GuildID: 2, Text: "guild two quote"})
	require.NoError(t, err)
	require.NoError(t, votes.CastOrReplace(ctx, first.ID, 7, quotes.Upvote))

	t.Run("all guilds", func(t *testing.T) {
		rec := get(t, srv, "/api/quotes")
		require.Equal(t, http.StatusOK, rec.Code)

		var body quotesResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 2, body.Count)
		assert.Len(t, body.Quotes, 2)
	})

	t.Run("filtered by guild", func(t *testing.T) {
		rec := get(t, srv, fmt.Sprintf("/api/quotes?guild_id=%d", 1))
		require.Equal(t, http.StatusOK, rec.Code)

		var body quotesResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, 1, body.Count)
		assert.Equal(t, "guild one quote", body.Quotes[0].QuoteText)
		assert.Equal(t, 1, body.Quotes[0].Score)
	})

	t.Run("unknown guild is empty, not an error", func(t *testing.T) {
		rec := get(t, srv, "/api/quotes?guild_id=999")
		require.Equal(t, http.StatusOK, rec.Code)

		var body quotesResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Zero(t, body.Count)
	})

	t.Run("malformed guild_id", func(t *testing.T) {
		rec := get(t, srv, "/api/quotes?guild_id=not-a-number")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "guild_id must be an integer")
	})
}

func TestServer_ListQuotes_CORS(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/quotes", nil)
	req.Header.Set("Origin", "https://quork.example")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
