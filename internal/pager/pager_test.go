package pager

import (
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/quorkbot/quork/internal/discord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession records the REST calls a pager makes so tests can assert on
// rendered responses without a gateway connection.
type fakeSession struct {
	responses []*discordgo.InteractionResponse
	edits     []*discordgo.WebhookEdit
}

func (f *fakeSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeSession) InteractionResponse(*discordgo.Interaction, ...discordgo.RequestOption) (*discordgo.Message, error) {
	return nil, nil
}

func (f *fakeSession) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.edits = append(f.edits, edit)
	return nil, nil
}

func (f *fakeSession) InteractionResponseDelete(*discordgo.Interaction, ...discordgo.RequestOption) error {
	return nil
}

func (f *fakeSession) FollowupMessageCreate(*discordgo.Interaction, bool, *discordgo.WebhookParams, ...discordgo.RequestOption) (*discordgo.Message, error) {
	return nil, nil
}

func (f *fakeSession) FollowupMessageDelete(*discordgo.Interaction, string, ...discordgo.RequestOption) error {
	return nil
}

func (f *fakeSession) ChannelMessage(string, string, ...discordgo.RequestOption) (*discordgo.Message, error) {
	return nil, nil
}

func (f *fakeSession) ChannelMessageEditComplex(*discordgo.MessageEdit, ...discordgo.RequestOption) (*discordgo.Message, error) {
	return nil, nil
}

func (f *fakeSession) MessageReactionAdd(string, string, string, ...discordgo.RequestOption) error {
	return nil
}

func (f *fakeSession) MessageReactionRemove(string, string, string, string, ...discordgo.RequestOption) error {
	return nil
}

func (f *fakeSession) GuildMember(string, string, ...discordgo.RequestOption) (*discordgo.Member, error) {
	return nil, nil
}

func (f *fakeSession) User(string, ...discordgo.RequestOption) (*discordgo.User, error) {
	return nil, nil
}

func (f *fakeSession) GuildMemberTimeout(string, string, *time.Time, ...discordgo.RequestOption) error {
	return nil
}

func (f *fakeSession) GuildMemberNickname(string, string, string, ...discordgo.RequestOption) error {
	return nil
}

func (f *fakeSession) lastResponse(t *testing.T) *discordgo.InteractionResponse {
	t.Helper()
	require.NotEmpty(t, f.responses)
	return f.responses[len(f.responses)-1]
}

func commandInteraction(userID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:   discordgo.InteractionApplicationCommand,
		Member: &discordgo.Member{User: &discordgo.User{ID: userID}},
	}}
}

func componentInteraction(userID, customID string, values ...string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:   discordgo.InteractionMessageComponent,
		Member: &discordgo.Member{User: &discordgo.User{ID: userID}},
		Data: discordgo.MessageComponentInteractionData{
			CustomID: customID,
			Values:   values,
		},
	}}
}

func makeRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{ID: int64(i + 1), Label: fmt.Sprintf("row %d", i+1)}
	}
	return rows
}

func testHooks(onSelect func(rowID int64) (Action, error)) Hooks {
	if onSelect == nil {
		onSelect = func(int64) (Action, error) { return ActionKeep, nil }
	}
	return Hooks{
		Placeholder: "Pick one...",
		Embed: func(pageRows []Row, page, totalPages, totalRows int) *discordgo.MessageEmbed {
			return &discordgo.MessageEmbed{
				Description: fmt.Sprintf("page %d/%d rows %d", page+1, totalPages, totalRows),
			}
		},
		EmptyEmbed: func() *discordgo.MessageEmbed {
			return &discordgo.MessageEmbed{Description: "nothing left"}
		},
		OnSelect: func(_ discord.Session, _ *discordgo.InteractionCreate, rowID int64) (Action, error) {
			return onSelect(rowID)
		},
	}
}

func singleToken(t *testing.T, m *Manager) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.Len(t, m.sessions, 1)
	for token := range m.sessions {
		return token
	}
	return ""
}

func TestManager_Open_SinglePage(t *testing.T) {
	m := NewManager(time.Minute)
	s := &fakeSession{}

	err := m.Open(s, commandInteraction("owner"), makeRows(3), testHooks(nil))
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	resp := s.lastResponse(t)
	assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, resp.Type)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
	assert.Contains(t, resp.Data.Embeds[0].Description, "page 1/1 rows 3")

	// No page-flip row when everything fits on one page
	require.Len(t, resp.Data.Components, 1)
	row, ok := resp.Data.Components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	menu, ok := row.Components[0].(discordgo.SelectMenu)
	require.True(t, ok)
	assert.Equal(t, "Pick one...", menu.Placeholder)
	require.Len(t, menu.Options, 3)
	assert.Equal(t, "1", menu.Options[0].Value)
	assert.Equal(t, "row 1", menu.Options[0].Label)
}

func TestManager_Open_MultiPage(t *testing.T) {
	m := NewManager(time.Minute)
	s := &fakeSession{}

	require.NoError(t, m.Open(s, commandInteraction("owner"), makeRows(60), testHooks(nil)))

	resp := s.lastResponse(t)
	assert.Contains(t, resp.Data.Embeds[0].Description, "page 1/3 rows 60")
	require.Len(t, resp.Data.Components, 2)

	menu := resp.Data.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	assert.Len(t, menu.Options, PerPage)

	buttons := resp.Data.Components[1].(discordgo.ActionsRow)
	prev := buttons.Components[0].(discordgo.Button)
	next := buttons.Components[1].(discordgo.Button)
	assert.True(t, prev.Disabled)
	assert.False(t, next.Disabled)
}

func TestManager_HandleComponent_PageFlip(t *testing.T) {
	m := NewManager(time.Minute)
	s := &fakeSession{}
	require.NoError(t, m.Open(s, commandInteraction("owner"), makeRows(60), testHooks(nil)))
	token := singleToken(t, m)

	handled := m.HandleComponent(s, componentInteraction("owner", customIDPrefix+":"+token+":next"))
	require.True(t, handled)

	resp := s.lastResponse(t)
	assert.Equal(t, discordgo.InteractionResponseUpdateMessage, resp.Type)
	assert.Contains(t, resp.Data.Embeds[0].Description, "page 2/3")

	// The window shifts with the page
	menu := resp.Data.Components[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	assert.Equal(t, "26", menu.Options[0].Value)

	// Flipping past the last page clamps
	m.HandleComponent(s, componentInteraction("owner", customIDPrefix+":"+token+":next"))
	m.HandleComponent(s, componentInteraction("owner", customIDPrefix+":"+token+":next"))
	assert.Contains(t, s.lastResponse(t).Data.Embeds[0].Description, "page 3/3")
}

func TestManager_HandleComponent_UnrelatedCustomID(t *testing.T) {
	m := NewManager(time.Minute)
	s := &fakeSession{}

	handled := m.HandleComponent(s, componentInteraction("owner", "qedit:abc:42"))
	assert.False(t, handled)
	assert.Empty(t, s.responses)
}

func TestManager_HandleComponent_ExpiredSession(t *testing.T) {
	m := NewManager(time.Minute)
	s := &fakeSession{}

	handled := m.HandleComponent(s, componentInteraction("owner", customIDPrefix+":gone:select", "1"))
	require.True(t, handled)

	resp := s.lastResponse(t)
	assert.Contains(t, resp.Data.Content, "expired")
	assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
}

func TestManager_HandleComponent_OwnerGating(t *testing.T) {
	m := NewManager(time.Minute)
	s := &fakeSession{}
	selected := false
	require.NoError(t, m.Open(s, commandInteraction("owner"), makeRows(3), testHooks(func(int64) (Action, error) {
		selected = true
		return ActionKeep, nil
	})))
	token := singleToken(t, m)

	handled := m.HandleComponent(s, componentInteraction("intruder", customIDPrefix+":"+token+":select", "1"))
	require.True(t, handled)
	assert.False(t, selected)
	assert.Equal(t, "This is not your selection!", s.lastResponse(t).Data.Content)
}

func TestManager_HandleComponent_SelectRemoveRow(t *testing.T) {
	m := NewManager(time.Minute)
	s := &fakeSession{}
	var picked int64
	require.NoError(t, m.Open(s, commandInteraction("owner"), makeRows(2), testHooks(func(rowID int64) (Action, error) {
		picked = rowID
		return ActionRemoveRow, nil
	})))
	token := singleToken(t, m)

	m.HandleComponent(s, componentInteraction("owner", customIDPrefix+":"+token+":select", "1"))
	assert.Equal(t, int64(1), picked)
	assert.Equal(t, 1, m.Len())

	// The origin message was re-rendered without the removed row
	require.Len(t, s.edits, 1)
	assert.Contains(t, (*s.edits[0].Embeds)[0].Description, "rows 1")

	// Removing the last row closes the session with the empty-state embed
	m.HandleComponent(s, componentInteraction("owner", customIDPrefix+":"+token+":select", "2"))
	assert.Equal(t, 0, m.Len())
	require.Len(t, s.edits, 2)
	assert.Equal(t, "nothing left", (*s.edits[1].Embeds)[0].Description)
	assert.Empty(t, *s.edits[1].Components)
}

func TestManager_HandleComponent_RemoveLastRowOnLastPage(t *testing.T) {
	m := NewManager(time.Minute)
	s := &fakeSession{}
	require.NoError(t, m.Open(s, commandInteraction("owner"), makeRows(26), testHooks(func(int64) (Action, error) {
		return ActionRemoveRow, nil
	})))
	token := singleToken(t, m)

	m.HandleComponent(s, componentInteraction("owner", customIDPrefix+":"+token+":next"))
	assert.Contains(t, s.lastResponse(t).Data.Embeds[0].Description, "page 2/2 rows 26")

	// Removing page 2's only row clamps the view back to a now-single page
	m.HandleComponent(s, componentInteraction("owner", customIDPrefix+":"+token+":select", "26"))
	assert.Equal(t, 1, m.Len())

	require.Len(t, s.edits, 1)
	assert.Contains(t, (*s.edits[0].Embeds)[0].Description, "page 1/1 rows 25")
	menu := (*s.edits[0].Components)[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	require.Len(t, menu.Options, PerPage)
	assert.Equal(t, "1", menu.Options[0].Value)
	assert.Equal(t, "25", menu.Options[24].Value)
}

func TestManager_HandleComponent_SelectClose(t *testing.T) {
	m := NewManager(time.Minute)
	s := &fakeSession{}
	require.NoError(t, m.Open(s, commandInteraction("owner"), makeRows(3), testHooks(func(int64) (Action, error) {
		return ActionClose, nil
	})))
	token := singleToken(t, m)

	m.HandleComponent(s, componentInteraction("owner", customIDPrefix+":"+token+":select", "2"))
	assert.Equal(t, 0, m.Len())

	// Components stay visible but disabled
	require.Len(t, s.edits, 1)
	menu := (*s.edits[0].Components)[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	assert.True(t, menu.Disabled)
}

func TestManager_Sweep(t *testing.T) {
	m := NewManager(time.Minute)
	s := &fakeSession{}
	require.NoError(t, m.Open(s, commandInteraction("owner"), makeRows(3), testHooks(nil)))
	token := singleToken(t, m)

	// Fresh session survives a sweep
	m.sweep(s)
	assert.Equal(t, 1, m.Len())
	assert.Empty(t, s.edits)

	m.mu.Lock()
	m.sessions[token].lastActive = time.Now().Add(-2 * time.Minute)
	m.mu.Unlock()

	m.sweep(s)
	assert.Equal(t, 0, m.Len())
	require.Len(t, s.edits, 1)
	menu := (*s.edits[0].Components)[0].(discordgo.ActionsRow).Components[0].(discordgo.SelectMenu)
	assert.True(t, menu.Disabled)
}

func TestSession_PageMath(t *testing.T) {
	tests := []struct {
		rows      int
		wantPages int
	}{
		{0, 1},
		{1, 1},
		{25, 1},
		{26, 2},
		{50, 2},
		{51, 3},
	}

	for _, tt := range tests {
		sess := &session{rows: makeRows(tt.rows)}
		assert.Equal(t, tt.wantPages, sess.totalPages(), "rows=%d", tt.rows)
	}
}
