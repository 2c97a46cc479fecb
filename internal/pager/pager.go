// Package pager implements ephemeral paginated selection menus. A session
// tracks one open menu; its select and page-flip components route back here
// through custom IDs until the owner picks a row or the session idles out.
package pager

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/quorkbot/quork/internal/discord"
)

// customIDPrefix namespaces pager components so the interaction router can
// hand them off without knowing about individual sessions.
const customIDPrefix = "quorkpager"

// PerPage is the page size, pinned to the select menu option limit.
const PerPage = 25

// Row is one selectable entry. Label and Description feed the select menu
// options; ID is handed back to the OnSelect hook.
type Row struct {
	ID          int64
	Label       string
	Description string
}

// Action tells the manager what to do with the session after a selection.
type Action int

const (
	// ActionKeep leaves the session untouched.
	ActionKeep Action = iota
	// ActionClose ends the session and disables the menu.
	ActionClose
	// ActionRemoveRow drops the selected row and re-renders the list.
	ActionRemoveRow
)

// Hooks customize one session's rendering and selection behavior.
type Hooks struct {
	// Placeholder is the select menu prompt, e.g. "Select a quote to edit...".
	Placeholder string

	// Embed renders the visible page. pageRows is the window for the
	// current page; page is zero-based.
	Embed func(pageRows []Row, page, totalPages, totalRows int) *discordgo.MessageEmbed

	// EmptyEmbed renders the terminal state after the last row was removed.
	EmptyEmbed func() *discordgo.MessageEmbed

	// OnSelect handles a picked row. It must respond to the component
	// interaction itself (modal, message, or deferred update); the returned
	// Action only steers session bookkeeping.
	OnSelect func(s discord.Session, i *discordgo.InteractionCreate, rowID int64) (Action, error)
}

type session struct {
	token      string
	ownerID    string
	rows       []Row
	page       int
	hooks      Hooks
	origin     *discordgo.Interaction
	lastActive time.Time
}

func (s *session) totalPages() int {
	pages := (len(s.rows) + PerPage - 1) / PerPage
	if pages < 1 {
		pages = 1
	}
	return pages
}

func (s *session) clampPage() {
	if max := s.totalPages() - 1; s.page > max {
		s.page = max
	}
	if s.page < 0 {
		s.page = 0
	}
}

func (s *session) pageRows() []Row {
	start := s.page * PerPage
	if start > len(s.rows) {
		start = len(s.rows)
	}
	end := start + PerPage
	if end > len(s.rows) {
		end = len(s.rows)
	}
	return s.rows[start:end]
}

func (s *session) removeRow(rowID int64) {
	for i, row := range s.rows {
		if row.ID == rowID {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			break
		}
	}
	s.clampPage()
}

// Manager owns every live pager session and routes their component
// interactions.
type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*session
	idleTimeout time.Duration
}

// NewManager creates a session manager. Sessions idle longer than
// idleTimeout get their components disabled by the sweeper.
func NewManager(idleTimeout time.Duration) *Manager {
	return &Manager{
		sessions:    make(map[string]*session),
		idleTimeout: idleTimeout,
	}
}

// Open responds to a command interaction with an ephemeral selection menu
// and registers the session for component routing.
func (m *Manager) Open(s discord.Session, i *discordgo.InteractionCreate, rows []Row, hooks Hooks) error {
	sess := &session{
		token:      uuid.NewString(),
		ownerID:    interactionUserID(i),
		rows:       rows,
		hooks:      hooks,
		origin:     i.Interaction,
		lastActive: time.Now(),
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{m.render(sess)},
			Components: m.components(sess, false),
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to open pager: %w", err)
	}

	m.mu.Lock()
	m.sessions[sess.token] = sess
	m.mu.Unlock()
	return nil
}

// HandleComponent routes a component interaction to its session. Returns
// false when the custom ID does not belong to a pager.
func (m *Manager) HandleComponent(s discord.Session, i *discordgo.InteractionCreate) bool {
	parts := strings.Split(i.MessageComponentData().CustomID, ":")
	if len(parts) != 3 || parts[0] != customIDPrefix {
		return false
	}
	token, verb := parts[1], parts[2]

	m.mu.Lock()
	sess, ok := m.sessions[token]
	m.mu.Unlock()
	if !ok {
		respondEphemeral(s, i, "This selection has expired. Run the command again.")
		return true
	}

	if userID := interactionUserID(i); userID != sess.ownerID {
		respondEphemeral(s, i, "This is not your selection!")
		return true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	sess.lastActive = time.Now()

	switch verb {
	case "prev":
		sess.page--
		sess.clampPage()
		m.updateFromComponent(s, i, sess)
	case "next":
		sess.page++
		sess.clampPage()
		m.updateFromComponent(s, i, sess)
	case "select":
		m.handleSelect(s, i, sess)
	default:
		slog.Warn("unknown pager verb", "verb", verb)
	}
	return true
}

func (m *Manager) handleSelect(s discord.Session, i *discordgo.InteractionCreate, sess *session) {
	values := i.MessageComponentData().Values
	if len(values) == 0 {
		return
	}
	rowID, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil {
		slog.Warn("malformed pager selection", "value", values[0])
		return
	}

	action, err := sess.hooks.OnSelect(s, i, rowID)
	if err != nil {
		slog.Error("pager selection hook failed", "error", err)
	}

	switch action {
	case ActionClose:
		delete(m.sessions, sess.token)
		m.editOrigin(s, sess, m.render(sess), m.components(sess, true))
	case ActionRemoveRow:
		sess.removeRow(rowID)
		if len(sess.rows) == 0 {
			delete(m.sessions, sess.token)
			m.editOrigin(s, sess, sess.hooks.EmptyEmbed(), []discordgo.MessageComponent{})
			return
		}
		m.editOrigin(s, sess, m.render(sess), m.components(sess, false))
	}
}

// updateFromComponent re-renders the menu as the component interaction's
// own response, which edits the hosting message in place.
func (m *Manager) updateFromComponent(s discord.Session, i *discordgo.InteractionCreate, sess *session) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{m.render(sess)},
			Components: m.components(sess, false),
		},
	})
	if err != nil {
		slog.Error("failed to update pager page", "error", err)
	}
}

// editOrigin rewrites the original command response hosting the menu. Used
// when the component interaction was already consumed by a selection hook.
func (m *Manager) editOrigin(s discord.Session, sess *session, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) {
	_, err := s.InteractionResponseEdit(sess.origin, &discordgo.WebhookEdit{
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})
	if err != nil {
		slog.Debug("failed to edit pager origin", "error", err)
	}
}

func (m *Manager) render(sess *session) *discordgo.MessageEmbed {
	return sess.hooks.Embed(sess.pageRows(), sess.page, sess.totalPages(), len(sess.rows))
}

func (m *Manager) components(sess *session, disabled bool) []discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, 0, PerPage)
	for _, row := range sess.pageRows() {
		options = append(options, discordgo.SelectMenuOption{
			Label:       row.Label,
			Value:       strconv.FormatInt(row.ID, 10),
			Description: row.Description,
		})
	}

	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    fmt.Sprintf("%s:%s:select", customIDPrefix, sess.token),
					Placeholder: sess.hooks.Placeholder,
					Options:     options,
					Disabled:    disabled,
				},
			},
		},
	}

	if sess.totalPages() > 1 {
		components = append(components, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Previous",
					Style:    discordgo.SecondaryButton,
					CustomID: fmt.Sprintf("%s:%s:prev", customIDPrefix, sess.token),
					Disabled: disabled || sess.page == 0,
				},
				discordgo.Button{
					Label:    "Next",
					Style:    discordgo.SecondaryButton,
					CustomID: fmt.Sprintf("%s:%s:next", customIDPrefix, sess.token),
					Disabled: disabled || sess.page == sess.totalPages()-1,
				},
			},
		})
	}

	return components
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func respondEphemeral(s discord.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		slog.Debug("failed to send pager notice", "error", err)
	}
}
