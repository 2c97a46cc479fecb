package quotes

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Embed colors, terminal style to match the quork website.
const (
	ColorCyan   = 0x00FFD1
	ColorGreen  = 0x2ECC71
	ColorOrange = 0xE67E22
	ColorRed    = 0xE74C3C
	ColorBlue   = 0x3498DB
)

// The footer line is the only durable link between a rendered message and
// its quote row: the reaction-vote bridge parses the id back out of it and
// rewrites only the bracketed score token. Both patterns are load-bearing.
var (
	footerIDPattern = regexp.MustCompile(`#(\d+)$`)
	scorePattern    = regexp.MustCompile(`\[[+\-]?\d+\]`)
)

// FormatScore renders a net score as a signed token: "+3", "-1", "0".
func FormatScore(score int) string {
	if score > 0 {
		return "+" + strconv.Itoa(score)
	}
	return strconv.Itoa(score)
}

// FormatDate formats a timestamp the way footers expect it, e.g.
// "January 02, 2006".
func FormatDate(t time.Time) string {
	return t.Format("January 02, 2006")
}

// FormatFooter builds the footer line:
//
//	[<signed-score>]  •  <Month DD, YYYY>  •  <display-name>  •  #<id>
func FormatFooter(score int, date time.Time, submitterName string, id int64) string {
	return fmt.Sprintf("[%s]  •  %s  •  %s  •  #%d",
		FormatScore(score), FormatDate(date), submitterName, id)
}

// QuoteIDFromFooter extracts the quote id from a rendered footer line.
func QuoteIDFromFooter(footer string) (int64, bool) {
	match := footerIDPattern.FindStringSubmatch(footer)
	if match == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// RewriteFooterScore replaces the bracketed score token in a footer,
// leaving every other field untouched.
func RewriteFooterScore(footer string, score int) string {
	return scorePattern.ReplaceAllString(footer, "["+FormatScore(score)+"]")
}

// Truncate shortens text to at most max characters, marking the cut with
// an ellipsis. Counts runes so multi-byte text stays within Discord limits.
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max-3]) + "..."
}

// ListLine shortens quote text for list rendering: the first 100 characters
// plus an ellipsis marker, independent of the stored length.
func ListLine(text string) string {
	runes := []rune(text)
	if len(runes) <= 100 {
		return text
	}
	return string(runes[:100]) + "..."
}

// Renderer formats quotes into Discord display units
type Renderer struct {
	// WebURL is the base for optional quote-detail links; empty disables
	// the link button.
	WebURL string
}

// NewRenderer creates a new quote renderer
func NewRenderer(webURL string) *Renderer {
	return &Renderer{WebURL: webURL}
}

// QuoteEmbed renders one quote as an embed: quoted text block, optional
// author attribution, optional context annotation, and the parseable footer.
func (r *Renderer) QuoteEmbed(q *Quote, score int, submitterName, submitterAvatar string) *discordgo.MessageEmbed {
	lines := []string{
		"```ansi",
		"\x1b[1;37m> \x1b[0;37m\"" + q.QuoteText + "\"",
		"```",
	}
	if q.AuthorName != nil && *q.AuthorName != "" {
		lines = append(lines, fmt.Sprintf("@**%s**", *q.AuthorName))
	}
	if q.Context != nil && *q.Context != "" {
		lines = append(lines, fmt.Sprintf("-# %s", *q.Context))
	}

	return &discordgo.MessageEmbed{
		Description: strings.Join(lines, "\n"),
		Color:       ColorCyan,
		Footer: &discordgo.MessageEmbedFooter{
			Text:    FormatFooter(score, q.CreatedAt, submitterName, q.ID),
			IconURL: submitterAvatar,
		},
	}
}

// LinkComponents returns a "View on Web" link row for a quote, or nil when
// no web base URL is configured.
func (r *Renderer) LinkComponents(quoteID int64) []discordgo.MessageComponent {
	if r.WebURL == "" {
		return nil
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label: "View on Web",
					Style: discordgo.LinkButton,
					URL:   fmt.Sprintf("%s/quotes/%d", r.WebURL, quoteID),
				},
			},
		},
	}
}

// ListEmbedOptions controls search-result list rendering
type ListEmbedOptions struct {
	// ShowOwner appends the submitter mention to each line; used when the
	// actor can act on anyone's quotes.
	ShowOwner  bool
	FooterText string
}

// ListEmbed renders one page of quotes as a numbered list embed.
func (r *Renderer) ListEmbed(pageRows []Quote, page, totalPages, totalRows int, opts ListEmbedOptions) *discordgo.MessageEmbed {
	lines := make([]string, 0, len(pageRows))
	for i, q := range pageRows {
		line := fmt.Sprintf("**%d.** \"%s\"", i+1, ListLine(q.QuoteText))

		var extras []string
		if q.AuthorName != nil && *q.AuthorName != "" {
			extras = append(extras, "~ "+*q.AuthorName)
		}
		if opts.ShowOwner && q.AddedByID != nil {
			extras = append(extras, fmt.Sprintf("<@%d>", *q.AddedByID))
		}
		if len(extras) > 0 {
			line += fmt.Sprintf(" (%s)", strings.Join(extras, " | "))
		}
		lines = append(lines, line)
	}

	description := strings.Join(lines, "\n")
	if totalPages > 1 {
		description += fmt.Sprintf("\n\n*Page %d/%d (%d quotes)*", page+1, totalPages, totalRows)
	}

	embed := &discordgo.MessageEmbed{
		Description: description,
		Color:       ColorBlue,
	}
	if opts.FooterText != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: opts.FooterText}
	}
	return embed
}
