// Package ui formats notes, categories and tags for terminal output.
package ui

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"

	"notes-go/internal/notes"
)

const (
	idPrefixLen = 8
	timeLayout  = "2006-01-02 15:04"
)

var (
	faint = color.New(color.Faint).SprintFunc()
	bold  = color.New(color.Bold).SprintFunc()
	cyan  = color.New(color.FgCyan).SprintFunc()

	htmlTag   = regexp.MustCompile(`<[^>]*>`)
	blockTag  = regexp.MustCompile(`(?i)</?(p|div|br|li|h[1-6])\b[^>]*>`)
	blankRuns = regexp.MustCompile(`\n{3,}`)
)

// Lookup resolves the names and colors referenced by a note.
type Lookup interface {
	Category(id string) (notes.Category, error)
	Tag(id string) (notes.Tag, error)
}

// Swatch paints s with a #RRGGBB color. Empty or malformed colors leave s
// unstyled.
func Swatch(hex, s string) string {
	if len(hex) != 7 || hex[0] != '#' {
		return s
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return s
	}
	return color.RGB(int(v>>16&0xff), int(v>>8&0xff), int(v&0xff)).Sprint(s)
}

// ShortID returns the prefix of id shown in listings.
func ShortID(id string) string {
	if len(id) <= idPrefixLen {
		return id
	}
	return id[:idPrefixLen]
}

// PlainText strips markup from note content, keeping block breaks.
func PlainText(content string) string {
	s := blockTag.ReplaceAllString(content, "\n")
	s = htmlTag.ReplaceAllString(s, "")
	s = strings.ReplaceAll(html.UnescapeString(s), "\u00a0", " ")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func labels(n notes.Note, l Lookup) (category string, tags []string) {
	if c, err := l.Category(n.CategoryID); err == nil {
		category = Swatch(c.Color, c.Name)
	}
	for _, id := range n.Tags {
		if t, err := l.Tag(id); err == nil {
			tags = append(tags, Swatch(t.Color, t.Name))
		}
	}
	return category, tags
}

func FormatNoteListItem(n notes.Note, l Lookup) string {
	var sb strings.Builder

	pin := " "
	if n.IsPinned {
		pin = "*"
	}
	sb.WriteString(fmt.Sprintf("%s %s  %s\n", pin, faint(ShortID(n.ID)), bold(n.DisplayTitle())))

	category, tags := labels(n, l)
	if category != "" {
		sb.WriteString(fmt.Sprintf("           %s %s\n", faint("Category:"), category))
	}
	if len(tags) > 0 {
		sb.WriteString(fmt.Sprintf("           %s %s\n", faint("Tags:"), strings.Join(tags, ", ")))
	}
	sb.WriteString(fmt.Sprintf("           %s %s\n", faint("Updated:"), faint(n.UpdatedAt.Format(timeLayout))))

	return sb.String()
}

func FormatNoteHeader(n notes.Note, l Lookup) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s\n", bold(n.DisplayTitle())))
	sb.WriteString(fmt.Sprintf("%s %s\n", faint("ID:"), faint(n.ID)))
	if n.IsPinned {
		sb.WriteString(fmt.Sprintf("%s %s\n", faint("Pinned:"), cyan("yes")))
	}
	category, tags := labels(n, l)
	if category != "" {
		sb.WriteString(fmt.Sprintf("%s %s\n", faint("Category:"), category))
	}
	if len(tags) > 0 {
		sb.WriteString(fmt.Sprintf("%s %s\n", faint("Tags:"), strings.Join(tags, ", ")))
	}
	sb.WriteString(fmt.Sprintf("%s %s\n", faint("Created:"), faint(n.CreatedAt.Format(timeLayout))))
	sb.WriteString(fmt.Sprintf("%s %s\n", faint("Updated:"), faint(n.UpdatedAt.Format(timeLayout))))

	sb.WriteString(Separator())
	return sb.String()
}

// FormatNoteContent renders content as markdown after stripping markup.
// Rendering failures fall back to the plain text.
func FormatNoteContent(content string) string {
	text := PlainText(content)
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return text + "\n"
	}
	out, err := renderer.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}

// FormatLabelList prints one line per category or tag with its note count.
// colors maps ids to their #RRGGBB color.
func FormatLabelList(counts []notes.LabelCount, colors map[string]string) string {
	var sb strings.Builder
	for _, c := range counts {
		sb.WriteString(fmt.Sprintf("  %s  %s %s\n",
			faint(ShortID(c.ID)),
			Swatch(colors[c.ID], c.Name),
			faint(fmt.Sprintf("(%d)", c.Count))))
	}
	return sb.String()
}

func Separator() string {
	return faint(strings.Repeat("─", 50)) + "\n"
}

func Success(msg string) string {
	return color.New(color.FgGreen).Sprint("✓ ") + msg
}

func Error(msg string) string {
	return color.New(color.FgRed).Sprint("✗ ") + msg
}

var _ Lookup = (*notes.Registry)(nil)
