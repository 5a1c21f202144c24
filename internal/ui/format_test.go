package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"notes-go/internal/notes"
)

func init() {
	color.NoColor = true
}

type stubLookup struct {
	categories map[string]notes.Category
	tags       map[string]notes.Tag
}

func (s stubLookup) Category(id string) (notes.Category, error) {
	if c, ok := s.categories[id]; ok {
		return c, nil
	}
	return notes.Category{}, notes.ErrNotFound
}

func (s stubLookup) Tag(id string) (notes.Tag, error) {
	if t, ok := s.tags[id]; ok {
		return t, nil
	}
	return notes.Tag{}, errors.New("no tag")
}

var lookup = stubLookup{
	categories: map[string]notes.Category{"c1": {ID: "c1", Name: "Work", Color: "#8C8579"}},
	tags: map[string]notes.Tag{
		"t1": {ID: "t1", Name: "Important"},
		"t2": {ID: "t2", Name: "Todo", Color: "#8A8276"},
	},
}

func TestFormatNoteListItem(t *testing.T) {
	n := notes.Note{
		ID:         "0a1b2c3d-4e5f-6789-abcd-ef0123456789",
		Title:      "Groceries",
		CategoryID: "c1",
		Tags:       []string{"t2", "ghost", "t1"},
		IsPinned:   true,
		UpdatedAt:  time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	}

	output := FormatNoteListItem(n, lookup)

	for _, want := range []string{"* 0a1b2c3d  Groceries", "Category: Work", "Tags: Todo, Important", "Updated: 2024-01-15 10:30"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "ghost") {
		t.Error("dangling tag rendered")
	}
}

func TestFormatNoteListItem_Untitled(t *testing.T) {
	output := FormatNoteListItem(notes.Note{ID: "n1"}, lookup)
	if !strings.Contains(output, notes.UntitledNote) {
		t.Errorf("expected %q in output:\n%s", notes.UntitledNote, output)
	}
	if strings.Contains(output, "Category:") || strings.Contains(output, "Tags:") {
		t.Errorf("unexpected label lines:\n%s", output)
	}
}

func TestFormatNoteHeader(t *testing.T) {
	n := notes.Note{ID: "n1", Title: "Plan", CategoryID: "gone", Tags: []string{"t1"}}
	output := FormatNoteHeader(n, lookup)

	if !strings.HasPrefix(output, "Plan\n") {
		t.Errorf("header should start with title:\n%s", output)
	}
	if strings.Contains(output, "Category:") {
		t.Error("dangling category rendered")
	}
	if !strings.Contains(output, "Tags: Important") {
		t.Errorf("tags missing:\n%s", output)
	}
	if strings.Contains(output, "Pinned:") {
		t.Error("unpinned note shows pin line")
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "milk, eggs", want: "milk, eggs"},
		{name: "paragraphs", in: "<p>one</p><p>two</p>", want: "one\n\ntwo"},
		{name: "inline markup", in: "<p><strong>bold</strong> &amp; <em>it</em></p>", want: "bold & it"},
		{name: "entities", in: "<p>it&#8217;s&nbsp;&hellip; &lt;b&gt;</p>", want: "it’s … <b>"},
		{name: "escaped ampersand not unescaped twice", in: "&amp;lt;", want: "&lt;"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatNoteContent(t *testing.T) {
	output := FormatNoteContent("<h1>Hello</h1><p>This is **bold** text.</p>")
	if !strings.Contains(output, "Hello") || !strings.Contains(output, "bold") {
		t.Errorf("rendered content missing text:\n%s", output)
	}
}

func TestSwatch(t *testing.T) {
	color.NoColor = false
	defer func() { color.NoColor = true }()

	if got := Swatch("", "x"); got != "x" {
		t.Errorf("Swatch(empty) = %q, want unstyled", got)
	}
	if got := Swatch("#zzzzzz", "x"); got != "x" {
		t.Errorf("Swatch(invalid) = %q, want unstyled", got)
	}
	if got := Swatch("#A69E8F", "x"); !strings.Contains(got, "38;2;166;158;143") {
		t.Errorf("Swatch(#A69E8F) = %q, want 24-bit foreground escape", got)
	}
}

func TestShortID(t *testing.T) {
	if got := ShortID("1"); got != "1" {
		t.Errorf("ShortID(1) = %q", got)
	}
	if got := ShortID("0a1b2c3d-4e5f"); got != "0a1b2c3d" {
		t.Errorf("ShortID() = %q", got)
	}
}

func TestFormatLabelList(t *testing.T) {
	output := FormatLabelList([]notes.LabelCount{
		{ID: "1", Name: "Personal", Count: 2},
		{ID: "2", Name: "Work", Count: 0},
	}, map[string]string{"1": "#A69E8F"})

	for _, want := range []string{"Personal (2)", "Work (0)"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}
