package notes

import (
	"slices"
	"time"
)

// UntitledNote is shown in place of an empty title.
const UntitledNote = "Untitled Note"

// Note is a single user document. Content is opaque to the store.
type Note struct {
	ID         string    `json:"id" yaml:"id"`
	Title      string    `json:"title" yaml:"title"`
	Content    string    `json:"content" yaml:"content"`
	CategoryID string    `json:"categoryId,omitempty" yaml:"categoryId,omitempty"`
	Tags       []string  `json:"tags" yaml:"tags"`
	IsPinned   bool      `json:"isPinned" yaml:"isPinned"`
	CreatedAt  time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// DisplayTitle returns the title, or UntitledNote when it is empty.
func (n Note) DisplayTitle() string {
	if n.Title == "" {
		return UntitledNote
	}
	return n.Title
}

// HasTag reports whether the note carries the given tag id.
func (n Note) HasTag(tagID string) bool {
	return slices.Contains(n.Tags, tagID)
}

func (n Note) clone() Note {
	n.Tags = slices.Clone(n.Tags)
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return n
}

// Category groups notes. ParentID is stored but never traversed.
type Category struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Color    string `json:"color" yaml:"color"`
	ParentID string `json:"parentId,omitempty" yaml:"parentId,omitempty"`
}

// Tag is a label attachable to many notes.
type Tag struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

// NoteInput carries the optional fields of a new note.
type NoteInput struct {
	Title      string
	Content    string
	CategoryID string
	Tags       []string
}

// NotePatch is a partial update. Nil fields are left unchanged; a non-nil
// empty CategoryID clears the category.
type NotePatch struct {
	Title      *string
	Content    *string
	CategoryID *string
	Tags       *[]string
	IsPinned   *bool
}

// LabelCount pairs a category or tag id with the number of notes using it.
type LabelCount struct {
	ID    string
	Name  string
	Count int
}

// dedupe returns ids with duplicates and empty strings removed, keeping the
// first occurrence of each.
func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
