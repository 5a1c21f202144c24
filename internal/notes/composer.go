package notes

import (
	"strings"

	"golang.org/x/text/cases"
)

// View is a composed, read-only rendering of the registry.
type View struct {
	Notes    []Note
	Filter   FilterState
	Revision uint64
}

// Compose derives the ordered, filtered list of notes to display.
//
// The base sequence is the manual order when one is set, otherwise insertion
// order. Pinned notes are then moved ahead of unpinned ones without
// disturbing relative order, and finally the filters narrow the result.
// Compose never mutates its inputs and returns fresh copies.
func Compose(notes []Note, categories []Category, tags []Tag, filter FilterState) []Note {
	base := notes
	if len(filter.ManualOrder) > 0 {
		base = orderBy(notes, NormalizeOrder(filter.ManualOrder, notes))
	}

	ordered := make([]Note, 0, len(base))
	for _, n := range base {
		if n.IsPinned {
			ordered = append(ordered, n)
		}
	}
	for _, n := range base {
		if !n.IsPinned {
			ordered = append(ordered, n)
		}
	}

	m := newMatcher(categories, tags, filter)
	out := make([]Note, 0, len(ordered))
	for _, n := range ordered {
		if m.match(n) {
			out = append(out, n.clone())
		}
	}
	return out
}

// NormalizeOrder reconciles a requested order with the notes present:
// unknown and repeated ids are dropped, and notes the request omits are
// appended in their current relative order.
func NormalizeOrder(ids []string, notes []Note) []string {
	present := make(map[string]struct{}, len(notes))
	for _, n := range notes {
		present[n.ID] = struct{}{}
	}

	out := make([]string, 0, len(notes))
	seen := make(map[string]struct{}, len(notes))
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, n := range notes {
		if _, ok := seen[n.ID]; !ok {
			seen[n.ID] = struct{}{}
			out = append(out, n.ID)
		}
	}
	return out
}

// orderBy arranges notes by ids. Notes sharing an id, which only tampered
// storage produces, stay together at that id's position.
func orderBy(notes []Note, ids []string) []Note {
	byID := make(map[string][]Note, len(notes))
	for _, n := range notes {
		byID[n.ID] = append(byID[n.ID], n)
	}
	out := make([]Note, 0, len(notes))
	for _, id := range ids {
		out = append(out, byID[id]...)
		delete(byID, id)
	}
	return out
}

type matcher struct {
	categoryID string
	tagID      string
	query      string
	fold       cases.Caser
	categories map[string]string
	tags       map[string]string
}

func newMatcher(categories []Category, tags []Tag, filter FilterState) *matcher {
	m := &matcher{
		categoryID: filter.CategoryID,
		tagID:      filter.TagID,
		fold:       cases.Fold(),
	}
	if q := filter.Query; q != "" {
		m.query = m.fold.String(q)
		m.categories = make(map[string]string, len(categories))
		for _, c := range categories {
			m.categories[c.ID] = m.fold.String(c.Name)
		}
		m.tags = make(map[string]string, len(tags))
		for _, t := range tags {
			m.tags[t.ID] = m.fold.String(t.Name)
		}
	}
	return m
}

func (m *matcher) match(n Note) bool {
	if m.categoryID != "" && n.CategoryID != m.categoryID {
		return false
	}
	if m.tagID != "" && !n.HasTag(m.tagID) {
		return false
	}
	if m.query == "" {
		return true
	}
	if strings.Contains(m.fold.String(n.Title), m.query) ||
		strings.Contains(m.fold.String(n.Content), m.query) {
		return true
	}
	if name, ok := m.categories[n.CategoryID]; ok && n.CategoryID != "" && strings.Contains(name, m.query) {
		return true
	}
	for _, id := range n.Tags {
		if name, ok := m.tags[id]; ok && strings.Contains(name, m.query) {
			return true
		}
	}
	return false
}
