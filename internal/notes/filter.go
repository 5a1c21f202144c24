package notes

import (
	"strconv"
	"strings"
)

// FilterState is the ephemeral view selection. It is never persisted.
type FilterState struct {
	CategoryID  string
	TagID       string
	Query       string
	ManualOrder []string
}

// IsZero reports whether no narrowing filter is active.
func (f FilterState) IsZero() bool {
	return f.CategoryID == "" && f.TagID == "" && f.Query == ""
}

// fingerprint identifies a filter for view caching.
func (f FilterState) fingerprint() string {
	var b strings.Builder
	for _, s := range []string{f.CategoryID, f.TagID, f.Query} {
		b.WriteString(strconv.Quote(s))
		b.WriteByte('|')
	}
	for _, id := range f.ManualOrder {
		b.WriteString(strconv.Quote(id))
		b.WriteByte(',')
	}
	return b.String()
}

func (f FilterState) clone() FilterState {
	if f.ManualOrder != nil {
		f.ManualOrder = append([]string(nil), f.ManualOrder...)
	}
	return f
}
