package notes_test

import (
	"math/rand/v2"
	"slices"
	"testing"

	"notes-go/internal/notes"
)

func ids(ns []notes.Note) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.ID
	}
	return out
}

var (
	testCategories = []notes.Category{
		{ID: "c1", Name: "Work"},
		{ID: "c2", Name: "Écoles"},
	}
	testTags = []notes.Tag{
		{ID: "t1", Name: "Important"},
		{ID: "t2", Name: "Research"},
	}
)

func fixtureNotes() []notes.Note {
	return []notes.Note{
		{ID: "a", Title: "Groceries", Content: "milk, eggs", Tags: []string{}},
		{ID: "b", Title: "Work Plan", Content: "quarterly goals", CategoryID: "c1", Tags: []string{"t1"}},
		{ID: "c", Title: "Groceries 2", Content: "bread", Tags: []string{}, IsPinned: true},
		{ID: "d", Title: "", Content: "untitled body", CategoryID: "c2", Tags: []string{"t2", "t1"}},
		{ID: "e", Title: "Reading list", Content: "", CategoryID: "gone", Tags: []string{"ghost"}, IsPinned: true},
	}
}

func TestCompose_Ordering(t *testing.T) {
	tests := []struct {
		name   string
		filter notes.FilterState
		want   []string
	}{
		{
			name: "pinned first, insertion order within partitions",
			want: []string{"c", "e", "a", "b", "d"},
		},
		{
			name:   "manual order then pin partition",
			filter: notes.FilterState{ManualOrder: []string{"d", "e", "b", "a", "c"}},
			want:   []string{"e", "c", "d", "b", "a"},
		},
		{
			name:   "manual order drops unknown and repeated ids, appends missing",
			filter: notes.FilterState{ManualOrder: []string{"zzz", "b", "b", "a"}},
			want:   []string{"c", "e", "b", "a", "d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(notes.Compose(fixtureNotes(), testCategories, testTags, tt.filter))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Compose() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompose_Filters(t *testing.T) {
	tests := []struct {
		name   string
		filter notes.FilterState
		want   []string
	}{
		{name: "category", filter: notes.FilterState{CategoryID: "c1"}, want: []string{"b"}},
		{name: "tag", filter: notes.FilterState{TagID: "t1"}, want: []string{"b", "d"}},
		{name: "category and tag", filter: notes.FilterState{CategoryID: "c2", TagID: "t1"}, want: []string{"d"}},
		{name: "unknown category", filter: notes.FilterState{CategoryID: "nope"}, want: []string{}},
		{name: "query matches title case-insensitively", filter: notes.FilterState{Query: "GROCERIES"}, want: []string{"c", "a"}},
		{name: "query matches content", filter: notes.FilterState{Query: "Goals"}, want: []string{"b"}},
		{name: "query matches category name", filter: notes.FilterState{Query: "work"}, want: []string{"b"}},
		{name: "query folds accents by case", filter: notes.FilterState{Query: "écoles"}, want: []string{"d"}},
		{name: "query matches tag name", filter: notes.FilterState{Query: "research"}, want: []string{"d"}},
		{name: "dangling references contribute no name", filter: notes.FilterState{Query: "ghost"}, want: []string{}},
		{name: "query and tag combine", filter: notes.FilterState{Query: "plan", TagID: "t1"}, want: []string{"b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(notes.Compose(fixtureNotes(), testCategories, testTags, tt.filter))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Compose() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompose_GroceriesScenario(t *testing.T) {
	ns := []notes.Note{
		{ID: "1", Title: "Groceries"},
		{ID: "2", Title: "Work Plan"},
		{ID: "3", Title: "Groceries 2"},
	}
	got := ids(notes.Compose(ns, nil, nil, notes.FilterState{Query: "Groceries"}))
	if want := []string{"1", "3"}; !slices.Equal(got, want) {
		t.Errorf("Compose() = %v, want %v", got, want)
	}
}

func TestCompose_Pure(t *testing.T) {
	input := fixtureNotes()
	before := fixtureNotes()
	filter := notes.FilterState{Query: "o", ManualOrder: []string{"e", "a"}}

	first := notes.Compose(input, testCategories, testTags, filter)
	second := notes.Compose(input, testCategories, testTags, filter)

	if !slices.Equal(ids(first), ids(second)) {
		t.Errorf("Compose() not idempotent: %v then %v", ids(first), ids(second))
	}
	for i := range input {
		if input[i].ID != before[i].ID || !slices.Equal(input[i].Tags, before[i].Tags) {
			t.Errorf("input[%d] mutated: %+v", i, input[i])
		}
	}

	// Output is a copy: mutating it must not reach the input.
	first[0].Title = "changed"
	if len(first[0].Tags) > 0 {
		first[0].Tags[0] = "changed"
	}
	for i := range input {
		if input[i].Title == "changed" || slices.Contains(input[i].Tags, "changed") {
			t.Errorf("input[%d] reachable through output", i)
		}
	}
}

// Random notes and filters: pinned always lead, and every filtered result is
// a subsequence of the unfiltered one.
func TestCompose_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	words := []string{"alpha", "beta", "gamma", "Delta", "work", "todo"}

	for iter := 0; iter < 200; iter++ {
		var ns []notes.Note
		count := rng.IntN(12)
		for i := 0; i < count; i++ {
			n := notes.Note{
				ID:       string(rune('A' + i)),
				Title:    words[rng.IntN(len(words))],
				Content:  words[rng.IntN(len(words))],
				IsPinned: rng.IntN(3) == 0,
			}
			if rng.IntN(2) == 0 {
				n.CategoryID = []string{"c1", "c2", "gone"}[rng.IntN(3)]
			}
			if rng.IntN(2) == 0 {
				n.Tags = []string{[]string{"t1", "t2"}[rng.IntN(2)]}
			}
			ns = append(ns, n)
		}

		var manual []string
		if rng.IntN(2) == 0 {
			for _, i := range rng.Perm(len(ns)) {
				manual = append(manual, ns[i].ID)
			}
		}
		base := notes.Compose(ns, testCategories, testTags, notes.FilterState{ManualOrder: manual})

		seenUnpinned := false
		for _, n := range base {
			if !n.IsPinned {
				seenUnpinned = true
			} else if seenUnpinned {
				t.Fatalf("iteration %d: pinned note %s after unpinned in %v", iter, n.ID, ids(base))
			}
		}
		if len(base) != len(ns) {
			t.Fatalf("iteration %d: unfiltered view has %d notes, want %d", iter, len(base), len(ns))
		}

		filter := notes.FilterState{
			CategoryID:  []string{"", "c1", "c2"}[rng.IntN(3)],
			TagID:       []string{"", "t1", "t2"}[rng.IntN(3)],
			Query:       []string{"", "a", "work", "TODO"}[rng.IntN(4)],
			ManualOrder: manual,
		}
		filtered := notes.Compose(ns, testCategories, testTags, filter)
		if !isSubsequence(ids(filtered), ids(base)) {
			t.Fatalf("iteration %d: filtered %v is not a subsequence of %v", iter, ids(filtered), ids(base))
		}
	}
}

func isSubsequence(sub, seq []string) bool {
	i := 0
	for _, s := range seq {
		if i < len(sub) && sub[i] == s {
			i++
		}
	}
	return i == len(sub)
}

func TestNormalizeOrder(t *testing.T) {
	ns := []notes.Note{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "empty keeps natural order", in: nil, want: []string{"a", "b", "c"}},
		{name: "full permutation", in: []string{"c", "a", "b"}, want: []string{"c", "a", "b"}},
		{name: "partial appends rest", in: []string{"c"}, want: []string{"c", "a", "b"}},
		{name: "unknown ignored", in: []string{"x", "b", "y"}, want: []string{"b", "a", "c"}},
		{name: "duplicates ignored", in: []string{"b", "b", "a", "b"}, want: []string{"b", "a", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := notes.NormalizeOrder(tt.in, ns)
			if !slices.Equal(got, tt.want) {
				t.Errorf("NormalizeOrder(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if again := notes.NormalizeOrder(got, ns); !slices.Equal(again, got) {
				t.Errorf("NormalizeOrder not idempotent: %v then %v", got, again)
			}
		})
	}
}
