package testutil

import (
	"context"
	"testing"

	"notes-go/internal/notes"
)

// TestRegistry bundles a Registry with the fakes behind it.
type TestRegistry struct {
	*notes.Registry
	Storage *FailingStorage
	Gateway *notes.Gateway
	Clock   *StubClock
	IDs     *StubIDGenerator
}

// NewTestRegistry opens a Registry over empty in-memory storage with a fixed
// clock and sequential ids. Default categories and tags are not seeded
// unless opts re-enable them.
func NewTestRegistry(t *testing.T, opts ...notes.Option) *TestRegistry {
	t.Helper()
	return OpenTestRegistry(t, NewFailingStorage(), opts...)
}

// OpenTestRegistry is NewTestRegistry over an existing store, for restart
// scenarios.
func OpenTestRegistry(t *testing.T, s *FailingStorage, opts ...notes.Option) *TestRegistry {
	t.Helper()

	clock := FixedClock()
	ids := NewStubIDGenerator()
	gw := notes.NewGateway(s, notes.JSONCodec{}, clock, notes.NewNopLogger())

	all := append([]notes.Option{
		notes.WithClock(clock),
		notes.WithIDGenerator(ids),
		notes.WithSeed(false),
	}, opts...)

	r, err := notes.Open(context.Background(), gw, all...)
	if err != nil {
		t.Fatalf("notes.Open() error = %v", err)
	}
	return &TestRegistry{Registry: r, Storage: s, Gateway: gw, Clock: clock, IDs: ids}
}

// NewLabeledTestRegistry is NewTestRegistry over storage that already holds
// a category for each id in categoryIDs and a tag for each id in tagIDs.
func NewLabeledTestRegistry(t *testing.T, categoryIDs, tagIDs []string, opts ...notes.Option) *TestRegistry {
	t.Helper()

	s := NewFailingStorage()
	gw := notes.NewGateway(s, notes.JSONCodec{}, FixedClock(), notes.NewNopLogger())

	categories := make([]notes.Category, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		categories = append(categories, notes.Category{ID: id, Name: "Category " + id})
	}
	tags := make([]notes.Tag, 0, len(tagIDs))
	for _, id := range tagIDs {
		tags = append(tags, notes.Tag{ID: id, Name: "Tag " + id})
	}
	ctx := context.Background()
	if err := gw.SaveCategories(ctx, categories); err != nil {
		t.Fatalf("SaveCategories() error = %v", err)
	}
	if err := gw.SaveTags(ctx, tags); err != nil {
		t.Fatalf("SaveTags() error = %v", err)
	}
	return OpenTestRegistry(t, s, opts...)
}
