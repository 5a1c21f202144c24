package notes

import (
	"context"
	"errors"
	"fmt"
)

// Collection names one of the fixed storage keys.
type Collection string

const (
	CollectionNotes      Collection = "notes"
	CollectionCategories Collection = "categories"
	CollectionTags       Collection = "tags"
)

// Collections lists every collection in save order.
var Collections = []Collection{CollectionNotes, CollectionCategories, CollectionTags}

// Valid reports whether c is one of the fixed collections.
func (c Collection) Valid() bool {
	switch c {
	case CollectionNotes, CollectionCategories, CollectionTags:
		return true
	}
	return false
}

// Gateway loads and saves the three collections over a Storage.
// Reads never fail: a missing key, a read error or a decode error all yield
// an empty collection, and the error is only logged.
type Gateway struct {
	storage Storage
	codec   Codec
	clock   Clock
	logger  Logger
}

// NewGateway creates a Gateway. A nil codec selects JSON; nil clock and
// logger select RealClock and NopLogger.
func NewGateway(storage Storage, codec Codec, clock Clock, logger Logger) *Gateway {
	if codec == nil {
		codec = JSONCodec{}
	}
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Gateway{storage: storage, codec: codec, clock: clock, logger: logger}
}

// Exists reports whether the collection key has ever been written.
func (g *Gateway) Exists(ctx context.Context, c Collection) (bool, error) {
	if !c.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}
	_, err := g.storage.Get(ctx, string(c))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", c, err)
	}
	return true, nil
}

// Loaded reports whether any collection has been stored.
func (g *Gateway) Loaded(ctx context.Context) (bool, error) {
	for _, c := range Collections {
		ok, err := g.Exists(ctx, c)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// LoadNotes returns the stored notes with missing fields defaulted.
func (g *Gateway) LoadNotes(ctx context.Context) []Note {
	notes := load[Note](ctx, g, CollectionNotes)
	now := g.clock.Now()
	for i := range notes {
		n := &notes[i]
		if n.Tags == nil {
			n.Tags = []string{}
		}
		if n.UpdatedAt.IsZero() {
			n.UpdatedAt = now
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = n.UpdatedAt
		}
	}
	return notes
}

// LoadCategories returns the stored categories.
func (g *Gateway) LoadCategories(ctx context.Context) []Category {
	return load[Category](ctx, g, CollectionCategories)
}

// LoadTags returns the stored tags.
func (g *Gateway) LoadTags(ctx context.Context) []Tag {
	return load[Tag](ctx, g, CollectionTags)
}

func (g *Gateway) SaveNotes(ctx context.Context, notes []Note) error {
	return g.Save(ctx, CollectionNotes, notes)
}

func (g *Gateway) SaveCategories(ctx context.Context, categories []Category) error {
	return g.Save(ctx, CollectionCategories, categories)
}

func (g *Gateway) SaveTags(ctx context.Context, tags []Tag) error {
	return g.Save(ctx, CollectionTags, tags)
}

// Save encodes entities and writes them under the collection key.
// Failures are returned as *PersistError.
func (g *Gateway) Save(ctx context.Context, c Collection, entities any) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}
	data, err := g.codec.Marshal(entities)
	if err != nil {
		return &PersistError{Collection: c, Err: fmt.Errorf("encoding: %w", err)}
	}
	if err := g.storage.Put(ctx, string(c), data); err != nil {
		return &PersistError{Collection: c, Err: err}
	}
	g.logger.Debug("collection saved", "collection", c, "bytes", len(data))
	return nil
}

func load[T any](ctx context.Context, g *Gateway, c Collection) []T {
	data, err := g.storage.Get(ctx, string(c))
	if err != nil {
		if !errors.Is(err, ErrKeyNotFound) {
			g.logger.Warn("collection read failed, using empty", "collection", c, "error", err)
		}
		return []T{}
	}
	var out []T
	if err := g.codec.Unmarshal(data, &out); err != nil {
		g.logger.Warn("collection decode failed, using empty", "collection", c, "codec", g.codec.Name(), "error", err)
		return []T{}
	}
	if out == nil {
		out = []T{}
	}
	return out
}
