package notes

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultViewCacheSize = 64
	maxIDAttempts        = 16
)

// Registry owns the canonical notes, categories and tags.
//
// Every mutator applies its change in memory, saves the affected
// collections, and then notifies subscribers with the recomputed view. A
// failed save is logged and returned as a *PersistError, but the in-memory
// change is kept. Subscribers run after the registry lock is released.
type Registry struct {
	mu sync.Mutex

	gateway *Gateway
	clock   Clock
	ids     IDGenerator
	logger  Logger

	seed      bool
	cacheSize int

	notes      []Note
	categories []Category
	tags       []Tag
	filter     FilterState
	session    *Session
	revision   uint64

	views       *lru.Cache[string, []Note]
	subscribers []subscriber
	nextSubID   int
}

type subscriber struct {
	id int
	fn func(View)
}

// Option configures a Registry.
type Option func(*Registry)

func WithClock(c Clock) Option { return func(r *Registry) { r.clock = c } }

func WithIDGenerator(g IDGenerator) Option { return func(r *Registry) { r.ids = g } }

func WithLogger(l Logger) Option { return func(r *Registry) { r.logger = l } }

// WithSeed controls whether default categories and tags are stored on first
// run. Enabled by default.
func WithSeed(enabled bool) Option { return func(r *Registry) { r.seed = enabled } }

// WithViewCacheSize sets how many composed views are kept. Values below one
// select the default.
func WithViewCacheSize(n int) Option { return func(r *Registry) { r.cacheSize = n } }

// Open loads all collections through the gateway and returns a ready
// Registry. A collection whose key was never written is seeded with its
// defaults and saved.
func Open(ctx context.Context, gw *Gateway, opts ...Option) (*Registry, error) {
	r := &Registry{
		gateway:   gw,
		clock:     RealClock{},
		ids:       UUIDGenerator{},
		logger:    NewNopLogger(),
		seed:      true,
		cacheSize: defaultViewCacheSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.cacheSize < 1 {
		r.cacheSize = defaultViewCacheSize
	}

	views, err := lru.New[string, []Note](r.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating view cache: %w", err)
	}
	r.views = views

	r.notes = gw.LoadNotes(ctx)
	r.categories = gw.LoadCategories(ctx)
	r.tags = gw.LoadTags(ctx)

	if r.seed {
		r.seedMissing(ctx)
	}

	r.logger.Info("registry opened",
		"notes", len(r.notes), "categories", len(r.categories), "tags", len(r.tags))
	return r, nil
}

func (r *Registry) seedMissing(ctx context.Context) {
	var missing []Collection
	for _, c := range []Collection{CollectionCategories, CollectionTags} {
		ok, err := r.gateway.Exists(ctx, c)
		if err != nil {
			r.logger.Warn("cannot check stored collection, skipping defaults", "collection", c, "error", err)
			continue
		}
		if !ok {
			missing = append(missing, c)
		}
	}
	for _, c := range missing {
		switch c {
		case CollectionCategories:
			r.categories = DefaultCategories()
		case CollectionTags:
			r.tags = DefaultTags()
		}
		r.logger.Info("seeded default collection", "collection", c)
	}
	// Seeding failures surface again on the next save.
	_ = r.persistLocked(ctx, missing...)
}

// apply runs fn under the lock. On success it bumps the revision when data
// changed, saves the collections fn reports, and notifies subscribers.
func (r *Registry) apply(ctx context.Context, fn func() ([]Collection, error)) error {
	r.mu.Lock()
	dirty, err := fn()
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if len(dirty) > 0 {
		r.revision++
	}
	perr := r.persistLocked(ctx, dirty...)
	view := r.viewLocked()
	subs := slices.Clone(r.subscribers)
	r.mu.Unlock()

	for _, s := range subs {
		s.fn(view)
	}
	return perr
}

func (r *Registry) persistLocked(ctx context.Context, collections ...Collection) error {
	var errs []error
	for _, c := range collections {
		var err error
		switch c {
		case CollectionNotes:
			err = r.gateway.SaveNotes(ctx, r.notes)
		case CollectionCategories:
			err = r.gateway.SaveCategories(ctx, r.categories)
		case CollectionTags:
			err = r.gateway.SaveTags(ctx, r.tags)
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownCollection, c)
		}
		if err != nil {
			r.logger.Error("saving collection failed", "collection", c, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) viewLocked() View {
	key := strconv.FormatUint(r.revision, 10) + "#" + r.filter.fingerprint()
	composed, ok := r.views.Get(key)
	if !ok {
		composed = Compose(r.notes, r.categories, r.tags, r.filter)
		r.views.Add(key, composed)
	}
	out := make([]Note, len(composed))
	for i, n := range composed {
		out[i] = n.clone()
	}
	return View{Notes: out, Filter: r.filter.clone(), Revision: r.revision}
}

// View returns the notes to display under the current filter.
func (r *Registry) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewLocked()
}

// Subscribe registers fn to be called with the new view after every mutation
// or filter change. The returned func removes the subscription.
func (r *Registry) Subscribe(fn func(View)) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSubID++
	id := r.nextSubID
	r.subscribers = append(r.subscribers, subscriber{id: id, fn: fn})
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.subscribers = slices.DeleteFunc(r.subscribers, func(s subscriber) bool { return s.id == id })
	}
}

// Flush saves all three collections.
func (r *Registry) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persistLocked(ctx, Collections...)
}

// Notes

// CreateNote appends a new note. When in.CategoryID is empty the active
// category filter, if any, is used. Category and tag ids that name no
// existing entity are dropped.
func (r *Registry) CreateNote(ctx context.Context, in NoteInput) (Note, error) {
	var created Note
	err := r.apply(ctx, func() ([]Collection, error) {
		id, err := r.newID(func(id string) bool { return r.noteIndex(id) >= 0 })
		if err != nil {
			return nil, err
		}
		categoryID := in.CategoryID
		if categoryID == "" {
			categoryID = r.filter.CategoryID
		}
		now := r.clock.Now()
		created = Note{
			ID:         id,
			Title:      in.Title,
			Content:    in.Content,
			CategoryID: r.knownCategory(categoryID),
			Tags:       r.knownTags(in.Tags),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		r.notes = append(r.notes, created)
		r.logger.Debug("note created", "id", id)
		return []Collection{CollectionNotes}, nil
	})
	return created.clone(), err
}

// UpdateNote merges the non-nil fields of p into the note and stamps
// updatedAt. Unknown category and tag ids are dropped as in CreateNote.
func (r *Registry) UpdateNote(ctx context.Context, id string, p NotePatch) (Note, error) {
	var updated Note
	err := r.apply(ctx, func() ([]Collection, error) {
		n, err := r.updateNoteLocked(id, p)
		if err != nil {
			return nil, err
		}
		updated = n
		return []Collection{CollectionNotes}, nil
	})
	return updated.clone(), err
}

func (r *Registry) updateNoteLocked(id string, p NotePatch) (Note, error) {
	i := r.noteIndex(id)
	if i < 0 {
		return Note{}, fmt.Errorf("note %q: %w", id, ErrNotFound)
	}
	n := r.notes[i]
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.CategoryID != nil {
		n.CategoryID = r.knownCategory(*p.CategoryID)
	}
	if p.Tags != nil {
		n.Tags = r.knownTags(*p.Tags)
	}
	if p.IsPinned != nil {
		n.IsPinned = *p.IsPinned
	}
	n.UpdatedAt = r.clock.Now()
	r.notes[i] = n
	return n, nil
}

// DeleteNote removes a note and closes an edit session targeting it.
func (r *Registry) DeleteNote(ctx context.Context, id string) error {
	return r.apply(ctx, func() ([]Collection, error) {
		i := r.noteIndex(id)
		if i < 0 {
			return nil, fmt.Errorf("note %q: %w", id, ErrNotFound)
		}
		r.notes = slices.Delete(r.notes, i, i+1)
		if r.session != nil && r.session.noteID == id {
			r.session = nil
		}
		r.logger.Debug("note deleted", "id", id)
		return []Collection{CollectionNotes}, nil
	})
}

// TogglePin flips the pinned flag.
func (r *Registry) TogglePin(ctx context.Context, id string) (Note, error) {
	var toggled Note
	err := r.apply(ctx, func() ([]Collection, error) {
		i := r.noteIndex(id)
		if i < 0 {
			return nil, fmt.Errorf("note %q: %w", id, ErrNotFound)
		}
		pinned := !r.notes[i].IsPinned
		n, err := r.updateNoteLocked(id, NotePatch{IsPinned: &pinned})
		if err != nil {
			return nil, err
		}
		toggled = n
		return []Collection{CollectionNotes}, nil
	})
	return toggled.clone(), err
}

// ReorderNotes sets the manual ordering. Unknown and repeated ids are
// ignored; notes not listed keep their relative order after the listed ones.
// The stored collection is rewritten in the same order.
func (r *Registry) ReorderNotes(ctx context.Context, ids []string) error {
	return r.apply(ctx, func() ([]Collection, error) {
		order := NormalizeOrder(ids, r.notes)
		r.notes = orderBy(r.notes, order)
		r.filter.ManualOrder = order
		return []Collection{CollectionNotes}, nil
	})
}

// Categories

// CreateCategory validates and appends a new category.
func (r *Registry) CreateCategory(ctx context.Context, name, color string) (Category, error) {
	var created Category
	err := r.apply(ctx, func() ([]Collection, error) {
		id, err := r.newID(func(id string) bool { return r.categoryIndex(id) >= 0 })
		if err != nil {
			return nil, err
		}
		c := Category{ID: id, Name: strings.TrimSpace(name), Color: color}
		if err := c.Validate(); err != nil {
			return nil, invalid("category", err)
		}
		r.categories = append(r.categories, c)
		created = c
		return []Collection{CollectionCategories}, nil
	})
	return created, err
}

// UpdateCategory replaces the category with the same id. A parent id that
// names no category is cleared.
func (r *Registry) UpdateCategory(ctx context.Context, c Category) (Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	err := r.apply(ctx, func() ([]Collection, error) {
		i := r.categoryIndex(c.ID)
		if i < 0 {
			return nil, fmt.Errorf("category %q: %w", c.ID, ErrNotFound)
		}
		c.ParentID = r.knownCategory(c.ParentID)
		if err := c.Validate(); err != nil {
			return nil, invalid("category", err)
		}
		r.categories[i] = c
		return []Collection{CollectionCategories}, nil
	})
	return c, err
}

// DeleteCategory removes a category and clears every reference to it: the
// notes filed under it, child categories, the category filter and the open
// session buffer. Notes keep their updatedAt.
func (r *Registry) DeleteCategory(ctx context.Context, id string) error {
	return r.apply(ctx, func() ([]Collection, error) {
		i := r.categoryIndex(id)
		if i < 0 {
			return nil, fmt.Errorf("category %q: %w", id, ErrNotFound)
		}
		r.categories = slices.Delete(r.categories, i, i+1)
		for j := range r.categories {
			if r.categories[j].ParentID == id {
				r.categories[j].ParentID = ""
			}
		}
		for j := range r.notes {
			if r.notes[j].CategoryID == id {
				r.notes[j].CategoryID = ""
			}
		}
		if r.filter.CategoryID == id {
			r.filter.CategoryID = ""
		}
		if r.session != nil && r.session.categoryID == id {
			r.session.categoryID = ""
		}
		return []Collection{CollectionCategories, CollectionNotes}, nil
	})
}

// Tags

// CreateTag validates and appends a new tag.
func (r *Registry) CreateTag(ctx context.Context, name, color string) (Tag, error) {
	var created Tag
	err := r.apply(ctx, func() ([]Collection, error) {
		id, err := r.newID(func(id string) bool { return r.tagIndex(id) >= 0 })
		if err != nil {
			return nil, err
		}
		t := Tag{ID: id, Name: strings.TrimSpace(name), Color: color}
		if err := t.Validate(); err != nil {
			return nil, invalid("tag", err)
		}
		r.tags = append(r.tags, t)
		created = t
		return []Collection{CollectionTags}, nil
	})
	return created, err
}

// UpdateTag replaces the tag with the same id.
func (r *Registry) UpdateTag(ctx context.Context, t Tag) (Tag, error) {
	t.Name = strings.TrimSpace(t.Name)
	err := r.apply(ctx, func() ([]Collection, error) {
		i := r.tagIndex(t.ID)
		if i < 0 {
			return nil, fmt.Errorf("tag %q: %w", t.ID, ErrNotFound)
		}
		if err := t.Validate(); err != nil {
			return nil, invalid("tag", err)
		}
		r.tags[i] = t
		return []Collection{CollectionTags}, nil
	})
	return t, err
}

// DeleteTag removes a tag and strips it from every note, the tag filter and
// the open session buffer. Notes keep their updatedAt.
func (r *Registry) DeleteTag(ctx context.Context, id string) error {
	return r.apply(ctx, func() ([]Collection, error) {
		i := r.tagIndex(id)
		if i < 0 {
			return nil, fmt.Errorf("tag %q: %w", id, ErrNotFound)
		}
		r.tags = slices.Delete(r.tags, i, i+1)
		drop := func(t string) bool { return t == id }
		for j := range r.notes {
			r.notes[j].Tags = slices.DeleteFunc(r.notes[j].Tags, drop)
		}
		if r.filter.TagID == id {
			r.filter.TagID = ""
		}
		if r.session != nil {
			r.session.tags = slices.DeleteFunc(r.session.tags, drop)
		}
		return []Collection{CollectionTags, CollectionNotes}, nil
	})
}

// Filters

// SelectCategory narrows the view to one category. An empty id clears it.
func (r *Registry) SelectCategory(id string) {
	r.setFilter(func(f *FilterState) { f.CategoryID = id })
}

// SelectTag narrows the view to notes carrying one tag. An empty id clears it.
func (r *Registry) SelectTag(id string) {
	r.setFilter(func(f *FilterState) { f.TagID = id })
}

// SetQuery sets the free-text search.
func (r *Registry) SetQuery(q string) {
	r.setFilter(func(f *FilterState) { f.Query = q })
}

// ClearFilters drops the category, tag and query filters. The manual
// ordering is kept.
func (r *Registry) ClearFilters() {
	r.setFilter(func(f *FilterState) {
		f.CategoryID, f.TagID, f.Query = "", "", ""
	})
}

func (r *Registry) setFilter(fn func(*FilterState)) {
	// Filter changes never persist, so apply cannot fail here.
	_ = r.apply(context.Background(), func() ([]Collection, error) {
		fn(&r.filter)
		return nil, nil
	})
}

// Filter returns the current filter state.
func (r *Registry) Filter() FilterState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter.clone()
}

// Lookups

// Note returns a copy of the note with the given id.
func (r *Registry) Note(id string) (Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.noteIndex(id)
	if i < 0 {
		return Note{}, fmt.Errorf("note %q: %w", id, ErrNotFound)
	}
	return r.notes[i].clone(), nil
}

// Notes returns every note in stored order.
func (r *Registry) Notes() []Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Note, len(r.notes))
	for i, n := range r.notes {
		out[i] = n.clone()
	}
	return out
}

func (r *Registry) Category(id string) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.categoryIndex(id)
	if i < 0 {
		return Category{}, fmt.Errorf("category %q: %w", id, ErrNotFound)
	}
	return r.categories[i], nil
}

func (r *Registry) Categories() []Category {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.categories)
}

func (r *Registry) Tag(id string) (Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.tagIndex(id)
	if i < 0 {
		return Tag{}, fmt.Errorf("tag %q: %w", id, ErrNotFound)
	}
	return r.tags[i], nil
}

func (r *Registry) Tags() []Tag {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.tags)
}

// CategoryName resolves an id to its name, or "" for a dangling reference.
func (r *Registry) CategoryName(id string) string {
	c, err := r.Category(id)
	if err != nil {
		return ""
	}
	return c.Name
}

// TagName resolves an id to its name, or "" for a dangling reference.
func (r *Registry) TagName(id string) string {
	t, err := r.Tag(id)
	if err != nil {
		return ""
	}
	return t.Name
}

// CategoryCounts returns each category with the number of notes filed
// under it, in category order.
func (r *Registry) CategoryCounts() []LabelCount {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, n := range r.notes {
		counts[n.CategoryID]++
	}
	out := make([]LabelCount, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, LabelCount{ID: c.ID, Name: c.Name, Count: counts[c.ID]})
	}
	return out
}

// TagCounts returns each tag with the number of notes carrying it, in tag
// order.
func (r *Registry) TagCounts() []LabelCount {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int)
	for _, n := range r.notes {
		for _, id := range n.Tags {
			counts[id]++
		}
	}
	out := make([]LabelCount, 0, len(r.tags))
	for _, t := range r.tags {
		out = append(out, LabelCount{ID: t.ID, Name: t.Name, Count: counts[t.ID]})
	}
	return out
}

func (r *Registry) noteIndex(id string) int {
	return slices.IndexFunc(r.notes, func(n Note) bool { return n.ID == id })
}

func (r *Registry) categoryIndex(id string) int {
	return slices.IndexFunc(r.categories, func(c Category) bool { return c.ID == id })
}

func (r *Registry) tagIndex(id string) int {
	return slices.IndexFunc(r.tags, func(t Tag) bool { return t.ID == id })
}

// knownCategory returns id when it names a category, otherwise "".
func (r *Registry) knownCategory(id string) string {
	if id == "" || r.categoryIndex(id) >= 0 {
		return id
	}
	r.logger.Debug("dropping unknown category reference", "category", id)
	return ""
}

// knownTags dedupes ids and keeps only those naming a tag.
func (r *Registry) knownTags(ids []string) []string {
	return slices.DeleteFunc(dedupe(ids), func(id string) bool {
		if r.tagIndex(id) >= 0 {
			return false
		}
		r.logger.Debug("dropping unknown tag reference", "tag", id)
		return true
	})
}

func (r *Registry) newID(taken func(string) bool) (string, error) {
	for range maxIDAttempts {
		id := r.ids.New()
		if id != "" && !taken(id) {
			return id, nil
		}
	}
	return "", fmt.Errorf("generating unique id: %d attempts collided", maxIDAttempts)
}
