package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"notes-go/internal/config"
	"notes-go/internal/notes"
	"notes-go/internal/storage"
)

// NotesApp is the application layer between the CLI and the note Registry.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw ids or names, and flushes and closes storage on Close.
type NotesApp struct {
	cfg      *config.Config
	storage  notes.Storage
	registry *notes.Registry
	logger   *slog.Logger
	op       *Operation
	logFile  *os.File
}

// NewNotesApp creates a fully wired NotesApp from the given config.
// operation identifies the CLI command being run (e.g. "AddNote", "ListNotes").
// passphrase is only consulted when encryption is enabled.
// The caller must call Close when done.
func NewNotesApp(ctx context.Context, cfg *config.Config, operation string, passphrase storage.PassphraseFunc, stderr io.Writer) (*NotesApp, error) {
	if stderr == nil {
		stderr = os.Stderr
	}
	op := NewOperation(operation, "", time.Now())

	logger, logFile, err := newLogger(cfg.LogDir, op.ID, stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	codec, err := notes.CodecByName(cfg.Storage.Format)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	s, err := storage.NewStorageFromConfig(ctx, cfg.Storage, cfg.Encryption, passphrase)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating storage: %w", err)
	}

	if m, ok := s.(interface{ CheckMigrations() error }); ok {
		if err := m.CheckMigrations(); err != nil {
			s.Close()
			logFile.Close()
			return nil, fmt.Errorf("storage schema out of date: %w", err)
		}
	}

	adapter := &slogAdapter{l: logger}
	gw := notes.NewGateway(s, codec, notes.RealClock{}, adapter)
	reg, err := notes.Open(ctx, gw,
		notes.WithLogger(adapter),
		notes.WithSeed(cfg.Seed()),
		notes.WithViewCacheSize(cfg.ViewCacheSize),
	)
	if err != nil {
		s.Close()
		logFile.Close()
		return nil, fmt.Errorf("opening registry: %w", err)
	}

	logger.Debug("operation started", "operation", operation, "storage", cfg.Storage.Type, "format", codec.Name())

	return &NotesApp{
		cfg:      cfg,
		storage:  s,
		registry: reg,
		logger:   logger,
		op:       op,
		logFile:  logFile,
	}, nil
}

// Registry exposes the underlying registry for read-only views.
func (a *NotesApp) Registry() *notes.Registry { return a.registry }

// Operation returns the record of the running CLI invocation.
func (a *NotesApp) Operation() *Operation { return a.op }

// track marks the operation failed when err is non-nil and passes err through.
func (a *NotesApp) track(err error) error {
	a.op.Fail(err)
	return err
}

// ResolveNote finds a note by exact id or by a unique id prefix.
func (a *NotesApp) ResolveNote(ref string) (notes.Note, error) {
	if ref == "" {
		return notes.Note{}, fmt.Errorf("note id required: %w", notes.ErrInvalid)
	}
	if n, err := a.registry.Note(ref); err == nil {
		return n, nil
	}
	var match []notes.Note
	for _, n := range a.registry.Notes() {
		if strings.HasPrefix(n.ID, ref) {
			match = append(match, n)
		}
	}
	switch len(match) {
	case 0:
		return notes.Note{}, fmt.Errorf("note %q: %w", ref, notes.ErrNotFound)
	case 1:
		return match[0], nil
	default:
		return notes.Note{}, fmt.Errorf("note prefix %q matches %d notes: %w", ref, len(match), notes.ErrInvalid)
	}
}

// ResolveCategory finds a category by id, then by case-insensitive name.
func (a *NotesApp) ResolveCategory(ref string) (notes.Category, error) {
	if c, err := a.registry.Category(ref); err == nil {
		return c, nil
	}
	for _, c := range a.registry.Categories() {
		if strings.EqualFold(c.Name, ref) {
			return c, nil
		}
	}
	return notes.Category{}, fmt.Errorf("category %q: %w", ref, notes.ErrNotFound)
}

// ResolveTag finds a tag by id, then by case-insensitive name.
func (a *NotesApp) ResolveTag(ref string) (notes.Tag, error) {
	if t, err := a.registry.Tag(ref); err == nil {
		return t, nil
	}
	for _, t := range a.registry.Tags() {
		if strings.EqualFold(t.Name, ref) {
			return t, nil
		}
	}
	return notes.Tag{}, fmt.Errorf("tag %q: %w", ref, notes.ErrNotFound)
}

func (a *NotesApp) resolveTags(refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		t, err := a.ResolveTag(ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// AddNote creates a note. categoryRef and tagRefs may be ids or names.
func (a *NotesApp) AddNote(ctx context.Context, title, content, categoryRef string, tagRefs []string) (notes.Note, error) {
	in := notes.NoteInput{Title: title, Content: content}
	if categoryRef != "" {
		c, err := a.ResolveCategory(categoryRef)
		if err != nil {
			return notes.Note{}, a.track(err)
		}
		in.CategoryID = c.ID
	}
	tags, err := a.resolveTags(tagRefs)
	if err != nil {
		return notes.Note{}, a.track(err)
	}
	in.Tags = tags

	n, err := a.registry.CreateNote(ctx, in)
	return n, a.track(err)
}

// NoteEdit describes the changes applied through an edit session. Nil
// fields are left as they are; Category set to "" files the note under no
// category.
type NoteEdit struct {
	Title      *string
	Content    *string
	Category   *string
	ToggleTags []string
}

// EditNote opens an edit session on the note, applies e and saves it. Any
// failure before the save cancels the session.
func (a *NotesApp) EditNote(ctx context.Context, ref string, e NoteEdit) (notes.Note, error) {
	n, err := a.ResolveNote(ref)
	if err != nil {
		return notes.Note{}, a.track(err)
	}
	s, err := a.registry.OpenSession(n.ID)
	if err != nil {
		return notes.Note{}, a.track(err)
	}

	if err := a.applyEdit(s, e); err != nil {
		s.Close()
		return notes.Note{}, a.track(err)
	}
	if !s.Dirty() {
		s.Close()
		return n, nil
	}

	saved, err := s.Save(ctx)
	return saved, a.track(err)
}

func (a *NotesApp) applyEdit(s *notes.Session, e NoteEdit) error {
	if e.Title != nil {
		if err := s.SetTitle(*e.Title); err != nil {
			return err
		}
	}
	if e.Content != nil {
		if err := s.SetContent(*e.Content); err != nil {
			return err
		}
	}
	if e.Category != nil {
		id := ""
		if *e.Category != "" {
			c, err := a.ResolveCategory(*e.Category)
			if err != nil {
				return err
			}
			id = c.ID
		}
		if err := s.SetCategory(id); err != nil {
			return err
		}
	}
	tags, err := a.resolveTags(e.ToggleTags)
	if err != nil {
		return err
	}
	for _, id := range tags {
		if err := s.ToggleTag(id); err != nil {
			return err
		}
	}
	return nil
}

// ListFilter selects the notes returned by ListNotes. Category and Tag may be
// ids or names.
type ListFilter struct {
	Category string
	Tag      string
	Query    string
}

// ListNotes applies f to the registry's filter and returns the composed view.
func (a *NotesApp) ListNotes(f ListFilter) ([]notes.Note, error) {
	a.registry.ClearFilters()
	if f.Category != "" {
		c, err := a.ResolveCategory(f.Category)
		if err != nil {
			return nil, a.track(err)
		}
		a.registry.SelectCategory(c.ID)
	}
	if f.Tag != "" {
		t, err := a.ResolveTag(f.Tag)
		if err != nil {
			return nil, a.track(err)
		}
		a.registry.SelectTag(t.ID)
	}
	a.registry.SetQuery(f.Query)
	return a.registry.View().Notes, nil
}

// DeleteNote removes the note matching ref.
func (a *NotesApp) DeleteNote(ctx context.Context, ref string) (notes.Note, error) {
	n, err := a.ResolveNote(ref)
	if err != nil {
		return notes.Note{}, a.track(err)
	}
	return n, a.track(a.registry.DeleteNote(ctx, n.ID))
}

// TogglePin flips the pinned flag of the note matching ref.
func (a *NotesApp) TogglePin(ctx context.Context, ref string) (notes.Note, error) {
	n, err := a.ResolveNote(ref)
	if err != nil {
		return notes.Note{}, a.track(err)
	}
	n, err = a.registry.TogglePin(ctx, n.ID)
	return n, a.track(err)
}

// ReorderNotes moves the notes matching refs to the front, in that order.
func (a *NotesApp) ReorderNotes(ctx context.Context, refs []string) error {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		n, err := a.ResolveNote(ref)
		if err != nil {
			return a.track(err)
		}
		ids = append(ids, n.ID)
	}
	return a.track(a.registry.ReorderNotes(ctx, ids))
}

// AddCategory creates a category, optionally nested under parentRef.
func (a *NotesApp) AddCategory(ctx context.Context, name, color, parentRef string) (notes.Category, error) {
	var parent notes.Category
	if parentRef != "" {
		p, err := a.ResolveCategory(parentRef)
		if err != nil {
			return notes.Category{}, a.track(err)
		}
		parent = p
	}
	c, err := a.registry.CreateCategory(ctx, name, color)
	if err != nil || parent.ID == "" {
		return c, a.track(err)
	}
	c.ParentID = parent.ID
	c, err = a.registry.UpdateCategory(ctx, c)
	return c, a.track(err)
}

// EditCategory renames or recolors the category matching ref. Nil fields are
// left unchanged.
func (a *NotesApp) EditCategory(ctx context.Context, ref string, name, color *string) (notes.Category, error) {
	c, err := a.ResolveCategory(ref)
	if err != nil {
		return notes.Category{}, a.track(err)
	}
	if name != nil {
		c.Name = *name
	}
	if color != nil {
		c.Color = *color
	}
	c, err = a.registry.UpdateCategory(ctx, c)
	return c, a.track(err)
}

// DeleteCategory removes the category matching ref.
func (a *NotesApp) DeleteCategory(ctx context.Context, ref string) (notes.Category, error) {
	c, err := a.ResolveCategory(ref)
	if err != nil {
		return notes.Category{}, a.track(err)
	}
	return c, a.track(a.registry.DeleteCategory(ctx, c.ID))
}

// AddTag creates a tag.
func (a *NotesApp) AddTag(ctx context.Context, name, color string) (notes.Tag, error) {
	t, err := a.registry.CreateTag(ctx, name, color)
	return t, a.track(err)
}

// EditTag renames or recolors the tag matching ref. Nil fields are left
// unchanged.
func (a *NotesApp) EditTag(ctx context.Context, ref string, name, color *string) (notes.Tag, error) {
	t, err := a.ResolveTag(ref)
	if err != nil {
		return notes.Tag{}, a.track(err)
	}
	if name != nil {
		t.Name = *name
	}
	if color != nil {
		t.Color = *color
	}
	t, err = a.registry.UpdateTag(ctx, t)
	return t, a.track(err)
}

// DeleteTag removes the tag matching ref.
func (a *NotesApp) DeleteTag(ctx context.Context, ref string) (notes.Tag, error) {
	t, err := a.ResolveTag(ref)
	if err != nil {
		return notes.Tag{}, a.track(err)
	}
	return t, a.track(a.registry.DeleteTag(ctx, t.ID))
}

// Close closes storage and logs the operation's outcome. When the operation
// recorded a failure, every collection is saved once more first so a
// transient write error does not lose the in-memory state.
func (a *NotesApp) Close(ctx context.Context) error {
	var errs []error

	if !a.op.Succeeded() {
		if err := a.registry.Flush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flushing collections: %w", err))
		}
	}
	if err := a.storage.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing storage: %w", err))
	}

	err := errors.Join(errs...)
	a.op.Fail(err)
	a.logger.Info("operation finished",
		"operation", a.op.Name,
		"status", a.op.Status,
		"elapsed", time.Since(a.op.StartedAt).Round(time.Millisecond))

	if a.logFile != nil {
		a.logFile.Close()
	}
	return err
}
