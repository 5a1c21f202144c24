package notes

import (
	"context"
	"fmt"
	"slices"
)

// Session buffers edits to one note until Save. At most one session is open
// per Registry: opening another, deleting the note, Save, Cancel and Close all
// end it. Its buffer is guarded by the registry lock.
type Session struct {
	r      *Registry
	noteID string

	title      string
	content    string
	categoryID string
	tags       []string

	original Note
}

// OpenSession starts editing the note with the given id, discarding any
// session that was already open.
func (r *Registry) OpenSession(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.noteIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("note %q: %w", id, ErrNotFound)
	}
	n := r.notes[i].clone()
	if r.session != nil {
		r.logger.Debug("discarding open edit session", "id", r.session.noteID)
	}
	s := &Session{
		r:          r,
		noteID:     id,
		title:      n.Title,
		content:    n.Content,
		categoryID: n.CategoryID,
		tags:       slices.Clone(n.Tags),
		original:   n,
	}
	r.session = s
	return s, nil
}

// ActiveSession returns the open session, or nil.
func (r *Registry) ActiveSession() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// NoteID returns the id of the note being edited.
func (s *Session) NoteID() string { return s.noteID }

// Open reports whether the session can still be edited.
func (s *Session) Open() bool {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	return s.r.session == s
}

func (s *Session) edit(fn func()) error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if s.r.session != s {
		return ErrSessionClosed
	}
	fn()
	return nil
}

func (s *Session) SetTitle(title string) error {
	return s.edit(func() { s.title = title })
}

func (s *Session) SetContent(content string) error {
	return s.edit(func() { s.content = content })
}

// SetCategory sets the buffered category. An empty id clears it.
func (s *Session) SetCategory(id string) error {
	return s.edit(func() { s.categoryID = id })
}

// ToggleTag adds the tag to the buffer, or removes it when present.
func (s *Session) ToggleTag(id string) error {
	return s.edit(func() {
		if i := slices.Index(s.tags, id); i >= 0 {
			s.tags = slices.Delete(s.tags, i, i+1)
			return
		}
		s.tags = append(s.tags, id)
	})
}

// Buffer returns the note as it would look after Save.
func (s *Session) Buffer() (Note, error) {
	var n Note
	err := s.edit(func() { n = s.bufferLocked() })
	return n, err
}

func (s *Session) bufferLocked() Note {
	n := s.original.clone()
	n.Title = s.title
	n.Content = s.content
	n.CategoryID = s.categoryID
	n.Tags = slices.Clone(s.tags)
	return n
}

// Dirty reports whether the buffer differs from the note as opened.
func (s *Session) Dirty() bool {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if s.r.session != s {
		return false
	}
	return s.title != s.original.Title ||
		s.content != s.original.Content ||
		s.categoryID != s.original.CategoryID ||
		!slices.Equal(s.tags, s.original.Tags)
}

// Save commits the buffer as a single update and closes the session.
func (s *Session) Save(ctx context.Context) (Note, error) {
	var saved Note
	err := s.r.apply(ctx, func() ([]Collection, error) {
		if s.r.session != s {
			return nil, ErrSessionClosed
		}
		tags := slices.Clone(s.tags)
		n, err := s.r.updateNoteLocked(s.noteID, NotePatch{
			Title:      &s.title,
			Content:    &s.content,
			CategoryID: &s.categoryID,
			Tags:       &tags,
		})
		s.r.session = nil
		if err != nil {
			return nil, err
		}
		saved = n
		return []Collection{CollectionNotes}, nil
	})
	return saved.clone(), err
}

// Cancel discards the buffer and closes the session.
func (s *Session) Cancel() error {
	return s.edit(func() { s.r.session = nil })
}

// Close discards the buffer. Closing an already closed session is a no-op.
func (s *Session) Close() {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	if s.r.session == s {
		s.r.session = nil
	}
}
