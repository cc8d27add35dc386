// Package store is the single in-memory authority for the note
// collection during a session. All mutation goes through it: each
// operation mutates the collection, appends to the activity log, and
// forwards the affected record to the persistence gateway through a
// write-behind outbox that the caller never waits on.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"retronotes/internal/errors"
	"retronotes/internal/note"
)

// Persistence is the durable backend the store writes behind to.
// *db.Gateway satisfies it.
type Persistence interface {
	LoadAll(ctx context.Context) ([]*note.Note, error)
	Upsert(ctx context.Context, n *note.Note) error
	Delete(ctx context.Context, id string) error
	GetBySlug(ctx context.Context, slug string) (*note.Note, error)
	ReplaceAll(ctx context.Context, notes []*note.Note) error
}

// Store owns the in-memory note collection and the session activity
// log. Construct one per process with New and pass it by reference.
type Store struct {
	mu       sync.RWMutex
	notes    []*note.Note // insertion order
	index    map[string]*note.Note
	activity []note.ActivityEntry

	gateway Persistence
	logger  zerolog.Logger
	now     func() time.Time
	outbox  *outbox
}

// New constructs a store over the given gateway and performs the
// one-time session load of the persisted collection.
func New(gateway Persistence, logger zerolog.Logger) (*Store, error) {
	notes, err := gateway.LoadAll(context.Background())
	if err != nil {
		return nil, err
	}

	index := make(map[string]*note.Note, len(notes))
	for _, n := range notes {
		index[n.ID] = n
	}

	s := &Store{
		notes:   notes,
		index:   index,
		gateway: gateway,
		logger:  logger,
		now:     time.Now,
	}
	s.outbox = newOutbox(gateway, logger)
	return s, nil
}

// Close drains pending persistence writes and stops the outbox worker.
func (s *Store) Close() {
	s.outbox.close()
}

// Flush blocks until every persistence write issued so far has landed.
// Mutation callers never need this; it exists for import barriers and
// one-shot CLI commands that exit right after mutating.
func (s *Store) Flush() {
	s.outbox.flushWait()
}

// AddInput contains the caller-supplied fields for a new note.
type AddInput struct {
	Title  string
	Blocks []note.Block
	Theme  note.Theme
}

// Add creates a note with a fresh id, empty tag set, no pin, no
// versions, and current timestamps, then logs a create entry.
func (s *Store) Add(input AddInput) (*note.Note, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, errors.NewInvalidRequest("title is required")
	}

	id, err := note.NewID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	theme := input.Theme
	if !note.ValidTheme(theme) {
		theme = note.ThemeDefault
	}

	blocks := note.CloneBlocks(input.Blocks)
	if blocks == nil {
		blocks = []note.Block{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := &note.Note{
		ID:        id,
		Title:     input.Title,
		Blocks:    blocks,
		Theme:     theme,
		Tags:      nil,
		IsPinned:  false,
		Versions:  []note.Version{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.notes = append(s.notes, n)
	s.index[id] = n
	s.appendActivity(note.ActivityCreate, id, "", now)
	s.outbox.enqueueUpsert(n.Clone())

	return n.Clone(), nil
}

// UpdateInput contains partial updates for an existing note.
// Nil fields are left unchanged.
type UpdateInput struct {
	Title    *string
	Blocks   *[]note.Block
	Theme    *note.Theme
	IsPublic *bool
}

// Update merges fields into the note matching id. A nonexistent id is a
// no-op: nothing changes and no activity is logged. If Blocks is
// present and differs from the stored content, a version snapshot of
// the prior content is appended first, and both a version and an edit
// entry are recorded. UpdatedAt always refreshes on a real update.
func (s *Store) Update(id string, input UpdateInput) (*note.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.index[id]
	if !ok {
		return nil, false
	}

	now := s.now()

	if input.Blocks != nil && !note.BlocksEqual(n.Blocks, *input.Blocks) {
		vid, err := note.NewID()
		if err != nil {
			vid = n.ID + "-v"
		}
		n.Versions = append(n.Versions, note.Version{
			ID:        vid,
			Blocks:    note.CloneBlocks(n.Blocks),
			Timestamp: now,
			Changes:   "Content updated",
		})
		s.appendActivity(note.ActivityVersion, n.ID, vid, now)
		n.Blocks = note.CloneBlocks(*input.Blocks)
	}

	if input.Title != nil {
		n.Title = *input.Title
		if n.IsPublic {
			n.Slug = note.Slugify(n.Title)
		}
	}

	if input.Theme != nil && note.ValidTheme(*input.Theme) {
		n.Theme = *input.Theme
	}

	if input.IsPublic != nil {
		n.IsPublic = *input.IsPublic
		if n.IsPublic {
			n.Slug = note.Slugify(n.Title)
		} else {
			n.Slug = ""
		}
	}

	n.UpdatedAt = now
	s.appendActivity(note.ActivityEdit, n.ID, "", now)
	s.outbox.enqueueUpsert(n.Clone())

	return n.Clone(), true
}

// Delete removes a note. Logs a delete entry; missing ids are a no-op.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[id]; !ok {
		return false
	}

	delete(s.index, id)
	for i, n := range s.notes {
		if n.ID == id {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			break
		}
	}

	s.appendActivity(note.ActivityDelete, id, "", s.now())
	s.outbox.enqueueDelete(id)

	return true
}

// TogglePin flips the pin flag. Logs an edit entry.
func (s *Store) TogglePin(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.index[id]
	if !ok {
		return false
	}

	now := s.now()
	n.IsPinned = !n.IsPinned
	n.UpdatedAt = now
	s.appendActivity(note.ActivityEdit, id, "", now)
	s.outbox.enqueueUpsert(n.Clone())

	return true
}

// AddTag adds a tag with set semantics: adding an existing tag leaves
// the set unchanged but still logs an edit entry.
func (s *Store) AddTag(id, tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.index[id]
	if !ok {
		return false
	}

	now := s.now()
	if !n.HasTag(tag) {
		n.Tags = append(n.Tags, tag)
	}
	n.UpdatedAt = now
	s.appendActivity(note.ActivityEdit, id, "", now)
	s.outbox.enqueueUpsert(n.Clone())

	return true
}

// RemoveTag removes a tag. Logs an edit entry.
func (s *Store) RemoveTag(id, tag string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.index[id]
	if !ok {
		return false
	}

	now := s.now()
	for i, t := range n.Tags {
		if t == tag {
			n.Tags = append(n.Tags[:i], n.Tags[i+1:]...)
			break
		}
	}
	n.UpdatedAt = now
	s.appendActivity(note.ActivityEdit, id, "", now)
	s.outbox.enqueueUpsert(n.Clone())

	return true
}

// Get returns a copy of the note with the given id.
func (s *Store) Get(id string) (*note.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// List returns the full collection, pinned notes first, insertion order
// within each group.
func (s *Store) List() []*note.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotSorted(s.notes)
}

// Search returns notes matching the query by case-insensitive substring
// against title, flattened content, and any tag. An empty query returns
// the full collection unfiltered. Results come back pinned-first.
// Search never mutates state or logs activity.
func (s *Store) Search(query string) []*note.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return s.snapshotSorted(s.notes)
	}

	matched := make([]*note.Note, 0)
	for _, n := range s.notes {
		if matchesQuery(n, query) {
			matched = append(matched, n)
		}
	}
	return s.snapshotSorted(matched)
}

// AddVersion appends a manual snapshot of the given content,
// independent of Update's automatic snapshot. Logs a version entry.
func (s *Store) AddVersion(noteID string, blocks []note.Block, changes string) (*note.Version, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.index[noteID]
	if !ok {
		return nil, false
	}

	vid, err := note.NewID()
	if err != nil {
		vid = noteID + "-v"
	}

	now := s.now()
	v := note.Version{
		ID:        vid,
		Blocks:    note.CloneBlocks(blocks),
		Timestamp: now,
		Changes:   changes,
	}
	n.Versions = append(n.Versions, v)
	n.UpdatedAt = now
	s.appendActivity(note.ActivityVersion, noteID, vid, now)
	s.outbox.enqueueUpsert(n.Clone())

	out := v
	out.Blocks = note.CloneBlocks(v.Blocks)
	return &out, true
}

// GetVersion is a pure lookup of one version snapshot.
func (s *Store) GetVersion(noteID, versionID string) (*note.Version, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.index[noteID]
	if !ok {
		return nil, false
	}
	for _, v := range n.Versions {
		if v.ID == versionID {
			out := v
			out.Blocks = note.CloneBlocks(v.Blocks)
			return &out, true
		}
	}
	return nil, false
}

// RestoreVersion re-applies a version's captured content through
// Update, which snapshots the current content first — restoring is
// therefore itself undoable.
func (s *Store) RestoreVersion(noteID, versionID string) bool {
	v, ok := s.GetVersion(noteID, versionID)
	if !ok {
		return false
	}
	_, ok = s.Update(noteID, UpdateInput{Blocks: &v.Blocks})
	return ok
}

// SetPublic toggles sharing. Making a note public derives its slug from
// the title; making it private clears the slug.
func (s *Store) SetPublic(id string, public bool) (*note.Note, bool) {
	return s.Update(id, UpdateInput{IsPublic: &public})
}

// FindBySlug resolves a public share slug through the gateway's slug
// index. Absence is a normal (nil, nil) result.
func (s *Store) FindBySlug(ctx context.Context, slug string) (*note.Note, error) {
	return s.gateway.GetBySlug(ctx, slug)
}

// snapshotSorted clones the given notes pinned-first, preserving
// insertion order within each group. Callers must hold s.mu.
func (s *Store) snapshotSorted(notes []*note.Note) []*note.Note {
	out := make([]*note.Note, len(notes))
	for i, n := range notes {
		out[i] = n.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IsPinned && !out[j].IsPinned
	})
	return out
}

func matchesQuery(n *note.Note, lowered string) bool {
	if strings.Contains(strings.ToLower(n.Title), lowered) {
		return true
	}
	if strings.Contains(strings.ToLower(n.PlainText()), lowered) {
		return true
	}
	for _, tag := range n.Tags {
		if strings.Contains(strings.ToLower(tag), lowered) {
			return true
		}
	}
	return false
}
