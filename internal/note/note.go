package note

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Theme is the visual category a note is filed under.
type Theme string

const (
	ThemeDefault Theme = "default"
	ThemeRetro   Theme = "retro"
	ThemeOcean   Theme = "ocean"
	ThemeForest  Theme = "forest"
	ThemeSunset  Theme = "sunset"
)

// Themes lists every valid theme, in display order.
var Themes = []Theme{ThemeDefault, ThemeRetro, ThemeOcean, ThemeForest, ThemeSunset}

// ValidTheme reports whether t is a known theme.
func ValidTheme(t Theme) bool {
	for _, known := range Themes {
		if t == known {
			return true
		}
	}
	return false
}

// Note is a user's titled document with block content, tags, pin state,
// and an append-only version history.
type Note struct {
	// ID is a ULID that uniquely identifies this note. Never reassigned.
	ID string `json:"id"`

	// Title is the short user-editable heading.
	Title string `json:"title"`

	// Blocks is the ordered content of the note. The block list is the
	// canonical content form; flat text is migrated one-way at the
	// persistence and import boundaries.
	Blocks []Block `json:"blocks"`

	// Theme is one label from the fixed theme enumeration.
	Theme Theme `json:"theme"`

	// Tags holds free-text labels, deduplicated, in insertion order.
	Tags []string `json:"tags"`

	// IsPinned sorts the note ahead of unpinned notes in listings.
	IsPinned bool `json:"is_pinned"`

	// IsPublic marks the note shareable; Slug is its URL-safe handle.
	// Purely a local flag: nothing enforces visibility.
	IsPublic bool `json:"is_public"`

	// Slug is derived from Title when the note is made public.
	Slug string `json:"slug,omitempty"`

	// Versions is the append-only list of prior content snapshots.
	// Entries are never edited or removed except by note deletion.
	Versions []Version `json:"versions"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Version is an immutable snapshot of a note's prior content. It is
// owned by its parent note and destroyed with it.
type Version struct {
	ID        string    `json:"id"`
	Blocks    []Block   `json:"blocks"`
	Timestamp time.Time `json:"timestamp"`
	Changes   string    `json:"changes"`
}

// ActivityType classifies a mutation event.
type ActivityType string

const (
	ActivityCreate  ActivityType = "create"
	ActivityEdit    ActivityType = "edit"
	ActivityDelete  ActivityType = "delete"
	ActivityPin     ActivityType = "pin"
	ActivityTag     ActivityType = "tag"
	ActivityVersion ActivityType = "version"
)

// ActivityEntry is an immutable record of one mutation event. The
// session log it lives in is append-only and unbounded.
type ActivityEntry struct {
	Type      ActivityType `json:"type"`
	NoteID    string       `json:"note_id"`
	VersionID string       `json:"version_id,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewID generates a new ULID.
func NewID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// PlainText flattens the note's blocks into newline-joined text.
// Used for search, classification, and suggestion prompts.
func (n *Note) PlainText() string {
	parts := make([]string, 0, len(n.Blocks))
	for _, b := range n.Blocks {
		if b.Type == BlockDivider {
			continue
		}
		parts = append(parts, b.Content)
	}
	return strings.Join(parts, "\n")
}

// HasTag reports whether the note carries the given tag.
func (n *Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy. The store hands clones to callers so the
// owned collection cannot be mutated from outside.
func (n *Note) Clone() *Note {
	c := *n
	c.Blocks = CloneBlocks(n.Blocks)
	if n.Tags != nil {
		c.Tags = append([]string(nil), n.Tags...)
	}
	if n.Versions != nil {
		c.Versions = make([]Version, len(n.Versions))
		for i, v := range n.Versions {
			c.Versions[i] = v
			c.Versions[i].Blocks = CloneBlocks(v.Blocks)
		}
	}
	return &c
}
