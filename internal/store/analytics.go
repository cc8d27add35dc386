package store

import (
	"time"

	"retronotes/internal/note"
)

// Analytics is a derived snapshot over the current collection and the
// session activity log. It is a pure projection recomputed on each
// call, never a source of truth.
type Analytics struct {
	TotalNotes   int                          `json:"total_notes"`
	LastUpdated  time.Time                    `json:"last_updated"`
	ByType       map[note.ActivityType]int    `json:"by_type"`
	NotesByTheme map[note.Theme]int           `json:"notes_by_theme"`
	TagCounts    map[string]int               `json:"tag_counts"`
}

// Analytics rebuilds the snapshot from Notes + ActivityLog.
func (s *Store) Analytics() Analytics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a := Analytics{
		TotalNotes:   len(s.notes),
		ByType:       make(map[note.ActivityType]int),
		NotesByTheme: make(map[note.Theme]int),
		TagCounts:    make(map[string]int),
	}

	for _, n := range s.notes {
		if n.UpdatedAt.After(a.LastUpdated) {
			a.LastUpdated = n.UpdatedAt
		}
		a.NotesByTheme[n.Theme]++
		for _, tag := range n.Tags {
			a.TagCounts[tag]++
		}
	}

	for _, entry := range s.activity {
		a.ByType[entry.Type]++
	}

	return a
}
