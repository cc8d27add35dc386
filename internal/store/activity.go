package store

import (
	"time"

	"retronotes/internal/note"
)

// appendActivity records one mutation event. The log is append-only and
// lives for the session; nothing ever edits or removes entries.
// Callers must hold s.mu.
func (s *Store) appendActivity(t note.ActivityType, noteID, versionID string, ts time.Time) {
	s.activity = append(s.activity, note.ActivityEntry{
		Type:      t,
		NoteID:    noteID,
		VersionID: versionID,
		Timestamp: ts,
	})
}

// Activity returns a copy of the session activity log, oldest first.
func (s *Store) Activity() []note.ActivityEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]note.ActivityEntry, len(s.activity))
	copy(out, s.activity)
	return out
}
