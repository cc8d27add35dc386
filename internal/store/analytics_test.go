package store

import (
	"testing"

	"retronotes/internal/note"
)

func TestAnalytics_EmptyStore(t *testing.T) {
	s, _ := newTestStore(t)

	a := s.Analytics()
	if a.TotalNotes != 0 {
		t.Errorf("TotalNotes = %d, want 0", a.TotalNotes)
	}
	if !a.LastUpdated.IsZero() {
		t.Errorf("LastUpdated = %v, want zero", a.LastUpdated)
	}
	if len(a.ByType) != 0 {
		t.Errorf("ByType = %v, want empty", a.ByType)
	}
}

func TestAnalytics_CountsAndTallies(t *testing.T) {
	s, _ := newTestStore(t)

	ocean := note.ThemeOcean
	a, _ := s.Add(AddInput{Title: "A"})
	s.Update(a.ID, UpdateInput{Theme: &ocean})
	s.AddTag(a.ID, "work")
	s.AddTag(a.ID, "urgent")

	b, _ := s.Add(AddInput{Title: "B"})
	s.AddTag(b.ID, "work")
	s.TogglePin(b.ID)

	c, _ := s.Add(AddInput{Title: "C"})
	s.Delete(c.ID)

	got := s.Analytics()
	if got.TotalNotes != 2 {
		t.Errorf("TotalNotes = %d, want 2", got.TotalNotes)
	}
	if got.NotesByTheme[note.ThemeOcean] != 1 || got.NotesByTheme[note.ThemeDefault] != 1 {
		t.Errorf("NotesByTheme = %v", got.NotesByTheme)
	}
	if got.TagCounts["work"] != 2 || got.TagCounts["urgent"] != 1 {
		t.Errorf("TagCounts = %v", got.TagCounts)
	}

	// 3 creates, 1 delete; theme change, pin toggle, and tag ops all
	// log as edits.
	if got.ByType[note.ActivityCreate] != 3 {
		t.Errorf("creates = %d, want 3", got.ByType[note.ActivityCreate])
	}
	if got.ByType[note.ActivityDelete] != 1 {
		t.Errorf("deletes = %d, want 1", got.ByType[note.ActivityDelete])
	}
	if got.ByType[note.ActivityEdit] != 5 {
		t.Errorf("edits = %d, want 5", got.ByType[note.ActivityEdit])
	}

	// Deleting a note keeps its history entries.
	if got.ByType[note.ActivityCreate] < 3 {
		t.Error("activity entries for deleted note were dropped")
	}
}

func TestAnalytics_LastUpdatedTracksNewestNote(t *testing.T) {
	s, _ := newTestStore(t)

	a, _ := s.Add(AddInput{Title: "old"})
	b, _ := s.Add(AddInput{Title: "new"})

	title := "renamed"
	updated, _ := s.Update(b.ID, UpdateInput{Title: &title})

	got := s.Analytics()
	if !got.LastUpdated.Equal(updated.UpdatedAt) {
		t.Errorf("LastUpdated = %v, want %v", got.LastUpdated, updated.UpdatedAt)
	}

	old, _ := s.Get(a.ID)
	if got.LastUpdated.Before(old.UpdatedAt) {
		t.Error("LastUpdated fell behind an older note")
	}
}
