package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"retronotes/internal/errors"
	"retronotes/internal/note"
)

// ExportResult reports what an export produced.
type ExportResult struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt string `json:"exported_at"`
}

// ImportResult reports what an import replaced.
type ImportResult struct {
	Imported int `json:"imported"`
}

// DefaultExportPath builds the conventional backup filename inside the
// exports directory: notes-backup-<YYYY-MM-DD>.json.
func DefaultExportPath(exportsDir string, now time.Time) string {
	name := fmt.Sprintf("notes-backup-%s.json", now.UTC().Format("2006-01-02"))
	return filepath.Join(exportsDir, name)
}

// Export serializes the entire collection to one JSON array at path,
// date fields as RFC 3339 strings. An empty collection is a no-op: no
// file is written and Count is 0. The file lands via temp-file +
// rename, so a failure preserves any existing backup at that path.
func (s *Store) Export(path string, check PathChecker) (*ExportResult, error) {
	if err := check.Validate(path, PathCheckWrite); err != nil {
		return nil, err
	}

	s.mu.RLock()
	records := make([]*note.ExportRecord, 0, len(s.notes))
	for _, n := range s.notes {
		rec, err := note.ToExportRecord(n)
		if err != nil {
			s.mu.RUnlock()
			return nil, errors.NewInternal(err)
		}
		records = append(records, rec)
	}
	s.mu.RUnlock()

	exportedAt := s.now().UTC().Format(time.RFC3339)
	if len(records) == 0 {
		return &ExportResult{Count: 0, ExportedAt: exportedAt}, nil
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.NewStorageWrite(fmt.Errorf("create export directory: %w", err))
	}

	// Write to temp file first, then atomic rename.
	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return nil, errors.NewStorageWrite(fmt.Errorf("write export file: %w", err))
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return nil, errors.NewStorageWrite(fmt.Errorf("finalize export file: %w", err))
	}

	return &ExportResult{
		Path:       path,
		Count:      len(records),
		ExportedAt: exportedAt,
	}, nil
}

// Import parses a backup file, validates it fully, and replaces both
// the persisted and in-memory collections wholesale. Validation before
// any write: a shape mismatch or parse failure rejects the whole file
// and leaves everything untouched. Mutations are blocked for the
// duration; pending writes are flushed first so none land afterwards.
func (s *Store) Import(path string, check PathChecker) (*ImportResult, error) {
	if err := check.Validate(path, PathCheckRead); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewStorageRead(fmt.Errorf("read import file: %w", err))
	}

	notes, err := parseBackup(data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Barrier under the lock: everything enqueued before the import
	// must land before the wholesale replace, and no mutation can slip
	// in between the barrier and the replace. The worker never takes
	// s.mu, so waiting here cannot deadlock.
	s.outbox.flushWait()

	if err := s.gateway.ReplaceAll(context.Background(), notes); err != nil {
		return nil, err
	}

	s.notes = notes
	s.index = make(map[string]*note.Note, len(notes))
	for _, n := range notes {
		s.index[n.ID] = n
	}

	return &ImportResult{Imported: len(notes)}, nil
}

// parseBackup validates the blob: it must be a JSON array of objects
// each carrying at minimum an id and a title, with parseable dates.
func parseBackup(data []byte) ([]*note.Note, error) {
	var records []note.ExportRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.NewImportValidation(fmt.Sprintf("backup is not a JSON array of notes: %v", err))
	}

	notes := make([]*note.Note, 0, len(records))
	seen := make(map[string]bool, len(records))
	for i, rec := range records {
		if rec.ID == "" {
			return nil, errors.NewImportValidation(fmt.Sprintf("record %d: missing id", i))
		}
		if rec.Title == "" {
			return nil, errors.NewImportValidation(fmt.Sprintf("record %d: missing title", i))
		}
		if seen[rec.ID] {
			return nil, errors.NewImportValidation(fmt.Sprintf("record %d: duplicate id %s", i, rec.ID))
		}
		seen[rec.ID] = true

		n, err := rec.ToNote()
		if err != nil {
			return nil, errors.NewImportValidation(err.Error())
		}
		notes = append(notes, n)
	}

	return notes, nil
}
