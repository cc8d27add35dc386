package db

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"retronotes/internal/errors"
	"retronotes/internal/note"
)

// ErrUniqueConstraint is returned when a write violates a UNIQUE
// constraint (in practice: the slug index).
var ErrUniqueConstraint = &errors.NoteError{
	Code:    "UNIQUE_CONSTRAINT",
	Status:  409,
	Message: "unique constraint violation",
}

// dbVersion is the stored form of a version snapshot inside versions_json.
type dbVersion struct {
	ID        string       `json:"id"`
	Blocks    []note.Block `json:"blocks"`
	Timestamp int64        `json:"ts"` // unix nanoseconds
	Changes   string       `json:"changes,omitempty"`
}

// LoadAll returns every persisted note, oldest created first, or an
// empty slice if the store has never been written.
func (g *Gateway) LoadAll(ctx context.Context) ([]*note.Note, error) {
	rows, err := g.sql.QueryContext(ctx, `
		SELECT id, title, theme, blocks_json, tags_json,
			is_pinned, is_public, slug, versions_json,
			created_at, updated_at
		FROM notes
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, errors.NewStorageRead(err)
	}
	defer rows.Close()

	notes := make([]*note.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, errors.NewStorageRead(err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageRead(err)
	}

	return notes, nil
}

// Upsert inserts or overwrites a note by id. Atomic per note: a failure
// leaves previously stored notes unaffected.
func (g *Gateway) Upsert(ctx context.Context, n *note.Note) error {
	blocksJSON, tagsJSON, versionsJSON, err := encodeNote(n)
	if err != nil {
		return errors.NewStorageWrite(err)
	}

	_, err = g.sql.ExecContext(ctx, `
		INSERT INTO notes (
			id, title, theme, blocks_json, tags_json,
			is_pinned, is_public, slug, versions_json,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			theme = excluded.theme,
			blocks_json = excluded.blocks_json,
			tags_json = excluded.tags_json,
			is_pinned = excluded.is_pinned,
			is_public = excluded.is_public,
			slug = excluded.slug,
			versions_json = excluded.versions_json,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`,
		n.ID, n.Title, string(n.Theme), blocksJSON, tagsJSON,
		boolInt(n.IsPinned), boolInt(n.IsPublic), nullString(n.Slug), versionsJSON,
		n.CreatedAt.UnixNano(), n.UpdatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewStorageWrite(err)
	}

	return nil
}

// Delete removes a note by id. Deleting a nonexistent id is a no-op.
func (g *Gateway) Delete(ctx context.Context, id string) error {
	if _, err := g.sql.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return errors.NewStorageWrite(err)
	}
	return nil
}

// GetBySlug resolves a public share slug to a note via the slug index.
// Absence is a normal result: (nil, nil).
func (g *Gateway) GetBySlug(ctx context.Context, slug string) (*note.Note, error) {
	row := g.sql.QueryRowContext(ctx, `
		SELECT id, title, theme, blocks_json, tags_json,
			is_pinned, is_public, slug, versions_json,
			created_at, updated_at
		FROM notes
		WHERE slug = ?
	`, slug)

	n, err := scanNote(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorageRead(err)
	}

	return n, nil
}

// ReplaceAll replaces the persisted collection wholesale in a single
// transaction. Used by import after full validation; a failure rolls
// back and leaves the existing collection untouched.
func (g *Gateway) ReplaceAll(ctx context.Context, notes []*note.Note) error {
	tx, err := g.sql.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageWrite(err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes`); err != nil {
		return errors.NewStorageWrite(err)
	}

	for _, n := range notes {
		blocksJSON, tagsJSON, versionsJSON, err := encodeNote(n)
		if err != nil {
			return errors.NewStorageWrite(err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO notes (
				id, title, theme, blocks_json, tags_json,
				is_pinned, is_public, slug, versions_json,
				created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			n.ID, n.Title, string(n.Theme), blocksJSON, tagsJSON,
			boolInt(n.IsPinned), boolInt(n.IsPublic), nullString(n.Slug), versionsJSON,
			n.CreatedAt.UnixNano(), n.UpdatedAt.UnixNano(),
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return ErrUniqueConstraint
			}
			return errors.NewStorageWrite(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStorageWrite(err)
	}

	return nil
}

// Count returns the number of persisted notes.
func (g *Gateway) Count(ctx context.Context) (int, error) {
	var count int
	if err := g.sql.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&count); err != nil {
		return 0, errors.NewStorageRead(err)
	}
	return count, nil
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (*note.Note, error) {
	var (
		n            note.Note
		theme        string
		blocksJSON   string
		tagsJSON     sql.NullString
		isPinned     int
		isPublic     int
		slug         sql.NullString
		versionsJSON sql.NullString
		createdAt    int64
		updatedAt    int64
	)

	err := row.Scan(&n.ID, &n.Title, &theme, &blocksJSON, &tagsJSON,
		&isPinned, &isPublic, &slug, &versionsJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	n.Theme = note.Theme(theme)
	if !note.ValidTheme(n.Theme) {
		n.Theme = note.ThemeDefault
	}
	n.IsPinned = isPinned != 0
	n.IsPublic = isPublic != 0
	n.Slug = slug.String
	n.CreatedAt = time.Unix(0, createdAt)
	n.UpdatedAt = time.Unix(0, updatedAt)

	if err := json.Unmarshal([]byte(blocksJSON), &n.Blocks); err != nil {
		// Legacy rows stored flat text; migrate one-way.
		var flat string
		if ferr := json.Unmarshal([]byte(blocksJSON), &flat); ferr != nil {
			return nil, err
		}
		n.Blocks = note.TextBlocks(flat)
	}

	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &n.Tags); err != nil {
			return nil, err
		}
	}

	if versionsJSON.Valid && versionsJSON.String != "" {
		var stored []dbVersion
		if err := json.Unmarshal([]byte(versionsJSON.String), &stored); err != nil {
			return nil, err
		}
		n.Versions = make([]note.Version, len(stored))
		for i, v := range stored {
			n.Versions[i] = note.Version{
				ID:        v.ID,
				Blocks:    v.Blocks,
				Timestamp: time.Unix(0, v.Timestamp),
				Changes:   v.Changes,
			}
		}
	}

	return &n, nil
}

func encodeNote(n *note.Note) (blocksJSON string, tagsJSON, versionsJSON sql.NullString, err error) {
	blocks := n.Blocks
	if blocks == nil {
		blocks = []note.Block{}
	}
	b, err := json.Marshal(blocks)
	if err != nil {
		return "", sql.NullString{}, sql.NullString{}, err
	}
	blocksJSON = string(b)

	if len(n.Tags) > 0 {
		t, err := json.Marshal(n.Tags)
		if err != nil {
			return "", sql.NullString{}, sql.NullString{}, err
		}
		tagsJSON = sql.NullString{String: string(t), Valid: true}
	}

	if len(n.Versions) > 0 {
		stored := make([]dbVersion, len(n.Versions))
		for i, v := range n.Versions {
			stored[i] = dbVersion{
				ID:        v.ID,
				Blocks:    v.Blocks,
				Timestamp: v.Timestamp.UnixNano(),
				Changes:   v.Changes,
			}
		}
		v, err := json.Marshal(stored)
		if err != nil {
			return "", sql.NullString{}, sql.NullString{}, err
		}
		versionsJSON = sql.NullString{String: string(v), Valid: true}
	}

	return blocksJSON, tagsJSON, versionsJSON, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
