package note

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExportRecord is one element of the JSON-array backup format. Field
// names match the browser export shape so old backup files import
// cleanly. Date fields are RFC 3339 strings on disk.
type ExportRecord struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content,omitempty"` // block array, or legacy flat string
	Theme     string          `json:"theme,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
	IsPinned  bool            `json:"isPinned"`
	IsPublic  bool            `json:"isPublic,omitempty"`
	Slug      string          `json:"slug,omitempty"`
	Versions  []ExportVersion `json:"versions,omitempty"`
	CreatedAt string          `json:"createdAt"`
	UpdatedAt string          `json:"updatedAt"`
}

// ExportVersion is a version snapshot in export form.
type ExportVersion struct {
	ID        string          `json:"id"`
	Content   json.RawMessage `json:"content"`
	Timestamp string          `json:"timestamp"`
	Changes   string          `json:"changes,omitempty"`
}

// ToExportRecord converts a note to its export form.
func ToExportRecord(n *Note) (*ExportRecord, error) {
	content, err := json.Marshal(n.Blocks)
	if err != nil {
		return nil, err
	}

	versions := make([]ExportVersion, 0, len(n.Versions))
	for _, v := range n.Versions {
		vc, err := json.Marshal(v.Blocks)
		if err != nil {
			return nil, err
		}
		versions = append(versions, ExportVersion{
			ID:        v.ID,
			Content:   vc,
			Timestamp: v.Timestamp.UTC().Format(time.RFC3339Nano),
			Changes:   v.Changes,
		})
	}

	return &ExportRecord{
		ID:        n.ID,
		Title:     n.Title,
		Content:   content,
		Theme:     string(n.Theme),
		Tags:      n.Tags,
		IsPinned:  n.IsPinned,
		IsPublic:  n.IsPublic,
		Slug:      n.Slug,
		Versions:  versions,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: n.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

// ToNote rehydrates an export record: dates parse back into timestamps
// (including nested version timestamps), legacy flat-text content
// migrates to the block form, and tags are deduplicated.
func (r *ExportRecord) ToNote() (*Note, error) {
	createdAt, err := parseExportTime(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("note %s: invalid createdAt: %w", r.ID, err)
	}
	updatedAt, err := parseExportTime(r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("note %s: invalid updatedAt: %w", r.ID, err)
	}

	blocks, err := decodeContent(r.Content)
	if err != nil {
		return nil, fmt.Errorf("note %s: invalid content: %w", r.ID, err)
	}

	versions := make([]Version, 0, len(r.Versions))
	for _, v := range r.Versions {
		ts, err := parseExportTime(v.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("note %s version %s: invalid timestamp: %w", r.ID, v.ID, err)
		}
		vb, err := decodeContent(v.Content)
		if err != nil {
			return nil, fmt.Errorf("note %s version %s: invalid content: %w", r.ID, v.ID, err)
		}
		versions = append(versions, Version{
			ID:        v.ID,
			Blocks:    vb,
			Timestamp: ts,
			Changes:   v.Changes,
		})
	}

	theme := Theme(r.Theme)
	if !ValidTheme(theme) {
		theme = ThemeDefault
	}

	slug := r.Slug
	if r.IsPublic && slug == "" {
		slug = Slugify(r.Title)
	}

	return &Note{
		ID:        r.ID,
		Title:     r.Title,
		Blocks:    blocks,
		Theme:     theme,
		Tags:      DedupTags(r.Tags),
		IsPinned:  r.IsPinned,
		IsPublic:  r.IsPublic,
		Slug:      slug,
		Versions:  versions,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// DedupTags removes duplicate tags, preserving first-seen order.
func DedupTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// decodeContent accepts either a block array or a legacy flat string.
func decodeContent(raw json.RawMessage) ([]Block, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []Block{}, nil
	}

	var blocks []Block
	if err := json.Unmarshal(raw, &blocks); err == nil {
		for i := range blocks {
			if !ValidBlockType(blocks[i].Type) {
				blocks[i].Type = BlockParagraph
			}
		}
		return blocks, nil
	}

	var flat string
	if err := json.Unmarshal(raw, &flat); err == nil {
		return TextBlocks(flat), nil
	}

	return nil, fmt.Errorf("content is neither a block array nor a string")
}

// parseExportTime accepts RFC 3339 with or without fractional seconds.
func parseExportTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
