package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool definitions. Names follow the "note_action" pattern.

var addToolDef = mcp.NewTool("note_add",
	mcp.WithDescription("Create a new note. Content is plain/markdown text; a template id from note_templates can pre-fill the body instead."),
	mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
	mcp.WithString("content", mcp.Description("Note body as plain or markdown text")),
	mcp.WithString("theme", mcp.Description("Visual theme: default, retro, ocean, forest, or sunset")),
	mcp.WithString("template", mcp.Description("Template id to pre-fill the body (journal, todo, meeting, study)")),
	mcp.WithArray("tags", mcp.Description("Initial tags"), mcp.WithStringItems()),
)

var fetchToolDef = mcp.NewTool("note_fetch",
	mcp.WithDescription("Fetch a single note by id, including its version history."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
)

var updateToolDef = mcp.NewTool("note_update",
	mcp.WithDescription("Update a note's title, content, theme, or public flag. A content change snapshots the prior content as a new version."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	mcp.WithString("title", mcp.Description("New title")),
	mcp.WithString("content", mcp.Description("New body text; replaces the current content")),
	mcp.WithString("theme", mcp.Description("New theme")),
	mcp.WithBoolean("is_public", mcp.Description("Set or clear the public share flag")),
)

var deleteToolDef = mcp.NewTool("note_delete",
	mcp.WithDescription("Delete a note and its version history."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
)

var pinToolDef = mcp.NewTool("note_pin",
	mcp.WithDescription("Toggle a note's pinned flag. Pinned notes list first."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
)

var tagAddToolDef = mcp.NewTool("note_tag_add",
	mcp.WithDescription("Add a tag to a note. Tags are a set; adding an existing tag is a no-op."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	mcp.WithString("tag", mcp.Required(), mcp.Description("Tag to add")),
)

var tagRemoveToolDef = mcp.NewTool("note_tag_remove",
	mcp.WithDescription("Remove a tag from a note."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	mcp.WithString("tag", mcp.Required(), mcp.Description("Tag to remove")),
)

var listToolDef = mcp.NewTool("note_list",
	mcp.WithDescription("List all notes, pinned first."),
)

var searchToolDef = mcp.NewTool("note_search",
	mcp.WithDescription("Case-insensitive substring search over titles, content, and tags. An empty query returns everything."),
	mcp.WithString("query", mcp.Description("Search query")),
)

var analyticsToolDef = mcp.NewTool("note_analytics",
	mcp.WithDescription("Session analytics: note count, last update, activity counts by type, theme and tag tallies."),
)

var versionsToolDef = mcp.NewTool("note_versions",
	mcp.WithDescription("List a note's version history."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
)

var restoreToolDef = mcp.NewTool("note_restore",
	mcp.WithDescription("Restore a note's content from a version. The pre-restore content is snapshotted first, so a restore is undoable."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	mcp.WithString("version_id", mcp.Required(), mcp.Description("Version id to restore")),
)

var shareToolDef = mcp.NewTool("note_share",
	mcp.WithDescription("Toggle public sharing. Sharing derives a URL slug from the title; unsharing clears it."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	mcp.WithBoolean("public", mcp.Required(), mcp.Description("true to share, false to unshare")),
)

var exportToolDef = mcp.NewTool("note_export",
	mcp.WithDescription("Export all notes as a JSON array. Defaults to notes-backup-<date>.json in the exports directory."),
	mcp.WithString("path", mcp.Description("Destination file path (.json)")),
)

var importToolDef = mcp.NewTool("note_import",
	mcp.WithDescription("Validate a backup file and replace the entire collection with its contents. A file that fails validation changes nothing."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Backup file path (.json)")),
)

var templatesToolDef = mcp.NewTool("note_templates",
	mcp.WithDescription("List the available note templates."),
)

var analyzeToolDef = mcp.NewTool("note_analyze",
	mcp.WithDescription("Classify text (or an existing note) into a category with confidence, tone, and tag suggestions. Advisory only."),
	mcp.WithString("id", mcp.Description("Note id to analyze")),
	mcp.WithString("content", mcp.Description("Freeform text to analyze instead of a note")),
)

var suggestToolDef = mcp.NewTool("note_suggest",
	mcp.WithDescription("Ask the configured AI endpoint for title/tag/summary/improvement suggestions for a note. Best-effort; partial results are normal."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
)

var toneToolDef = mcp.NewTool("note_tone",
	mcp.WithDescription("Ask the configured AI endpoint to describe the tone of text (or an existing note) and suggest a matching emoji."),
	mcp.WithString("id", mcp.Description("Note id to analyze")),
	mcp.WithString("content", mcp.Description("Freeform text to analyze instead of a note")),
)
