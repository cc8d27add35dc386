package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"retronotes/internal/config"
	"retronotes/internal/errors"
	"retronotes/internal/note"
	"retronotes/internal/store"
	"retronotes/internal/suggest"
	tmpl "retronotes/internal/template"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store      *store.Store
	cfg        *config.Config
	suggester  *suggest.Client
	exportsDir string
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(st *store.Store, cfg *config.Config, suggester *suggest.Client, exportsDir string) *Handlers {
	return &Handlers{store: st, cfg: cfg, suggester: suggester, exportsDir: exportsDir}
}

// Request types for each tool

// AddRequest represents the arguments for note_add.
type AddRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content,omitempty"`
	Theme    string   `json:"theme,omitempty"`
	Template string   `json:"template,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// FetchRequest represents the arguments for note_fetch.
type FetchRequest struct {
	ID string `json:"id"`
}

// UpdateRequest represents the arguments for note_update.
type UpdateRequest struct {
	ID       string  `json:"id"`
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	Theme    *string `json:"theme,omitempty"`
	IsPublic *bool   `json:"is_public,omitempty"`
}

// DeleteRequest represents the arguments for note_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// PinRequest represents the arguments for note_pin.
type PinRequest struct {
	ID string `json:"id"`
}

// TagRequest represents the arguments for note_tag_add and note_tag_remove.
type TagRequest struct {
	ID  string `json:"id"`
	Tag string `json:"tag"`
}

// SearchRequest represents the arguments for note_search.
type SearchRequest struct {
	Query string `json:"query,omitempty"`
}

// VersionsRequest represents the arguments for note_versions.
type VersionsRequest struct {
	ID string `json:"id"`
}

// RestoreRequest represents the arguments for note_restore.
type RestoreRequest struct {
	ID        string `json:"id"`
	VersionID string `json:"version_id"`
}

// ShareRequest represents the arguments for note_share.
type ShareRequest struct {
	ID     string `json:"id"`
	Public bool   `json:"public"`
}

// ExportRequest represents the arguments for note_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for note_import.
type ImportRequest struct {
	Path string `json:"path"`
}

// AnalyzeRequest represents the arguments for note_analyze.
type AnalyzeRequest struct {
	ID      string `json:"id,omitempty"`
	Content string `json:"content,omitempty"`
}

// SuggestRequest represents the arguments for note_suggest.
type SuggestRequest struct {
	ID string `json:"id"`
}

// ToneRequest represents the arguments for note_tone.
type ToneRequest struct {
	ID      string `json:"id,omitempty"`
	Content string `json:"content,omitempty"`
}

// Handler implementations

// HandleAdd handles the note_add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var blocks []note.Block
	switch {
	case input.Template != "":
		t, ok := tmpl.ByID(input.Template)
		if !ok {
			return errorResult(errors.NewInvalidRequest("unknown template: " + input.Template)), nil
		}
		blocks = t.Instantiate()
	case input.Content != "":
		blocks = note.TextBlocks(input.Content)
	}

	theme := note.Theme(input.Theme)
	if input.Theme != "" && !note.ValidTheme(theme) {
		return errorResult(errors.NewInvalidRequest("unknown theme: " + input.Theme)), nil
	}

	n, err := h.store.Add(store.AddInput{
		Title:  input.Title,
		Blocks: blocks,
		Theme:  theme,
	})
	if err != nil {
		return errorResult(err), nil
	}
	for _, tag := range input.Tags {
		h.store.AddTag(n.ID, tag)
	}
	n, _ = h.store.Get(n.ID)

	return successResult(n)
}

// HandleFetch handles the note_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	n, ok := h.store.Get(input.ID)
	if !ok {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}

	return successResult(n)
}

// HandleUpdate handles the note_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	update := store.UpdateInput{
		Title:    input.Title,
		IsPublic: input.IsPublic,
	}
	if input.Content != nil {
		blocks := note.TextBlocks(*input.Content)
		update.Blocks = &blocks
	}
	if input.Theme != nil {
		theme := note.Theme(*input.Theme)
		if !note.ValidTheme(theme) {
			return errorResult(errors.NewInvalidRequest("unknown theme: " + *input.Theme)), nil
		}
		update.Theme = &theme
	}

	n, ok := h.store.Update(input.ID, update)
	if !ok {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}

	return successResult(n)
}

// HandleDelete handles the note_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	deleted := h.store.Delete(input.ID)
	return successResult(map[string]any{"id": input.ID, "deleted": deleted})
}

// HandlePin handles the note_pin tool call.
func (h *Handlers) HandlePin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[PinRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if !h.store.TogglePin(input.ID) {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}
	n, _ := h.store.Get(input.ID)
	return successResult(map[string]any{"id": n.ID, "is_pinned": n.IsPinned})
}

// HandleTagAdd handles the note_tag_add tool call.
func (h *Handlers) HandleTagAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TagRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Tag == "" {
		return errorResult(errors.NewInvalidRequest("tag is required")), nil
	}

	if !h.store.AddTag(input.ID, input.Tag) {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}
	n, _ := h.store.Get(input.ID)
	return successResult(map[string]any{"id": n.ID, "tags": n.Tags})
}

// HandleTagRemove handles the note_tag_remove tool call.
func (h *Handlers) HandleTagRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[TagRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if !h.store.RemoveTag(input.ID, input.Tag) {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}
	n, _ := h.store.Get(input.ID)
	return successResult(map[string]any{"id": n.ID, "tags": n.Tags})
}

// HandleList handles the note_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(map[string]any{"notes": h.store.List()})
}

// HandleSearch handles the note_search tool call.
func (h *Handlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SearchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	return successResult(map[string]any{
		"query": input.Query,
		"notes": h.store.Search(input.Query),
	})
}

// HandleAnalytics handles the note_analytics tool call.
func (h *Handlers) HandleAnalytics(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(h.store.Analytics())
}

// HandleVersions handles the note_versions tool call.
func (h *Handlers) HandleVersions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[VersionsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	n, ok := h.store.Get(input.ID)
	if !ok {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}
	return successResult(map[string]any{"id": n.ID, "versions": n.Versions})
}

// HandleRestore handles the note_restore tool call.
func (h *Handlers) HandleRestore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RestoreRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if !h.store.RestoreVersion(input.ID, input.VersionID) {
		return errorResult(errors.NewNotFound(input.ID + "/" + input.VersionID)), nil
	}
	n, _ := h.store.Get(input.ID)
	return successResult(n)
}

// HandleShare handles the note_share tool call.
func (h *Handlers) HandleShare(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ShareRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	n, ok := h.store.SetPublic(input.ID, input.Public)
	if !ok {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}

	result := map[string]any{"id": n.ID, "is_public": n.IsPublic}
	if n.IsPublic {
		result["slug"] = n.Slug
		result["share_path"] = "/note/" + n.Slug
	}
	return successResult(result)
}

// HandleExport handles the note_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	path := input.Path
	if path == "" {
		path = store.DefaultExportPath(h.exportsDir, time.Now())
	}

	result, err := h.store.Export(path, h.pathPolicy())
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleImport handles the note_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.store.Import(input.Path, h.pathPolicy())
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleTemplates handles the note_templates tool call.
func (h *Handlers) HandleTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(map[string]any{"templates": tmpl.Catalog()})
}

// HandleAnalyze handles the note_analyze tool call.
func (h *Handlers) HandleAnalyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AnalyzeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	text, errRes := h.resolveText(input.ID, input.Content)
	if errRes != nil {
		return errRes, nil
	}

	return successResult(tmpl.AnalyzeContent(text))
}

// resolveText picks the text for content-analysis tools: the named
// note's flattened content when an id is given, the inline content
// otherwise. A found note with empty content is still valid input.
func (h *Handlers) resolveText(id, content string) (string, *mcp.CallToolResult) {
	if id != "" {
		n, ok := h.store.Get(id)
		if !ok {
			return "", errorResult(errors.NewNotFound(id))
		}
		return n.PlainText(), nil
	}
	if content == "" {
		return "", errorResult(errors.NewInvalidRequest("either id or content is required"))
	}
	return content, nil
}

// HandleSuggest handles the note_suggest tool call.
func (h *Handlers) HandleSuggest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SuggestRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	n, ok := h.store.Get(input.ID)
	if !ok {
		return errorResult(errors.NewNotFound(input.ID)), nil
	}

	result, err := h.suggester.Suggest(ctx, n)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleTone handles the note_tone tool call.
func (h *Handlers) HandleTone(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ToneRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	text, errRes := h.resolveText(input.ID, input.Content)
	if errRes != nil {
		return errRes, nil
	}

	result, err := h.suggester.DetectTone(ctx, text)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

func (h *Handlers) pathPolicy() store.PathPolicy {
	return store.PathPolicy{ExportsDir: h.exportsDir, Cfg: h.cfg}
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if nErr, ok := err.(*errors.NoteError); ok {
		errorObj := map[string]any{
			"code":    nErr.Code,
			"message": nErr.Message,
			"status":  nErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if nErr.Code != errors.ErrInternal && nErr.Details != nil {
			errorObj["details"] = nErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
