package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"retronotes/internal/config"
	"retronotes/internal/db"
	"retronotes/internal/store"
	"retronotes/internal/suggest"
)

// testSetup creates a temporary store, config, and handlers for testing.
func testSetup(t *testing.T) *Handlers {
	t.Helper()

	tmpDir := t.TempDir()
	gateway, err := db.Open(tmpDir, nil)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { gateway.Close() })

	st, err := store.New(gateway, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(st.Close)

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true // Allow temp dirs in tests

	suggester := suggest.NewClient(cfg, "", zerolog.Nop())

	return NewHandlers(st, cfg, suggester, filepath.Join(tmpDir, "exports"))
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// seedNote creates a note through the add handler and returns its id.
func seedNote(t *testing.T, h *Handlers, title, content string) string {
	t.Helper()
	result, err := h.HandleAdd(context.Background(), makeRequest(map[string]any{
		"title":   title,
		"content": content,
	}))
	if err != nil {
		t.Fatalf("HandleAdd returned error: %v", err)
	}
	if result.IsError {
		t.Fatalf("HandleAdd failed: %s", extractErrorMessage(result))
	}
	payload := extractPayload(t, result)
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatalf("no id in add result: %v", payload)
	}
	return id
}

func TestHandleAdd(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name: "add with content",
			args: map[string]any{
				"title":   "My note",
				"content": "some text",
			},
			wantError: false,
		},
		{
			name:      "add without title",
			args:      map[string]any{"content": "text"},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name: "add from template",
			args: map[string]any{
				"title":    "Daily",
				"template": "journal",
			},
			wantError: false,
		},
		{
			name: "add with unknown template",
			args: map[string]any{
				"title":    "x",
				"template": "nope",
			},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name: "add with unknown theme",
			args: map[string]any{
				"title": "x",
				"theme": "neon",
			},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
		{
			name: "add with tags",
			args: map[string]any{
				"title": "tagged",
				"tags":  []string{"a", "b", "a"},
			},
			wantError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleAdd(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}

			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				if tt.errorCode != "" {
					assertErrorCode(t, result, tt.errorCode)
				}
			} else if result.IsError {
				t.Errorf("expected success, got error: %v", extractErrorMessage(result))
			}
		})
	}
}

func TestHandleAdd_TagsDeduplicated(t *testing.T) {
	h := testSetup(t)

	result, _ := h.HandleAdd(context.Background(), makeRequest(map[string]any{
		"title": "tagged",
		"tags":  []string{"a", "b", "a"},
	}))
	payload := extractPayload(t, result)
	tags, _ := payload["tags"].([]any)
	if len(tags) != 2 {
		t.Errorf("tags = %v, want 2 unique entries", tags)
	}
}

func TestHandleFetch(t *testing.T) {
	h := testSetup(t)
	id := seedNote(t, h, "fetch-me", "body")

	result, err := h.HandleFetch(context.Background(), makeRequest(map[string]any{"id": id}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	payload := extractPayload(t, result)
	if payload["title"] != "fetch-me" {
		t.Errorf("title = %v", payload["title"])
	}

	missing, _ := h.HandleFetch(context.Background(), makeRequest(map[string]any{"id": "nope"}))
	assertErrorCode(t, missing, "NOT_FOUND")
}

func TestHandleUpdate_ContentCreatesVersion(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()
	id := seedNote(t, h, "versioned", "first")

	result, _ := h.HandleUpdate(ctx, makeRequest(map[string]any{
		"id":      id,
		"content": "second",
	}))
	if result.IsError {
		t.Fatalf("update failed: %s", extractErrorMessage(result))
	}

	payload := extractPayload(t, result)
	versions, _ := payload["versions"].([]any)
	if len(versions) != 1 {
		t.Errorf("versions = %v, want 1 snapshot", versions)
	}

	missing, _ := h.HandleUpdate(ctx, makeRequest(map[string]any{"id": "nope", "content": "x"}))
	assertErrorCode(t, missing, "NOT_FOUND")
}

func TestHandleDelete(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()
	id := seedNote(t, h, "doomed", "x")

	result, _ := h.HandleDelete(ctx, makeRequest(map[string]any{"id": id}))
	payload := extractPayload(t, result)
	if payload["deleted"] != true {
		t.Errorf("deleted = %v, want true", payload["deleted"])
	}

	// Deleting a missing id is a no-op, not an error.
	again, _ := h.HandleDelete(ctx, makeRequest(map[string]any{"id": id}))
	payload = extractPayload(t, again)
	if payload["deleted"] != false {
		t.Errorf("second delete = %v, want false", payload["deleted"])
	}
}

func TestHandlePinAndTags(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()
	id := seedNote(t, h, "pinned", "x")

	result, _ := h.HandlePin(ctx, makeRequest(map[string]any{"id": id}))
	payload := extractPayload(t, result)
	if payload["is_pinned"] != true {
		t.Errorf("is_pinned = %v, want true", payload["is_pinned"])
	}

	result, _ = h.HandleTagAdd(ctx, makeRequest(map[string]any{"id": id, "tag": "travel"}))
	payload = extractPayload(t, result)
	tags, _ := payload["tags"].([]any)
	if len(tags) != 1 || tags[0] != "travel" {
		t.Errorf("tags = %v, want [travel]", tags)
	}

	result, _ = h.HandleTagRemove(ctx, makeRequest(map[string]any{"id": id, "tag": "travel"}))
	payload = extractPayload(t, result)
	if tags, _ := payload["tags"].([]any); len(tags) != 0 {
		t.Errorf("tags after remove = %v, want empty", tags)
	}

	empty, _ := h.HandleTagAdd(ctx, makeRequest(map[string]any{"id": id}))
	assertErrorCode(t, empty, "INVALID_REQUEST")
}

func TestHandleListAndSearch(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()
	seedNote(t, h, "alpha", "apples and oranges")
	seedNote(t, h, "beta", "bananas")

	result, _ := h.HandleList(ctx, makeRequest(nil))
	payload := extractPayload(t, result)
	notes, _ := payload["notes"].([]any)
	if len(notes) != 2 {
		t.Errorf("list = %d notes, want 2", len(notes))
	}

	result, _ = h.HandleSearch(ctx, makeRequest(map[string]any{"query": "banana"}))
	payload = extractPayload(t, result)
	notes, _ = payload["notes"].([]any)
	if len(notes) != 1 {
		t.Errorf("search = %d notes, want 1", len(notes))
	}

	// Empty query returns everything.
	result, _ = h.HandleSearch(ctx, makeRequest(nil))
	payload = extractPayload(t, result)
	notes, _ = payload["notes"].([]any)
	if len(notes) != 2 {
		t.Errorf("empty search = %d notes, want 2", len(notes))
	}
}

func TestHandleVersionsAndRestore(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()
	id := seedNote(t, h, "history", "v1")

	h.HandleUpdate(ctx, makeRequest(map[string]any{"id": id, "content": "v2"}))

	result, _ := h.HandleVersions(ctx, makeRequest(map[string]any{"id": id}))
	payload := extractPayload(t, result)
	versions, _ := payload["versions"].([]any)
	if len(versions) != 1 {
		t.Fatalf("versions = %v, want 1", versions)
	}
	versionID := versions[0].(map[string]any)["id"].(string)

	result, _ = h.HandleRestore(ctx, makeRequest(map[string]any{
		"id":         id,
		"version_id": versionID,
	}))
	if result.IsError {
		t.Fatalf("restore failed: %s", extractErrorMessage(result))
	}
	payload = extractPayload(t, result)
	// Restore snapshots the pre-restore content, so history grew.
	if versions, _ := payload["versions"].([]any); len(versions) != 2 {
		t.Errorf("versions after restore = %d, want 2", len(versions))
	}

	missing, _ := h.HandleRestore(ctx, makeRequest(map[string]any{"id": id, "version_id": "nope"}))
	assertErrorCode(t, missing, "NOT_FOUND")
}

func TestHandleShare(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()
	id := seedNote(t, h, "Public Trip Plan", "x")

	result, _ := h.HandleShare(ctx, makeRequest(map[string]any{"id": id, "public": true}))
	payload := extractPayload(t, result)
	if payload["slug"] != "public-trip-plan" {
		t.Errorf("slug = %v, want public-trip-plan", payload["slug"])
	}

	result, _ = h.HandleShare(ctx, makeRequest(map[string]any{"id": id, "public": false}))
	payload = extractPayload(t, result)
	if payload["is_public"] != false {
		t.Errorf("is_public = %v, want false", payload["is_public"])
	}
	if _, ok := payload["slug"]; ok {
		t.Error("unshared note should not report a slug")
	}
}

func TestHandleExportImport(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()
	seedNote(t, h, "exported", "body")

	dir := t.TempDir()
	path := filepath.Join(dir, "backup.json")

	result, _ := h.HandleExport(ctx, makeRequest(map[string]any{"path": path}))
	if result.IsError {
		t.Fatalf("export failed: %s", extractErrorMessage(result))
	}
	payload := extractPayload(t, result)
	if payload["count"] != float64(1) {
		t.Errorf("count = %v, want 1", payload["count"])
	}

	result, _ = h.HandleImport(ctx, makeRequest(map[string]any{"path": path}))
	if result.IsError {
		t.Fatalf("import failed: %s", extractErrorMessage(result))
	}
	payload = extractPayload(t, result)
	if payload["imported"] != float64(1) {
		t.Errorf("imported = %v, want 1", payload["imported"])
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"not": "an array"}`), 0600); err != nil {
		t.Fatal(err)
	}
	result, _ = h.HandleImport(ctx, makeRequest(map[string]any{"path": bad}))
	assertErrorCode(t, result, "IMPORT_VALIDATION")
}

func TestHandleExport_DefaultPath(t *testing.T) {
	h := testSetup(t)
	seedNote(t, h, "n", "x")

	result, _ := h.HandleExport(context.Background(), makeRequest(nil))
	if result.IsError {
		t.Fatalf("export failed: %s", extractErrorMessage(result))
	}
	payload := extractPayload(t, result)
	path, _ := payload["path"].(string)
	if filepath.Dir(path) != h.exportsDir {
		t.Errorf("path = %q, want file in exports dir", path)
	}
}

func TestHandleTemplatesAndAnalyze(t *testing.T) {
	h := testSetup(t)
	ctx := context.Background()

	result, _ := h.HandleTemplates(ctx, makeRequest(nil))
	payload := extractPayload(t, result)
	templates, _ := payload["templates"].([]any)
	if len(templates) != 4 {
		t.Errorf("templates = %d, want 4", len(templates))
	}

	result, _ = h.HandleAnalyze(ctx, makeRequest(map[string]any{
		"content": "meeting agenda with attendees",
	}))
	payload = extractPayload(t, result)
	if payload["category"] != "meeting" {
		t.Errorf("category = %v, want meeting", payload["category"])
	}

	id := seedNote(t, h, "journal", "today I was feeling grateful")
	result, _ = h.HandleAnalyze(ctx, makeRequest(map[string]any{"id": id}))
	payload = extractPayload(t, result)
	if payload["category"] != "journal" {
		t.Errorf("category = %v, want journal", payload["category"])
	}

	empty, _ := h.HandleAnalyze(ctx, makeRequest(nil))
	assertErrorCode(t, empty, "INVALID_REQUEST")
}

func TestHandleSuggest_NoKeyIsRecoverable(t *testing.T) {
	h := testSetup(t)
	id := seedNote(t, h, "n", "x")

	result, _ := h.HandleSuggest(context.Background(), makeRequest(map[string]any{"id": id}))
	assertErrorCode(t, result, "SUGGESTION_UNAVAILABLE")
}

func TestHandleSuggest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "Title: Better Title"}},
			},
		})
	}))
	defer srv.Close()

	h := testSetup(t)
	cfg := config.DefaultConfig()
	cfg.SuggestionBaseURL = srv.URL
	h.suggester = suggest.NewClient(cfg, "key", zerolog.Nop())

	id := seedNote(t, h, "n", "x")
	result, _ := h.HandleSuggest(context.Background(), makeRequest(map[string]any{"id": id}))
	if result.IsError {
		t.Fatalf("suggest failed: %s", extractErrorMessage(result))
	}
	payload := extractPayload(t, result)
	if payload["title"] != "Better Title" {
		t.Errorf("title = %v", payload["title"])
	}
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"note_add", "bogus_tool"})
	if len(unknown) != 1 || unknown[0] != "bogus_tool" {
		t.Errorf("unknown = %v, want [bogus_tool]", unknown)
	}
}

func TestNewServer_SkipsDisabledTools(t *testing.T) {
	h := testSetup(t)
	cfg := config.DefaultConfig()
	cfg.DisabledTools = []string{"note_import", "note_export"}

	s := NewServer(h.store, cfg, h.suggester, h.exportsDir, "test")
	if s == nil {
		t.Fatal("NewServer returned nil")
	}
}

// Test helpers

// assertErrorCode checks that an error result carries the expected code.
func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if !result.IsError {
		t.Errorf("expected error result with code %s, got success", expectedCode)
		return
	}
	if len(result.Content) == 0 {
		t.Errorf("no content in error result")
		return
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Errorf("content is not TextContent")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Errorf("failed to unmarshal error payload: %v", err)
		return
	}

	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Errorf("no error object in payload")
		return
	}

	if code, _ := errorObj["code"].(string); code != expectedCode {
		t.Errorf("error code = %q, want %q", code, expectedCode)
	}
}

// extractPayload unmarshals a success result's JSON content.
func extractPayload(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()

	if len(result.Content) == 0 {
		t.Fatalf("no content in result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is not TextContent")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal payload: %v (%s)", err, text.Text)
	}
	return payload
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}

func TestHandleAnalyze_EmptyNoteContent(t *testing.T) {
	h := testSetup(t)
	id := seedNote(t, h, "Blank page", "")

	result, _ := h.HandleAnalyze(context.Background(), makeRequest(map[string]any{"id": id}))
	if result.IsError {
		t.Fatalf("analyze of an empty note failed: %s", extractErrorMessage(result))
	}
	payload := extractPayload(t, result)
	if payload["category"] != "other" {
		t.Errorf("category = %v, want other", payload["category"])
	}
}

func TestHandleTone_NoKeyIsRecoverable(t *testing.T) {
	h := testSetup(t)

	result, _ := h.HandleTone(context.Background(), makeRequest(map[string]any{
		"content": "what a great day",
	}))
	assertErrorCode(t, result, "SUGGESTION_UNAVAILABLE")
}

func TestHandleTone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "Tone: upbeat\nEmoji: 🎉"}},
			},
		})
	}))
	defer srv.Close()

	h := testSetup(t)
	cfg := config.DefaultConfig()
	cfg.SuggestionBaseURL = srv.URL
	h.suggester = suggest.NewClient(cfg, "key", zerolog.Nop())

	id := seedNote(t, h, "Party", "we won the finals")
	result, _ := h.HandleTone(context.Background(), makeRequest(map[string]any{"id": id}))
	if result.IsError {
		t.Fatalf("tone failed: %s", extractErrorMessage(result))
	}
	payload := extractPayload(t, result)
	if payload["tone"] != "upbeat" {
		t.Errorf("tone = %v, want upbeat", payload["tone"])
	}
	if payload["emoji"] != "🎉" {
		t.Errorf("emoji = %v", payload["emoji"])
	}

	missing, _ := h.HandleTone(context.Background(), makeRequest(map[string]any{"id": "nope"}))
	assertErrorCode(t, missing, "NOT_FOUND")

	empty, _ := h.HandleTone(context.Background(), makeRequest(nil))
	assertErrorCode(t, empty, "INVALID_REQUEST")
}
