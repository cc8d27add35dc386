package web

import (
	"net/http"
	"strings"

	"retronotes/internal/config"
	"retronotes/internal/errors"
	"retronotes/internal/store"
	tmpl "retronotes/internal/template"
)

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	store    *store.Store
	cfg      *config.Config
	renderer *Renderer
}

// HandleList handles GET /notes — list all notes, pinned first.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   "Notes",
			Version: h.renderer.version,
			Nav:     "notes",
		},
		Notes: h.store.List(),
	})
}

// HandleSearch handles GET /notes/search — substring search over
// titles, content, and tags.
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	data := SearchPageData{
		PageData: PageData{
			Title:   "Search",
			Version: h.renderer.version,
			Nav:     "search",
		},
		Query:    query,
		HasQuery: query != "",
	}

	if query != "" {
		data.Notes = h.store.Search(query)
	}

	// If htmx targets #results, render only the results fragment
	if r.Header.Get("HX-Target") == "results" {
		h.renderer.renderBlock(w, http.StatusOK, "search", "search-results", data)
		return
	}

	h.renderer.renderPage(w, r, "search", data)
}

// HandleAnalytics handles GET /notes/analytics — activity and tag
// distribution over the current session.
func (h *Handlers) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, r, "analytics", AnalyticsPageData{
		PageData: PageData{
			Title:   "Analytics",
			Version: h.renderer.version,
			Nav:     "analytics",
		},
		Analytics: h.store.Analytics(),
		Activity:  h.store.Activity(),
	})
}

// HandleDetail handles GET /notes/{id} — view a single note.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("note ID is required"))
		return
	}

	n, ok := h.store.Get(id)
	if !ok {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}

	shareURL := ""
	if n.IsPublic && n.Slug != "" {
		shareURL = "/note/" + n.Slug
	}

	h.renderer.renderPage(w, r, "detail", DetailPageData{
		PageData: PageData{
			Title:   n.Title,
			Version: h.renderer.version,
			Nav:     "notes",
		},
		Note:         n,
		RenderedHTML: renderNote(n),
		Analysis:     tmpl.AnalyzeContent(n.PlainText()),
		ShareURL:     shareURL,
	})
}

// HandleDelete handles DELETE /notes/{id}.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("note ID is required"))
		return
	}

	deleted := h.store.Delete(id)

	// HTMX request: redirect via HX-Redirect header
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/notes")
		w.WriteHeader(http.StatusOK)
		return
	}

	// JSON request
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		renderJSON(w, http.StatusOK, map[string]any{
			"deleted": deleted,
			"id":      id,
		})
		return
	}

	// Default: redirect
	http.Redirect(w, r, "/notes", http.StatusFound)
}

// HandlePin handles POST /notes/{id}/pin — toggle the pinned flag.
func (h *Handlers) HandlePin(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("note ID is required"))
		return
	}

	if !h.store.TogglePin(id) {
		h.renderer.renderError(w, r, errors.NewNotFound(id))
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/notes/"+id)
		w.WriteHeader(http.StatusOK)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		n, _ := h.store.Get(id)
		renderJSON(w, http.StatusOK, map[string]any{
			"id":        id,
			"is_pinned": n.IsPinned,
		})
		return
	}

	http.Redirect(w, r, "/notes/"+id, http.StatusFound)
}

// HandleShared handles GET /note/{slug} — the public share page. A
// slug that exists but is no longer public reads the same as absent.
func (h *Handlers) HandleShared(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("slug is required"))
		return
	}

	n, err := h.store.FindBySlug(r.Context(), slug)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if n == nil || !n.IsPublic {
		h.renderer.renderError(w, r, errors.NewNotFound(slug))
		return
	}

	h.renderer.renderPage(w, r, "share", SharePageData{
		PageData: PageData{
			Title:   n.Title,
			Version: h.renderer.version,
		},
		Note:         n,
		RenderedHTML: renderNote(n),
	})
}
