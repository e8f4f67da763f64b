package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/auth"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/service"
)

// SnippetHandler exposes snippet CRUD plus the owner's listing and stats.
//
// The handler only parses HTTP and translates errors; every business rule
// (validation, ownership, the profile-first invariant) lives in the service.
type SnippetHandler struct {
	snippets *service.SnippetService
	logger   *slog.Logger
}

func NewSnippetHandler(snippets *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{snippets: snippets, logger: logger}
}

// createSnippetRequest is the POST body for a new snippet.
type createSnippetRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Code        string   `json:"code"`
	Tags        []string `json:"tags"`
}

// HandleCreate saves a new snippet owned by the session user.
//
// HTTP: POST /api/snippets
// BODY: {"title": "...", "description": "...", "code": "...", "tags": [...]}
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("sign in to create snippets"))
		return
	}

	var req createSnippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid snippet JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	snippet, err := h.snippets.Create(r.Context(), userID, req.Title, req.Description, req.Code, req.Tags)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, snippet)
}

// HandleGetByID returns a single snippet.
//
// HTTP: GET /api/snippets/{id}
func (h *SnippetHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	snippet, err := h.snippets.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleUpdate applies a partial update to a snippet the session user owns.
//
// HTTP: PUT /api/snippets/{id}
//
// The body uses present-or-absent semantics: omitted fields keep their prior
// values, which is why the request decodes straight into model.SnippetUpdate
// (all pointer fields) instead of a struct of plain strings.
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("sign in to update snippets"))
		return
	}

	var upd model.SnippetUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		h.logger.Warn("invalid snippet update JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	snippet, err := h.snippets.Update(r.Context(), r.PathValue("id"), userID, upd)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete removes a snippet the session user owns, together with its
// votes.
//
// HTTP: DELETE /api/snippets/{id}
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("sign in to delete snippets"))
		return
	}

	if err := h.snippets.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent) // 204 — successful deletion, no body
}

// HandleListMine returns the session user's snippets, newest first.
//
// HTTP: GET /api/my/snippets
func (h *SnippetHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("sign in to list your snippets"))
		return
	}

	snippets, err := h.snippets.ListByOwner(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleStats returns the session user's dashboard numbers.
//
// HTTP: GET /api/my/stats
func (h *SnippetHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("sign in to view your stats"))
		return
	}

	stats, err := h.snippets.Stats(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
