package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/auth"
	"github.com/sakif/snippetshare/internal/service"
)

// VoteHandler exposes the vote toggle.
type VoteHandler struct {
	votes  *service.VoteService
	logger *slog.Logger
}

func NewVoteHandler(votes *service.VoteService, logger *slog.Logger) *VoteHandler {
	return &VoteHandler{votes: votes, logger: logger}
}

// HandleToggle flips the caller's vote on a snippet.
//
// HTTP: POST /api/snippets/{id}/vote
//
// The response tells the client which way the toggle went along with the
// fresh count, so the UI never has to guess:
//
//	{"action": "added", "upvotes": 12}
func (h *VoteHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	result, err := h.votes.Toggle(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
