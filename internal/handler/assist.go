package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/assist"
)

// AssistHandler exposes the AI helper endpoints. All five take a code
// payload, burn one call from the shared budget, and return structured
// suggestions the editor can apply.
type AssistHandler struct {
	assistant *assist.Assistant
	logger    *slog.Logger
}

func NewAssistHandler(assistant *assist.Assistant, logger *slog.Logger) *AssistHandler {
	return &AssistHandler{assistant: assistant, logger: logger}
}

// HandleAssistUnavailable stands in for every assist route on deployments
// without a Gemini API key. The rest of the API is unaffected; these
// endpoints answer 503 until a key is configured.
func HandleAssistUnavailable(w http.ResponseWriter, r *http.Request) {
	writeError(w, &apperror.AppError{
		Err:     apperror.ErrUnavailable,
		Message: "AI assist is not configured on this server",
	})
}

// assistRequest is the shared request shape. Title/description/language are
// optional context — only code is universally required, and the assistant
// validates it.
type assistRequest struct {
	Code        string `json:"code"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`
}

func decodeAssistRequest(r *http.Request) (*assistRequest, error) {
	var req assistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, apperror.ValidationFailed("body", "invalid JSON request body")
	}
	return &req, nil
}

// HandleSuggestTags returns up to five suggested tags for a snippet.
//
// HTTP: POST /api/assist/tags
// Auth: Required
func (h *AssistHandler) HandleSuggestTags(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAssistRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	tags, err := h.assistant.SuggestTags(r.Context(), req.Code, req.Title, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"tags": tags})
}

// HandleAnalyze returns an issue/improvement review of the code.
//
// HTTP: POST /api/assist/analyze
// Auth: Required
func (h *AssistHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAssistRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	analysis, err := h.assistant.Analyze(r.Context(), req.Code, req.Language)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

// HandleImprove returns a rewritten version of the code with the changes
// explained.
//
// HTTP: POST /api/assist/improve
// Auth: Required
func (h *AssistHandler) HandleImprove(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAssistRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	improvement, err := h.assistant.Improve(r.Context(), req.Code, req.Language)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, improvement)
}

// HandleDetectLanguage identifies the snippet's programming language.
//
// HTTP: POST /api/assist/language
// Auth: Required
func (h *AssistHandler) HandleDetectLanguage(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAssistRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	language, err := h.assistant.DetectLanguage(r.Context(), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"language": language})
}

// HandleDescribe drafts a title and description for the snippet.
//
// HTTP: POST /api/assist/describe
// Auth: Required
func (h *AssistHandler) HandleDescribe(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAssistRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	suggestion, err := h.assistant.Describe(r.Context(), req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, suggestion)
}
