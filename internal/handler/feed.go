package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/snippetshare/internal/auth"
	"github.com/sakif/snippetshare/internal/service"
)

// FeedHandler exposes the browse feed, text/tag search, and popular tags.
type FeedHandler struct {
	feed   *service.FeedService
	logger *slog.Logger
}

func NewFeedHandler(feed *service.FeedService, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{feed: feed, logger: logger}
}

// queryInt parses an optional integer query parameter, returning fallback
// for missing or malformed values. Bad pagination input degrades to the
// default rather than erroring — nothing here is worth a 400.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// HandleFeed returns the ranked feed page.
//
// HTTP: GET /api/feed?limit=50&offset=0
//
// Mounted behind OptionalAuth: signed-in viewers get their vote status on
// every row ("votedByViewer": true/false), anonymous viewers get null and
// no vote lookups happen at all.
func (h *FeedHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context()) // "" when anonymous

	items, err := h.feed.List(r.Context(),
		viewerID,
		queryInt(r, "limit", service.DefaultFeedLimit),
		queryInt(r, "offset", 0),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// HandleSearch returns snippets matching a text query.
//
// HTTP: GET /api/snippets/search?q=term&limit=50
//
// An empty q matches nothing by contract; clients that want everything
// should call /api/feed. We return the empty result rather than silently
// redirecting.
func (h *FeedHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))

	snippets, err := h.feed.SearchByText(r.Context(), term,
		queryInt(r, "limit", service.DefaultFeedLimit))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandleSearchByTag returns snippets carrying the given tag.
//
// HTTP: GET /api/snippets/tag/{tag}?limit=50
func (h *FeedHandler) HandleSearchByTag(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.feed.SearchByTag(r.Context(), r.PathValue("tag"),
		queryInt(r, "limit", service.DefaultFeedLimit))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snippets)
}

// HandlePopularTags returns the most-used tags with counts.
//
// HTTP: GET /api/tags/popular?limit=10
func (h *FeedHandler) HandlePopularTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.feed.PopularTags(r.Context(), queryInt(r, "limit", 10))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tags)
}
