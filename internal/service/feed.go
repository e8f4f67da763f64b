package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

// Pagination bounds for the feed and search listings.
const (
	DefaultFeedLimit = 50
	MaxFeedLimit     = 100
)

// FeedService produces the ranked browse feed and its search variants.
type FeedService struct {
	feed   repository.FeedRepository
	logger *slog.Logger
}

func NewFeedService(feed repository.FeedRepository, logger *slog.Logger) *FeedService {
	return &FeedService{
		feed:   feed,
		logger: logger,
	}
}

// List returns the feed page at limit/offset, ranked by upvotes DESC with
// created_at DESC as tie-break (deterministic for a fixed snapshot).
//
// viewerID == "" means anonymous browsing: every row's VotedByViewer is nil
// and the ledger is never consulted. Offset pagination is not stable under
// concurrent inserts — accepted at this scale.
func (s *FeedService) List(ctx context.Context, viewerID string, limit, offset int) ([]model.FeedItem, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}
	if offset < 0 {
		offset = 0
	}

	items, err := s.feed.ListFeed(ctx, strings.TrimSpace(viewerID), repository.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("failed to list feed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing feed: %w", err)
	}

	return items, nil
}

// SearchByText matches term as a case-insensitive substring of title OR
// description, newest first.
//
// A blank term matches NOTHING. That is a documented boundary, not a silent
// fallback: callers who want "everything" should use List instead.
func (s *FeedService) SearchByText(ctx context.Context, term string, limit int) ([]model.Snippet, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []model.Snippet{}, nil
	}
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}

	snippets, err := s.feed.SearchByText(ctx, term, limit)
	if err != nil {
		s.logger.Error("failed to search snippets",
			slog.String("term", term),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("searching snippets: %w", err)
	}

	return snippets, nil
}

// SearchByTag returns snippets whose tag set contains tag exactly, after
// lowercasing. A blank tag matches nothing.
func (s *FeedService) SearchByTag(ctx context.Context, tag string, limit int) ([]model.Snippet, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return []model.Snippet{}, nil
	}
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}

	snippets, err := s.feed.SearchByTag(ctx, tag, limit)
	if err != nil {
		s.logger.Error("failed to search snippets by tag",
			slog.String("tag", tag),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("searching snippets by tag: %w", err)
	}

	return snippets, nil
}

// PopularTags returns the most-used tags with their usage counts.
func (s *FeedService) PopularTags(ctx context.Context, limit int) ([]model.TagCount, error) {
	if limit <= 0 {
		limit = 10
	}

	tags, err := s.feed.PopularTags(ctx, limit)
	if err != nil {
		s.logger.Error("failed to aggregate popular tags", slog.String("error", err.Error()))
		return nil, fmt.Errorf("aggregating popular tags: %w", err)
	}

	return tags, nil
}
