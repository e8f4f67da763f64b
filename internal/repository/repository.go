// Package repository declares the storage interfaces the service layer
// depends on. Concrete implementations live in subpackages (sqlite).
package repository

import (
	"context"

	"github.com/sakif/snippetshare/internal/model"
)

// ListOptions control pagination for listing queries.
//
// NOTE: limit/offset pagination is NOT stable under concurrent inserts — a
// snippet created between two pages can shift rows across the page boundary.
// A known, acceptable tradeoff at this scale.
type ListOptions struct {
	Limit  int
	Offset int
}

// ProfileRepository stores user profiles keyed by the opaque user ID.
type ProfileRepository interface {
	// Insert creates a new profile row. Fails with Conflict if the user ID
	// is already taken.
	Insert(ctx context.Context, p *model.Profile) error
	// Update overwrites author/email (and password hash) for an existing
	// profile. Fails with NotFound if no row matches.
	Update(ctx context.Context, p *model.Profile) error
	GetByID(ctx context.Context, userID string) (*model.Profile, error)
	// GetByEmail is used by the password sign-in flow.
	GetByEmail(ctx context.Context, email string) (*model.Profile, error)
}

// SnippetRepository stores snippet rows. Upvote counts on returned snippets
// are always computed from the vote ledger in the same query.
type SnippetRepository interface {
	Create(ctx context.Context, s *model.Snippet) error
	GetByID(ctx context.Context, id string) (*model.Snippet, error)
	Update(ctx context.Context, s *model.Snippet) error
	// Delete removes the snippet AND all its vote rows as one unit of work.
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, userID string) ([]model.Snippet, error)
}

// VoteRepository is the vote ledger.
type VoteRepository interface {
	HasVoted(ctx context.Context, snippetID, userID string) (bool, error)
	// Insert adds a vote. Fails with Conflict when a live vote already
	// exists for the pair — the UNIQUE(snippet_id, user_id) constraint is
	// the real at-most-one-vote guarantee; callers' existence checks are an
	// optimization only.
	Insert(ctx context.Context, v *model.Vote) error
	// Delete removes the caller's vote. Fails with NotFound if no live vote
	// exists for the pair.
	Delete(ctx context.Context, snippetID, userID string) error
	CountForSnippet(ctx context.Context, snippetID string) (int, error)
}

// FeedRepository produces the ranked, annotated browse listings.
type FeedRepository interface {
	// ListFeed returns snippets ordered by upvotes DESC, created_at DESC.
	// viewerID == "" means anonymous: VotedByViewer is nil on every row and
	// no vote lookup happens at all.
	ListFeed(ctx context.Context, viewerID string, opts ListOptions) ([]model.FeedItem, error)
	// SearchByText matches term as a case-insensitive substring of title OR
	// description, newest first.
	SearchByText(ctx context.Context, term string, limit int) ([]model.Snippet, error)
	// SearchByTag matches exact (lowercased) membership in the tag set.
	SearchByTag(ctx context.Context, tag string, limit int) ([]model.Snippet, error)
	PopularTags(ctx context.Context, limit int) ([]model.TagCount, error)
}
