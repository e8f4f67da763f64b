package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

// Validation constants. Named (not magic numbers) so they're easy to find,
// self-documenting, and referenceable in error messages.
const (
	MaxTitleLength = 100
	MaxCodeLength  = 100000 // ~100KB of code
	MaxTags        = 10
	MaxTagLength   = 40
)

// SnippetService enforces the snippet rules: non-empty title and code,
// bounded deduplicated tags, owner-only mutation, and the profile-first
// ordering (a profile must exist before its first snippet).
type SnippetService struct {
	snippets repository.SnippetRepository
	profiles repository.ProfileRepository
	logger   *slog.Logger
}

func NewSnippetService(
	snippets repository.SnippetRepository,
	profiles repository.ProfileRepository,
	logger *slog.Logger,
) *SnippetService {
	return &SnippetService{
		snippets: snippets,
		profiles: profiles,
		logger:   logger,
	}
}

// normalizeTags trims, lowercases, and deduplicates while keeping the first
// occurrence's position. Empty tags (after trimming) are rejected; the size
// bound applies to the caller's input, before deduplication.
func normalizeTags(tags []string) ([]string, error) {
	if len(tags) > MaxTags {
		return nil, apperror.ValidationFailed("tags",
			fmt.Sprintf("at most %d tags are allowed", MaxTags))
	}

	seen := make(map[string]struct{}, len(tags))
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			return nil, apperror.ValidationFailed("tags", "tags must not be empty")
		}
		if len(tag) > MaxTagLength {
			return nil, apperror.ValidationFailed("tags",
				fmt.Sprintf("tags must be %d characters or less", MaxTagLength))
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
	}
	return normalized, nil
}

// Create validates and saves a new snippet owned by ownerID.
//
// The profile-first invariant is deliberate, not incidental: a snippet's
// author is read from the owner's profile, so we check the profile exists
// before writing anything. A missing profile surfaces as NotFound on the
// profile, which the boundary turns into "sign in again".
func (s *SnippetService) Create(ctx context.Context, ownerID, title, description, code string, tags []string) (*model.Snippet, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, apperror.Unauthorized("a signed-in user is required to create snippets")
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "snippet title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("snippet title must be %d characters or less", MaxTitleLength))
	}
	if strings.TrimSpace(code) == "" {
		return nil, apperror.ValidationFailed("code", "snippet code is required")
	}
	if len(code) > MaxCodeLength {
		return nil, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}

	normalized, err := normalizeTags(tags)
	if err != nil {
		return nil, err
	}

	owner, err := s.profiles.GetByID(ctx, ownerID)
	if err != nil {
		// NotFound here means the auth flow never created the profile.
		return nil, err
	}

	snippet := &model.Snippet{
		UserID:      ownerID,
		Author:      owner.Author,
		Title:       title,
		Description: strings.TrimSpace(description),
		Code:        code,
		Tags:        normalized,
	}

	if err := s.snippets.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("userID", ownerID),
	)

	return snippet, nil
}

// GetByID retrieves a snippet by ID. Returns apperror.ErrNotFound if absent.
func (s *SnippetService) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}
	return s.snippets.GetByID(ctx, id)
}

// Update applies a partial update to a snippet the requester owns.
//
// Ownership is re-checked here on every write, by user_id equality against
// the stored row — the storage layer is permissive and will update whatever
// row it's told to. Only non-nil fields of upd change; the rest keep their
// prior values, so a multi-field update either fully applies or fully fails.
func (s *SnippetService) Update(ctx context.Context, snippetID, requesterID string, upd model.SnippetUpdate) (*model.Snippet, error) {
	snippetID = strings.TrimSpace(snippetID)
	if snippetID == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	snippet, err := s.snippets.GetByID(ctx, snippetID)
	if err != nil {
		return nil, err
	}
	if snippet.UserID != requesterID {
		return nil, apperror.Forbidden("only the snippet's owner may update it")
	}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "snippet title is required")
		}
		if len(title) > MaxTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("snippet title must be %d characters or less", MaxTitleLength))
		}
		snippet.Title = title
	}
	if upd.Description != nil {
		snippet.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Code != nil {
		if strings.TrimSpace(*upd.Code) == "" {
			return nil, apperror.ValidationFailed("code", "snippet code is required")
		}
		if len(*upd.Code) > MaxCodeLength {
			return nil, apperror.ValidationFailed("code",
				fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
		}
		snippet.Code = *upd.Code
	}
	if upd.Tags != nil {
		normalized, err := normalizeTags(*upd.Tags)
		if err != nil {
			return nil, err
		}
		snippet.Tags = normalized
	}

	if err := s.snippets.Update(ctx, snippet); err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", snippetID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated", slog.String("id", snippetID))
	return snippet, nil
}

// Delete removes a snippet the requester owns, along with all its votes
// (the repository does both in one transaction).
func (s *SnippetService) Delete(ctx context.Context, snippetID, requesterID string) error {
	snippetID = strings.TrimSpace(snippetID)
	if snippetID == "" {
		return apperror.ValidationFailed("id", "snippet ID is required")
	}

	snippet, err := s.snippets.GetByID(ctx, snippetID)
	if err != nil {
		return err
	}
	if snippet.UserID != requesterID {
		return apperror.Forbidden("only the snippet's owner may delete it")
	}

	if err := s.snippets.Delete(ctx, snippetID); err != nil {
		// A concurrent delete by the owner is fine — the snippet is gone
		// either way.
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		return err
	}

	s.logger.Info("snippet deleted", slog.String("id", snippetID))
	return nil
}

// ListByOwner returns all snippets owned by userID, newest first.
func (s *SnippetService) ListByOwner(ctx context.Context, userID string) ([]model.Snippet, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}
	return s.snippets.ListByOwner(ctx, userID)
}

// Stats summarizes a user's snippets for their dashboard: count, total
// upvotes, and the most-voted snippet.
func (s *SnippetService) Stats(ctx context.Context, userID string) (*model.OwnerStats, error) {
	snippets, err := s.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &model.OwnerStats{SnippetCount: len(snippets)}
	for i := range snippets {
		stats.TotalUpvotes += snippets[i].Upvotes
		if stats.MostPopular == nil || snippets[i].Upvotes > stats.MostPopular.Upvotes {
			stats.MostPopular = &snippets[i]
		}
	}
	return stats, nil
}
