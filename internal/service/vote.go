package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

// VoteService implements the idempotent vote toggle.
//
// Session validity is the boundary's job — by the time Toggle runs, userID is
// a validated identity from the auth middleware and is not re-verified here.
type VoteService struct {
	votes    repository.VoteRepository
	snippets repository.SnippetRepository
	logger   *slog.Logger
}

func NewVoteService(
	votes repository.VoteRepository,
	snippets repository.SnippetRepository,
	logger *slog.Logger,
) *VoteService {
	return &VoteService{
		votes:    votes,
		snippets: snippets,
		logger:   logger,
	}
}

// ToggleResult reports the branch a toggle took and the snippet's live vote
// count after the change.
type ToggleResult struct {
	Action  model.VoteAction `json:"action"`
	Upvotes int              `json:"upvotes"`
}

// Toggle adds the caller's vote if none exists, or removes the existing one.
// One action serves both "upvote" and "un-upvote". Two toggles in a row
// always return to the starting state.
//
// RACE NOTE: the check-then-act below is not atomic. Two concurrent toggles
// from the same user can both observe "no vote" and both try to insert. The
// UNIQUE(snippet_id, user_id) constraint in the store is the real guarantee:
// the losing insert comes back as Conflict (mapped to 409), the duplicate
// row never exists, and the check here is just an optimization that avoids a
// failed-insert round trip in the common case. The symmetric race on the
// removal branch surfaces as NotFound from the delete.
func (s *VoteService) Toggle(ctx context.Context, snippetID, userID string) (*ToggleResult, error) {
	snippetID = strings.TrimSpace(snippetID)
	if snippetID == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}
	if strings.TrimSpace(userID) == "" {
		return nil, apperror.Unauthorized("a signed-in user is required to vote")
	}

	// Voting on a snippet that doesn't exist is NotFound, not a dangling
	// vote row.
	if _, err := s.snippets.GetByID(ctx, snippetID); err != nil {
		return nil, err
	}

	voted, err := s.votes.HasVoted(ctx, snippetID, userID)
	if err != nil {
		return nil, err
	}

	var action model.VoteAction
	if voted {
		if err := s.votes.Delete(ctx, snippetID, userID); err != nil {
			return nil, err
		}
		action = model.VoteRemoved
	} else {
		vote := &model.Vote{SnippetID: snippetID, UserID: userID}
		if err := s.votes.Insert(ctx, vote); err != nil {
			return nil, err
		}
		action = model.VoteAdded
	}

	upvotes, err := s.votes.CountForSnippet(ctx, snippetID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("vote toggled",
		slog.String("snippetID", snippetID),
		slog.String("userID", userID),
		slog.String("action", string(action)),
		slog.Int("upvotes", upvotes),
	)

	return &ToggleResult{Action: action, Upvotes: upvotes}, nil
}

// HasVoted reports whether userID holds a live vote on snippetID.
func (s *VoteService) HasVoted(ctx context.Context, snippetID, userID string) (bool, error) {
	snippetID = strings.TrimSpace(snippetID)
	if snippetID == "" {
		return false, apperror.ValidationFailed("id", "snippet ID is required")
	}
	if userID == "" {
		return false, nil
	}
	return s.votes.HasVoted(ctx, snippetID, userID)
}
