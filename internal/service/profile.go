// Package service contains the business logic layer of the application.
//
// The layering follows the usual three-layer shape:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services take repository interfaces, not concrete types, so tests inject
// in-memory mocks and the HTTP layer never shows up here at all.
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

// MaxAuthorLength bounds display names.
const MaxAuthorLength = 80

// UpsertOutcome reports which branch an Upsert took. Callers sometimes care
// (first sign-in vs returning user), so the branch is explicit rather than
// hidden behind an opaque "upsert succeeded".
type UpsertOutcome string

const (
	OutcomeCreated UpsertOutcome = "created"
	OutcomeUpdated UpsertOutcome = "updated"
)

// ProfileService handles profile lifecycle rules.
type ProfileService struct {
	profiles repository.ProfileRepository
	logger   *slog.Logger
}

func NewProfileService(profiles repository.ProfileRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		logger:   logger,
	}
}

// Upsert creates the profile if absent, or overwrites author/email (and
// credentials) if present. Idempotent: calling it twice with the same
// arguments leaves the same stored state.
//
// The two branches are explicit: insert first, and on Conflict fall through
// to the update path. Racing upserts for the same new user both succeed —
// the loser of the insert race simply updates the row the winner created.
func (s *ProfileService) Upsert(ctx context.Context, p *model.Profile) (UpsertOutcome, error) {
	p.UserID = strings.TrimSpace(p.UserID)
	if p.UserID == "" {
		return "", apperror.ValidationFailed("userId", "user ID is required")
	}
	p.Author = strings.TrimSpace(p.Author)
	if p.Author == "" {
		return "", apperror.ValidationFailed("author", "author name is required")
	}
	if len(p.Author) > MaxAuthorLength {
		return "", apperror.ValidationFailed("author",
			fmt.Sprintf("author name must be %d characters or less", MaxAuthorLength))
	}

	err := s.profiles.Insert(ctx, p)
	if err == nil {
		s.logger.Info("profile created",
			slog.String("userID", p.UserID),
			slog.String("provider", p.Provider),
		)
		return OutcomeCreated, nil
	}
	if !errors.Is(err, apperror.ErrConflict) {
		return "", fmt.Errorf("upserting profile: %w", err)
	}

	// Row already exists — keep its created_at, overwrite the rest.
	existing, err := s.profiles.GetByID(ctx, p.UserID)
	if err != nil {
		return "", fmt.Errorf("upserting profile: %w", err)
	}
	p.CreatedAt = existing.CreatedAt
	if p.PasswordHash == "" {
		p.PasswordHash = existing.PasswordHash
	}
	if err := s.profiles.Update(ctx, p); err != nil {
		return "", fmt.Errorf("upserting profile: %w", err)
	}

	s.logger.Info("profile updated", slog.String("userID", p.UserID))
	return OutcomeUpdated, nil
}

// Get returns the profile for a user ID.
// Returns apperror.ErrNotFound when no profile exists — distinct from a
// transient store error, and callers must keep the two apart.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}
	return s.profiles.GetByID(ctx, userID)
}

// GetByEmail resolves a profile from an email address (password sign-in).
func (s *ProfileService) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	return s.profiles.GetByEmail(ctx, email)
}

// Update applies a partial update: only non-nil fields change, everything
// else keeps its prior value. Fails with NotFound if no profile exists.
func (s *ProfileService) Update(ctx context.Context, userID string, upd model.ProfileUpdate) (*model.Profile, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}

	profile, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Author != nil {
		author := strings.TrimSpace(*upd.Author)
		if author == "" {
			return nil, apperror.ValidationFailed("author", "author name is required")
		}
		if len(author) > MaxAuthorLength {
			return nil, apperror.ValidationFailed("author",
				fmt.Sprintf("author name must be %d characters or less", MaxAuthorLength))
		}
		profile.Author = author
	}
	if upd.Email != nil {
		profile.Email = strings.TrimSpace(*upd.Email)
	}

	if err := s.profiles.Update(ctx, profile); err != nil {
		s.logger.Error("failed to update profile",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	return profile, nil
}
