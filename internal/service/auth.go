// Package service — authentication business logic.
//
// AuthService sits between the HTTP handlers and the profile store / auth
// utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → ProfileService (DB)
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
//
// Every sign-up/sign-in path ends the same way: upsert the profile, then
// issue a JWT for the profile's user ID. The profile-before-snippet ordering
// the snippet service depends on is established here.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/auth"
	"github.com/sakif/snippetshare/internal/model"
)

// Account providers recorded on the profile.
const (
	ProviderPassword  = "password"
	ProviderGoogle    = "google"
	ProviderAnonymous = "anonymous"
)

// AuthService handles the authentication flows.
type AuthService struct {
	profiles  *ProfileService
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	profiles *ProfileService,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		profiles:  profiles,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the profile and the issued JWT so the HTTP handler can
// set the cookie and respond in one step.
type AuthResult struct {
	Profile *model.Profile
	Token   string
}

// SignUp registers a local email/password account.
//
// The user ID is minted here (xid) and becomes the profile's immutable
// primary key. An email already attached to a password account is a
// Conflict; re-registering is not an upsert, unlike the provider flows
// where the external identity proves ownership.
func (s *AuthService) SignUp(ctx context.Context, email, password, author string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email is required")
	}
	if len(password) < 8 {
		return nil, apperror.ValidationFailed("password", "password must be at least 8 characters")
	}

	existing, err := s.profiles.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking email: %w", err)
	}
	if existing != nil && existing.Provider == ProviderPassword {
		return nil, apperror.Conflict("account", email)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	profile := &model.Profile{
		UserID:       xid.New().String(),
		Author:       author,
		Email:        email,
		PasswordHash: hash,
		Provider:     ProviderPassword,
	}
	if _, err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, err
	}

	return s.issue(profile)
}

// SignIn authenticates a local email/password account.
// Wrong email and wrong password both come back as the same Unauthorized —
// the response must not reveal which half was wrong.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("service/auth: fetching account: %w", err)
	}
	if profile.PasswordHash == "" {
		// Google/anonymous account — no password to check.
		return nil, apperror.Unauthorized("invalid email or password")
	}

	if err := s.passwords.Verify(profile.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	return s.issue(profile)
}

// SignInAnonymously mints a fresh trial identity: a real profile with a
// synthetic email, indistinguishable from any other session once the JWT is
// issued. There is no recovery mechanism — losing the cookie loses the
// identity.
func (s *AuthService) SignInAnonymously(ctx context.Context) (*AuthResult, error) {
	uid := xid.New().String()
	profile := &model.Profile{
		UserID:   uid,
		Author:   "Anonymous User",
		Email:    fmt.Sprintf("anonymous-%s@temp.com", uid),
		Provider: ProviderAnonymous,
	}
	if _, err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, err
	}

	return s.issue(profile)
}

// LoginWithGoogle handles the Google OAuth callback: upsert the profile
// keyed by the provider's stable subject ID, then issue a session.
//
// First login → profile created; subsequent logins → author/email refreshed
// in case they changed on the Google account. The provider ID is prefixed so
// external identities can never collide with server-minted xids.
func (s *AuthService) LoginWithGoogle(ctx context.Context, gUser *auth.GoogleUser) (*AuthResult, error) {
	if gUser == nil {
		return nil, fmt.Errorf("service/auth: Google user must not be nil")
	}

	author := strings.TrimSpace(gUser.Name)
	if author == "" {
		if at := strings.IndexByte(gUser.Email, '@'); at > 0 {
			author = gUser.Email[:at]
		} else {
			author = "User"
		}
	}

	profile := &model.Profile{
		UserID:   "google:" + gUser.Sub,
		Author:   author,
		Email:    gUser.Email,
		Provider: ProviderGoogle,
	}
	outcome, err := s.profiles.Upsert(ctx, profile)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user authenticated via Google",
		slog.String("userID", profile.UserID),
		slog.String("outcome", string(outcome)),
	)

	return s.issue(profile)
}

// issue generates the session JWT for a profile.
func (s *AuthService) issue(profile *model.Profile) (*AuthResult, error) {
	token, err := s.tokens.Generate(profile.UserID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", profile.UserID, err)
	}
	return &AuthResult{Profile: profile, Token: token}, nil
}
