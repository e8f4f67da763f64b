package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

// =========================================================================
// MOCK REPOSITORIES
// =========================================================================
//
// WHAT IS A MOCK?
// A mock is a fake implementation of an interface used in tests.
// Instead of talking to a real database, it stores data in memory.
//
// WHY MOCK?
// 1. SPEED: No database setup, no disk I/O, tests run in microseconds
// 2. ISOLATION: Tests only test the service logic, not the database
// 3. CONTROL: You can simulate errors (database down, connection timeout)
//    that would be hard to trigger with a real database
//
// HOW IT WORKS:
// Each mock implements the same repository interface the sqlite stores do.
// The service doesn't know or care which one it gets. This is the power of
// interfaces — swappable implementations.
//
// In production code, you'd use a library like `github.com/stretchr/testify/mock`
// for more sophisticated mocks. For learning, a hand-written mock is clearer.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- profiles ---

type mockProfileRepo struct {
	profiles map[string]*model.Profile
}

func newMockProfileRepo() *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[string]*model.Profile)}
}

func (m *mockProfileRepo) Insert(_ context.Context, p *model.Profile) error {
	if _, ok := m.profiles[p.UserID]; ok {
		return apperror.Conflict("profile", p.UserID)
	}
	stored := *p
	m.profiles[p.UserID] = &stored
	return nil
}

func (m *mockProfileRepo) Update(_ context.Context, p *model.Profile) error {
	if _, ok := m.profiles[p.UserID]; !ok {
		return apperror.NotFound("profile", p.UserID)
	}
	stored := *p
	m.profiles[p.UserID] = &stored
	return nil
}

func (m *mockProfileRepo) GetByID(_ context.Context, userID string) (*model.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, apperror.NotFound("profile", userID)
	}
	result := *p
	return &result, nil
}

func (m *mockProfileRepo) GetByEmail(_ context.Context, email string) (*model.Profile, error) {
	// Mirrors the sqlite store's tie-break: one address can belong to a
	// profile per provider, and the password row wins so sign-in always
	// resolves to the account that actually has a hash to verify.
	var match *model.Profile
	for _, p := range m.profiles {
		if p.Email != email {
			continue
		}
		if match == nil || (p.Provider == ProviderPassword && match.Provider != ProviderPassword) {
			match = p
		}
	}
	if match == nil {
		return nil, apperror.NotFound("profile", email)
	}
	result := *match
	return &result, nil
}

// --- snippets ---

type mockSnippetRepo struct {
	snippets map[string]*model.Snippet
	nextID   int
}

func newMockSnippetRepo() *mockSnippetRepo {
	return &mockSnippetRepo{snippets: make(map[string]*model.Snippet)}
}

func (m *mockSnippetRepo) Create(_ context.Context, s *model.Snippet) error {
	m.nextID++
	s.ID = fmt.Sprintf("mock-%d", m.nextID)
	// Store a copy (not the pointer) to avoid test interference
	stored := *s
	m.snippets[s.ID] = &stored
	return nil
}

func (m *mockSnippetRepo) GetByID(_ context.Context, id string) (*model.Snippet, error) {
	s, ok := m.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	result := *s
	return &result, nil
}

func (m *mockSnippetRepo) Update(_ context.Context, s *model.Snippet) error {
	if _, ok := m.snippets[s.ID]; !ok {
		return apperror.NotFound("snippet", s.ID)
	}
	stored := *s
	m.snippets[s.ID] = &stored
	return nil
}

func (m *mockSnippetRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.snippets[id]; !ok {
		return apperror.NotFound("snippet", id)
	}
	delete(m.snippets, id)
	return nil
}

func (m *mockSnippetRepo) ListByOwner(_ context.Context, userID string) ([]model.Snippet, error) {
	result := []model.Snippet{}
	for _, s := range m.snippets {
		if s.UserID == userID {
			result = append(result, *s)
		}
	}
	return result, nil
}

// --- votes ---

type voteKey struct {
	snippetID string
	userID    string
}

type mockVoteRepo struct {
	votes map[voteKey]bool
}

func newMockVoteRepo() *mockVoteRepo {
	return &mockVoteRepo{votes: make(map[voteKey]bool)}
}

func (m *mockVoteRepo) HasVoted(_ context.Context, snippetID, userID string) (bool, error) {
	return m.votes[voteKey{snippetID, userID}], nil
}

func (m *mockVoteRepo) Insert(_ context.Context, v *model.Vote) error {
	key := voteKey{v.SnippetID, v.UserID}
	if m.votes[key] {
		// Mirrors the UNIQUE(snippet_id, user_id) constraint.
		return apperror.Conflict("vote", v.SnippetID+"/"+v.UserID)
	}
	m.votes[key] = true
	return nil
}

func (m *mockVoteRepo) Delete(_ context.Context, snippetID, userID string) error {
	key := voteKey{snippetID, userID}
	if !m.votes[key] {
		return apperror.NotFound("vote", snippetID+"/"+userID)
	}
	delete(m.votes, key)
	return nil
}

func (m *mockVoteRepo) CountForSnippet(_ context.Context, snippetID string) (int, error) {
	count := 0
	for key := range m.votes {
		if key.snippetID == snippetID {
			count++
		}
	}
	return count, nil
}

// --- feed ---

// mockFeedRepo records the arguments of the last call so tests can assert
// the service's clamping without re-testing SQL.
type mockFeedRepo struct {
	items []model.FeedItem

	lastViewerID string
	lastOpts     repository.ListOptions
	lastTerm     string
	lastTag      string
	lastLimit    int
	calls        int
}

func (m *mockFeedRepo) ListFeed(_ context.Context, viewerID string, opts repository.ListOptions) ([]model.FeedItem, error) {
	m.calls++
	m.lastViewerID = viewerID
	m.lastOpts = opts
	return m.items, nil
}

func (m *mockFeedRepo) SearchByText(_ context.Context, term string, limit int) ([]model.Snippet, error) {
	m.calls++
	m.lastTerm = term
	m.lastLimit = limit
	return []model.Snippet{}, nil
}

func (m *mockFeedRepo) SearchByTag(_ context.Context, tag string, limit int) ([]model.Snippet, error) {
	m.calls++
	m.lastTag = tag
	m.lastLimit = limit
	return []model.Snippet{}, nil
}

func (m *mockFeedRepo) PopularTags(_ context.Context, limit int) ([]model.TagCount, error) {
	m.calls++
	m.lastLimit = limit
	return []model.TagCount{}, nil
}

// =========================================================================
// SHARED TEST HELPERS
// =========================================================================

// newTestSnippetService wires a SnippetService to fresh mocks, with one
// profile pre-created so the profile-first check passes.
func newTestSnippetService(t *testing.T) (*SnippetService, *mockSnippetRepo, *mockProfileRepo) {
	t.Helper()
	snippets := newMockSnippetRepo()
	profiles := newMockProfileRepo()
	profiles.profiles["user-a"] = &model.Profile{UserID: "user-a", Author: "Ada"}
	svc := NewSnippetService(snippets, profiles, testLogger())
	return svc, snippets, profiles
}
