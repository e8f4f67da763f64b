package sqlite

import (
	"context"
	"testing"

	"github.com/sakif/snippetshare/internal/model"
)

// TESTING WITH IN-MEMORY SQLITE:
// Using ":memory:" creates a fresh database that exists only during the test.
// Benefits:
// - Fast: no disk I/O
// - Isolated: each test gets its own database
// - Clean: automatically destroyed when the connection closes
//
// newTestDB is a "test helper" — a function used only in tests to reduce boilerplate.
// The `t.Helper()` call tells Go's test framework to report errors at the CALLER's
// line number, not inside this function. This makes test failure output much clearer.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	// t.Cleanup registers a function to run when the test finishes.
	// This is like defer, but scoped to the test — even works in subtests.
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts a profile row. Snippets and votes reference users
// via foreign keys, so most tests start here.
func createTestUser(t *testing.T, db *DB, userID, author string) *model.Profile {
	t.Helper()
	p := &model.Profile{
		UserID:   userID,
		Author:   author,
		Email:    userID + "@example.com",
		Provider: "password",
	}
	if err := NewProfileStore(db).Insert(context.Background(), p); err != nil {
		t.Fatalf("failed to create test user %s: %v", userID, err)
	}
	return p
}

// createTestSnippet publishes a snippet owned by userID.
func createTestSnippet(t *testing.T, db *DB, userID, title string, tags ...string) *model.Snippet {
	t.Helper()
	s := &model.Snippet{
		UserID: userID,
		Title:  title,
		Code:   "print('hello')",
		Tags:   tags,
	}
	if err := NewSnippetStore(db).Create(context.Background(), s); err != nil {
		t.Fatalf("failed to create test snippet %q: %v", title, err)
	}
	return s
}

// addVote records a vote and fails the test on error.
func addVote(t *testing.T, db *DB, snippetID, userID string) {
	t.Helper()
	v := &model.Vote{SnippetID: snippetID, UserID: userID}
	if err := NewVoteStore(db).Insert(context.Background(), v); err != nil {
		t.Fatalf("failed to add vote (%s, %s): %v", snippetID, userID, err)
	}
}
