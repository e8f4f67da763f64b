// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Snippet represents a published code snippet.
//
// The `json:"..."` tags tell Go's encoding/json package how to serialize this
// struct. Tags is an ordered set: lowercase, unique within the snippet, at
// most ten entries (enforced by the service layer, not here).
//
// Upvotes is DERIVED — it is always the count of live vote rows for this
// snippet, computed by the query that produced the struct. It is never
// stored in the snippets table, so it cannot drift from the vote ledger.
type Snippet struct {
	ID          string    `json:"snippetId"`
	UserID      string    `json:"userId"`
	Author      string    `json:"author"` // denormalized from the owner's profile at read time
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Code        string    `json:"code"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	Upvotes     int       `json:"upvotes"`
}

// SnippetUpdate is a partial update to a snippet. nil fields are untouched.
type SnippetUpdate struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Code        *string   `json:"code"`
	Tags        *[]string `json:"tags"`
}

// FeedItem is one row of the browsing feed: a snippet plus the viewer's vote
// status. VotedByViewer is nil for anonymous viewers — the per-row vote
// lookup is skipped entirely when nobody is signed in.
type FeedItem struct {
	Snippet
	VotedByViewer *bool `json:"votedByViewer"`
}

// OwnerStats summarizes a user's published snippets for their dashboard.
type OwnerStats struct {
	SnippetCount int      `json:"snippetCount"`
	TotalUpvotes int      `json:"totalUpvotes"`
	MostPopular  *Snippet `json:"mostPopular"` // nil when the user has no snippets
}

// TagCount is one entry of the popular-tags listing.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
