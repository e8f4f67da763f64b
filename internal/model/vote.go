package model

import "time"

// Vote is one live upvote by one user on one snippet.
//
// At most one Vote exists per (SnippetID, UserID) pair — the central
// correctness property of the ledger, enforced by a UNIQUE constraint in the
// store, not just by the application's pre-insert check. Votes are created
// and deleted, never updated in place.
type Vote struct {
	ID        string    `json:"voteId"`
	SnippetID string    `json:"snippetId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// VoteAction reports which branch a toggle took.
type VoteAction string

const (
	VoteAdded   VoteAction = "added"
	VoteRemoved VoteAction = "removed"
)
