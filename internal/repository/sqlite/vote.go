package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

// VoteStore implements repository.VoteRepository on the shared pool.
type VoteStore struct {
	db *DB
}

func NewVoteStore(db *DB) *VoteStore {
	return &VoteStore{db: db}
}

// compile-time check that *VoteStore implements repository.VoteRepository
var _ repository.VoteRepository = (*VoteStore)(nil)

// HasVoted reports whether a live vote exists for the (snippet, user) pair.
// EXISTS stops at the first match — cheaper than COUNT for a yes/no answer.
func (s *VoteStore) HasVoted(ctx context.Context, snippetID, userID string) (bool, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	var exists bool
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM snippet_votes WHERE snippet_id = ? AND user_id = ?
		)`,
		snippetID, userID,
	).Scan(&exists)
	if err != nil {
		return false, storeErr(fmt.Sprintf("checking vote for snippet %s", snippetID), err)
	}

	return exists, nil
}

// Insert adds a vote row.
//
// THE TOGGLE RACE, AND WHY THIS MAPS UNIQUE VIOLATIONS TO Conflict:
// The service toggles by checking HasVoted and then inserting or deleting.
// That check-then-act is not atomic — two concurrent toggles from the same
// user can both see "absent" and both reach this INSERT. The
// UNIQUE(snippet_id, user_id) constraint makes the second insert fail here
// instead of creating a duplicate vote; the constraint is the correctness
// guarantee, the HasVoted check only saves a failed round-trip in the common
// case. The loser gets Conflict: their vote already exists, so a fresh read
// shows the state they wanted.
func (s *VoteStore) Insert(ctx context.Context, v *model.Vote) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	v.ID = xid.New().String()
	v.CreatedAt = time.Now()

	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO snippet_votes (vote_id, snippet_id, user_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		v.ID,
		v.SnippetID,
		v.UserID,
		v.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("vote", v.SnippetID+"/"+v.UserID)
		}
		return storeErr(fmt.Sprintf("inserting vote for snippet %s", v.SnippetID), err)
	}

	return nil
}

// Delete removes the caller's vote for a snippet. NotFound here means a
// concurrent toggle already removed it.
func (s *VoteStore) Delete(ctx context.Context, snippetID, userID string) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	result, err := s.db.conn.ExecContext(ctx,
		`DELETE FROM snippet_votes WHERE snippet_id = ? AND user_id = ?`,
		snippetID, userID,
	)
	if err != nil {
		return storeErr(fmt.Sprintf("deleting vote for snippet %s", snippetID), err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr("checking rows affected", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("vote", snippetID+"/"+userID)
	}

	return nil
}

// CountForSnippet returns the number of live votes on a snippet.
func (s *VoteStore) CountForSnippet(ctx context.Context, snippetID string) (int, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	var count int
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snippet_votes WHERE snippet_id = ?`,
		snippetID,
	).Scan(&count)
	if err != nil {
		return 0, storeErr(fmt.Sprintf("counting votes for snippet %s", snippetID), err)
	}

	return count, nil
}
