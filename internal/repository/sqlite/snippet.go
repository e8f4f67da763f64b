package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

// SnippetStore implements repository.SnippetRepository on the shared pool.
type SnippetStore struct {
	db *DB
}

func NewSnippetStore(db *DB) *SnippetStore {
	return &SnippetStore{db: db}
}

// compile-time check that *SnippetStore implements repository.SnippetRepository
var _ repository.SnippetRepository = (*SnippetStore)(nil)

// encodeTags marshals the tag list for the JSON TEXT column. A nil slice is
// stored as "[]" so json_each always has a valid document to walk.
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encoding tags: %w", err)
	}
	return string(raw), nil
}

func decodeTags(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	return tags, nil
}

// snippetColumns is the SELECT list shared by every snippet read. The author
// comes from the owner's profile and the upvote count is derived from the
// ledger in the same query — there is no stored count to drift.
const snippetColumns = `
	s.snippet_id, s.user_id, u.author, s.title, s.description, s.code, s.tags, s.created_at,
	(SELECT COUNT(*) FROM snippet_votes v WHERE v.snippet_id = s.snippet_id) AS upvotes`

// scanSnippet reads one row produced by a snippetColumns SELECT.
func scanSnippet(scan func(dest ...any) error) (*model.Snippet, error) {
	var s model.Snippet
	var rawTags string
	if err := scan(
		&s.ID, &s.UserID, &s.Author, &s.Title, &s.Description, &s.Code,
		&rawTags, &s.CreatedAt, &s.Upvotes,
	); err != nil {
		return nil, err
	}
	tags, err := decodeTags(rawTags)
	if err != nil {
		return nil, err
	}
	s.Tags = tags
	return &s, nil
}

// Create inserts a new snippet. The ID and CreatedAt are generated here and
// written back through the pointer, so the caller's struct holds the stored
// state after the call.
func (st *SnippetStore) Create(ctx context.Context, s *model.Snippet) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	s.ID = xid.New().String()
	s.CreatedAt = time.Now()

	rawTags, err := encodeTags(s.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	_, err = st.db.conn.ExecContext(ctx,
		`INSERT INTO snippets (snippet_id, user_id, title, description, code, tags, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID,
		s.UserID,
		s.Title,
		s.Description,
		s.Code,
		rawTags,
		s.CreatedAt,
	)
	if err != nil {
		return storeErr("creating snippet", err)
	}

	return nil
}

// GetByID retrieves a single snippet with its author and live upvote count.
func (st *SnippetStore) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	row := st.db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets s
		 JOIN users u ON u.user_id = s.user_id
		 WHERE s.snippet_id = ?`,
		id,
	)

	s, err := scanSnippet(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, storeErr(fmt.Sprintf("getting snippet %s", id), err)
	}

	return s, nil
}

// Update overwrites the mutable fields of a snippet. Ownership is checked in
// the service layer before this runs; here a missing row is simply NotFound.
func (st *SnippetStore) Update(ctx context.Context, s *model.Snippet) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	rawTags, err := encodeTags(s.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", s.ID, err)
	}

	result, err := st.db.conn.ExecContext(ctx,
		`UPDATE snippets SET title = ?, description = ?, code = ?, tags = ?
		 WHERE snippet_id = ?`,
		s.Title,
		s.Description,
		s.Code,
		rawTags,
		s.ID,
	)
	if err != nil {
		return storeErr(fmt.Sprintf("updating snippet %s", s.ID), err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr("checking rows affected", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", s.ID)
	}

	return nil
}

// Delete removes a snippet and all its vote rows as a single transaction.
//
// SQLite won't cascade for us here (the votes FK has no ON DELETE clause),
// so the repository owns the referential cleanup: votes first, then the
// snippet, both inside one transaction so a failure leaves no orphans and
// no half-deleted snippet.
func (st *SnippetStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	tx, err := st.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("beginning delete transaction", err)
	}
	// Rollback is a no-op after a successful Commit.
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM snippet_votes WHERE snippet_id = ?`, id,
	); err != nil {
		return storeErr(fmt.Sprintf("deleting votes for snippet %s", id), err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM snippets WHERE snippet_id = ?`, id,
	)
	if err != nil {
		return storeErr(fmt.Sprintf("deleting snippet %s", id), err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr("checking rows affected", err)
	}
	if rowsAffected == 0 {
		// Nothing to delete — roll back the (possibly empty) vote deletion too.
		return apperror.NotFound("snippet", id)
	}

	if err := tx.Commit(); err != nil {
		return storeErr(fmt.Sprintf("committing delete of snippet %s", id), err)
	}

	return nil
}

// ListByOwner returns all of one user's snippets, newest first.
func (st *SnippetStore) ListByOwner(ctx context.Context, userID string) ([]model.Snippet, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	rows, err := st.db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets s
		 JOIN users u ON u.user_id = s.user_id
		 WHERE s.user_id = ?
		 ORDER BY s.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("listing snippets for user %s", userID), err)
	}
	defer rows.Close()

	var snippets []model.Snippet
	for rows.Next() {
		s, err := scanSnippet(rows.Scan)
		if err != nil {
			return nil, storeErr("scanning snippet row", err)
		}
		snippets = append(snippets, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating snippets", err)
	}

	if snippets == nil {
		snippets = []model.Snippet{}
	}
	return snippets, nil
}
