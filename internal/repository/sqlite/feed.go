package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

// likeEscaper neutralizes LIKE metacharacters so a search term always
// matches as a literal substring. Paired with ESCAPE '\' in the queries.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// FeedStore implements repository.FeedRepository on the shared pool.
type FeedStore struct {
	db *DB
}

func NewFeedStore(db *DB) *FeedStore {
	return &FeedStore{db: db}
}

// compile-time check that *FeedStore implements repository.FeedRepository
var _ repository.FeedRepository = (*FeedStore)(nil)

// ListFeed returns the ranked browse feed.
//
// RANKING:
// upvotes DESC with created_at DESC as the tie-break. The tie-break matters:
// without it, equally-voted snippets could come back in a different order on
// every call, and offset pagination would show duplicates or gaps. With it,
// the order is deterministic for a fixed snapshot of data.
//
// ANONYMOUS FAST PATH:
// viewerID == "" skips the per-row vote annotation entirely — anonymous
// browsing never touches the ledger, and VotedByViewer stays nil on every
// row. With a viewer, a correlated EXISTS fills the flag in the same query
// rather than issuing N lookups.
func (s *FeedStore) ListFeed(ctx context.Context, viewerID string, opts repository.ListOptions) ([]model.FeedItem, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	var (
		query string
		args  []any
	)
	if viewerID == "" {
		query = `SELECT ` + snippetColumns + `
			 FROM snippets s
			 JOIN users u ON u.user_id = s.user_id
			 ORDER BY upvotes DESC, s.created_at DESC
			 LIMIT ? OFFSET ?`
		args = []any{limit, offset}
	} else {
		query = `SELECT ` + snippetColumns + `,
			 EXISTS(
				SELECT 1 FROM snippet_votes pv
				WHERE pv.snippet_id = s.snippet_id AND pv.user_id = ?
			 ) AS voted
			 FROM snippets s
			 JOIN users u ON u.user_id = s.user_id
			 ORDER BY upvotes DESC, s.created_at DESC
			 LIMIT ? OFFSET ?`
		args = []any{viewerID, limit, offset}
	}

	rows, err := s.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("listing feed", err)
	}
	defer rows.Close()

	items := make([]model.FeedItem, 0, limit)
	for rows.Next() {
		var item model.FeedItem
		var rawTags string

		dest := []any{
			&item.ID, &item.UserID, &item.Author, &item.Title,
			&item.Description, &item.Code, &rawTags, &item.CreatedAt,
			&item.Upvotes,
		}
		if viewerID != "" {
			var voted bool
			item.VotedByViewer = &voted
			dest = append(dest, &voted)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, storeErr("scanning feed row", err)
		}
		tags, err := decodeTags(rawTags)
		if err != nil {
			return nil, storeErr("scanning feed row", err)
		}
		item.Tags = tags
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating feed", err)
	}

	return items, nil
}

// SearchByText matches term as a case-insensitive substring of title OR
// description, newest first. The caller guarantees term is non-blank — an
// empty term would match everything here, and the service treats blank as
// "match nothing" before reaching the store.
func (s *FeedStore) SearchByText(ctx context.Context, term string, limit int) ([]model.Snippet, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	// lower() on both sides gives case-insensitive matching beyond the
	// ASCII-only folding SQLite's LIKE does by default. The term itself is
	// escaped so %/_ in a query are literals — searching for "100%" must
	// not degenerate into "everything starting with 100".
	pattern := "%" + escapeLike(term) + "%"
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets s
		 JOIN users u ON u.user_id = s.user_id
		 WHERE lower(s.title) LIKE lower(?) ESCAPE '\'
		    OR lower(s.description) LIKE lower(?) ESCAPE '\'
		 ORDER BY s.created_at DESC
		 LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("searching snippets for %q", term), err)
	}
	defer rows.Close()

	return collectSnippets(rows.Next, rows.Scan, rows.Err)
}

// SearchByTag returns snippets whose tag set contains the (lowercased) tag,
// newest first. json_each unnests the JSON tags column into rows so exact
// membership is a plain equality test.
func (s *FeedStore) SearchByTag(ctx context.Context, tag string, limit int) ([]model.Snippet, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets s
		 JOIN users u ON u.user_id = s.user_id
		 WHERE EXISTS (
			SELECT 1 FROM json_each(s.tags) t WHERE t.value = ?
		 )
		 ORDER BY s.created_at DESC
		 LIMIT ?`,
		tag, limit,
	)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("searching snippets by tag %q", tag), err)
	}
	defer rows.Close()

	return collectSnippets(rows.Next, rows.Scan, rows.Err)
}

// PopularTags aggregates tag usage across all snippets, most-used first.
// Ties are broken alphabetically so the listing is stable.
func (s *FeedStore) PopularTags(ctx context.Context, limit int) ([]model.TagCount, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT t.value, COUNT(*) AS uses
		 FROM snippets s, json_each(s.tags) t
		 GROUP BY t.value
		 ORDER BY uses DESC, t.value ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, storeErr("aggregating popular tags", err)
	}
	defer rows.Close()

	tags := make([]model.TagCount, 0, limit)
	for rows.Next() {
		var tc model.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, storeErr("scanning tag count row", err)
		}
		tags = append(tags, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterating popular tags", err)
	}

	return tags, nil
}

// collectSnippets drains a snippetColumns result set. Shared by the search
// queries, which differ only in their WHERE clause.
func collectSnippets(next func() bool, scan func(dest ...any) error, rowsErr func() error) ([]model.Snippet, error) {
	snippets := []model.Snippet{}
	for next() {
		s, err := scanSnippet(scan)
		if err != nil {
			return nil, storeErr("scanning snippet row", err)
		}
		snippets = append(snippets, *s)
	}
	if err := rowsErr(); err != nil {
		return nil, storeErr("iterating snippets", err)
	}
	return snippets, nil
}
