package handler_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippetshare/internal/model"
)

// upvote casts the cookie's vote on a snippet.
func upvote(t *testing.T, app *testApp, cookie *http.Cookie, snippetID string) {
	t.Helper()
	rr := app.do(t, http.MethodPost, fmt.Sprintf("/api/snippets/%s/vote", snippetID), nil, cookie)
	require.Equal(t, http.StatusOK, rr.Code, "vote failed: %s", rr.Body.String())
}

func TestFeedHandler_Feed(t *testing.T) {
	t.Run("ranked by upvotes", func(t *testing.T) {
		app := newTestApp(t)
		ada := app.signUp(t, "ada@example.com", "Ada")
		fan1 := app.signUp(t, "fan1@example.com", "Fan One")
		fan2 := app.signUp(t, "fan2@example.com", "Fan Two")

		quiet := createSnippet(t, app, ada, "Quiet")
		hit := createSnippet(t, app, ada, "Hit")
		upvote(t, app, fan1, hit.ID)
		upvote(t, app, fan2, hit.ID)
		upvote(t, app, fan1, quiet.ID)

		rr := app.do(t, http.MethodGet, "/api/feed", nil)
		assert.Equal(t, http.StatusOK, rr.Code)

		var items []model.FeedItem
		decode(t, rr, &items)
		require.Len(t, items, 2)
		assert.Equal(t, "Hit", items[0].Title)
		assert.Equal(t, 2, items[0].Upvotes)
		assert.Equal(t, "Quiet", items[1].Title)
		assert.Equal(t, 1, items[1].Upvotes)
	})

	t.Run("anonymous viewers get null vote status", func(t *testing.T) {
		app := newTestApp(t)
		ada := app.signUp(t, "ada@example.com", "Ada")
		createSnippet(t, app, ada, "Public")

		rr := app.do(t, http.MethodGet, "/api/feed", nil)

		var items []model.FeedItem
		decode(t, rr, &items)
		require.Len(t, items, 1)
		assert.Nil(t, items[0].VotedByViewer)
	})

	t.Run("signed-in viewers see their vote status", func(t *testing.T) {
		app := newTestApp(t)
		ada := app.signUp(t, "ada@example.com", "Ada")
		fan := app.signUp(t, "fan@example.com", "Fan")

		voted := createSnippet(t, app, ada, "Voted")
		createSnippet(t, app, ada, "Not Voted")
		upvote(t, app, fan, voted.ID)

		rr := app.do(t, http.MethodGet, "/api/feed", nil, fan)

		var items []model.FeedItem
		decode(t, rr, &items)
		require.Len(t, items, 2)
		for _, item := range items {
			if assert.NotNil(t, item.VotedByViewer) {
				assert.Equal(t, item.ID == voted.ID, *item.VotedByViewer)
			}
		}
	})

	t.Run("pagination", func(t *testing.T) {
		app := newTestApp(t)
		ada := app.signUp(t, "ada@example.com", "Ada")
		for i := 0; i < 3; i++ {
			createSnippet(t, app, ada, fmt.Sprintf("Snippet %d", i))
		}

		page1 := app.do(t, http.MethodGet, "/api/feed?limit=2&offset=0", nil)
		var items []model.FeedItem
		decode(t, page1, &items)
		assert.Len(t, items, 2)

		page2 := app.do(t, http.MethodGet, "/api/feed?limit=2&offset=2", nil)
		decode(t, page2, &items)
		assert.Len(t, items, 1)
	})

	t.Run("malformed pagination degrades to defaults", func(t *testing.T) {
		app := newTestApp(t)
		ada := app.signUp(t, "ada@example.com", "Ada")
		createSnippet(t, app, ada, "Still Served")

		rr := app.do(t, http.MethodGet, "/api/feed?limit=banana&offset=-5", nil)
		assert.Equal(t, http.StatusOK, rr.Code, "bad pagination is not worth a 400")

		var items []model.FeedItem
		decode(t, rr, &items)
		assert.Len(t, items, 1)
	})

	t.Run("empty feed is an empty list, not null", func(t *testing.T) {
		app := newTestApp(t)

		rr := app.do(t, http.MethodGet, "/api/feed", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, "[]", rr.Body.String())
	})
}

func TestFeedHandler_Search(t *testing.T) {
	app := newTestApp(t)
	ada := app.signUp(t, "ada@example.com", "Ada")
	createSnippet(t, app, ada, "Binary Search in Go")
	createSnippet(t, app, ada, "CSS Centering")

	t.Run("matches title", func(t *testing.T) {
		rr := app.do(t, http.MethodGet, "/api/snippets/search?q=binary", nil)
		assert.Equal(t, http.StatusOK, rr.Code)

		var results []model.Snippet
		decode(t, rr, &results)
		require.Len(t, results, 1)
		assert.Equal(t, "Binary Search in Go", results[0].Title)
	})

	t.Run("no match", func(t *testing.T) {
		rr := app.do(t, http.MethodGet, "/api/snippets/search?q=fortran", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, "[]", rr.Body.String())
	})

	t.Run("blank query matches nothing", func(t *testing.T) {
		rr := app.do(t, http.MethodGet, "/api/snippets/search?q=++", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, "[]", rr.Body.String())
	})
}

func TestFeedHandler_SearchByTag(t *testing.T) {
	app := newTestApp(t)
	ada := app.signUp(t, "ada@example.com", "Ada")
	createSnippet(t, app, ada, "Go Worker Pool", "go", "concurrency")
	createSnippet(t, app, ada, "Python Asyncio", "python", "concurrency")

	t.Run("exact tag membership", func(t *testing.T) {
		rr := app.do(t, http.MethodGet, "/api/snippets/tag/go", nil)
		assert.Equal(t, http.StatusOK, rr.Code)

		var results []model.Snippet
		decode(t, rr, &results)
		require.Len(t, results, 1)
		assert.Equal(t, "Go Worker Pool", results[0].Title)
	})

	t.Run("tag lookup is case-insensitive", func(t *testing.T) {
		rr := app.do(t, http.MethodGet, "/api/snippets/tag/CONCURRENCY", nil)

		var results []model.Snippet
		decode(t, rr, &results)
		assert.Len(t, results, 2)
	})

	t.Run("unknown tag", func(t *testing.T) {
		rr := app.do(t, http.MethodGet, "/api/snippets/tag/rust", nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, "[]", rr.Body.String())
	})
}

func TestFeedHandler_PopularTags(t *testing.T) {
	app := newTestApp(t)
	ada := app.signUp(t, "ada@example.com", "Ada")
	createSnippet(t, app, ada, "One", "go", "web")
	createSnippet(t, app, ada, "Two", "go")
	createSnippet(t, app, ada, "Three", "go", "web", "cli")

	rr := app.do(t, http.MethodGet, "/api/tags/popular", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	var tags []model.TagCount
	decode(t, rr, &tags)
	require.Len(t, tags, 3)
	assert.Equal(t, model.TagCount{Tag: "go", Count: 3}, tags[0])
	assert.Equal(t, model.TagCount{Tag: "web", Count: 2}, tags[1])
	assert.Equal(t, model.TagCount{Tag: "cli", Count: 1}, tags[2])

	t.Run("limit", func(t *testing.T) {
		rr := app.do(t, http.MethodGet, "/api/tags/popular?limit=1", nil)

		var tags []model.TagCount
		decode(t, rr, &tags)
		require.Len(t, tags, 1)
		assert.Equal(t, "go", tags[0].Tag)
	})
}
