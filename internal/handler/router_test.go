package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippetshare/internal/assist"
	"github.com/sakif/snippetshare/internal/auth"
	"github.com/sakif/snippetshare/internal/handler"
	"github.com/sakif/snippetshare/internal/service"
	sqliteRepo "github.com/sakif/snippetshare/internal/repository/sqlite"
)

// fakeGenerator scripts the AI backend so assist endpoints can be exercised
// without a network or an API key.
type fakeGenerator struct {
	reply string
	err   error
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	return f.reply, f.err
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return f.reply, f.err
}

// testApp wires real handlers, services, and an in-memory SQLite store
// behind the same route table the server mounts. Requests go through the
// actual auth middleware, so these tests cover cookie handling and route
// protection as well as the handlers themselves.
type testApp struct {
	router http.Handler
	gen    *fakeGenerator
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService("test-secret-0123456789abcdef")
	require.NoError(t, err)
	passwords := auth.NewPasswordServiceForTest(4)
	google := auth.NewGoogleProvider("client-id", "client-secret", "http://localhost:8080/auth/google/callback")

	profileStore := sqliteRepo.NewProfileStore(db)
	snippetStore := sqliteRepo.NewSnippetStore(db)
	voteStore := sqliteRepo.NewVoteStore(db)
	feedStore := sqliteRepo.NewFeedStore(db)

	profileService := service.NewProfileService(profileStore, logger)
	authService := service.NewAuthService(profileService, tokens, passwords, logger)
	snippetService := service.NewSnippetService(snippetStore, profileStore, logger)
	voteService := service.NewVoteService(voteStore, snippetStore, logger)
	feedService := service.NewFeedService(feedStore, logger)

	gen := &fakeGenerator{}
	assistant := assist.NewAssistant(gen, assist.NewBudget(100, time.Minute), logger)

	authHandler := handler.NewAuthHandler(authService, profileService, google, logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, logger)
	voteHandler := handler.NewVoteHandler(voteService, logger)
	feedHandler := handler.NewFeedHandler(feedService, logger)
	assistHandler := handler.NewAssistHandler(assistant, logger)

	r := chi.NewRouter()
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignUp)
		r.Post("/signin", authHandler.HandleSignIn)
		r.Post("/anonymous", authHandler.HandleAnonymous)
		r.Post("/logout", authHandler.HandleLogout)
	})
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))
			r.Get("/feed", feedHandler.HandleFeed)
			r.Get("/snippets/search", feedHandler.HandleSearch)
			r.Get("/snippets/tag/{tag}", feedHandler.HandleSearchByTag)
			r.Get("/tags/popular", feedHandler.HandlePopularTags)
			r.Get("/snippets/{id}", snippetHandler.HandleGetByID)
		})
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Get("/me", authHandler.HandleMe)
			r.Patch("/me", authHandler.HandleUpdateMe)
			r.Post("/snippets", snippetHandler.HandleCreate)
			r.Put("/snippets/{id}", snippetHandler.HandleUpdate)
			r.Delete("/snippets/{id}", snippetHandler.HandleDelete)
			r.Post("/snippets/{id}/vote", voteHandler.HandleToggle)
			r.Get("/my/snippets", snippetHandler.HandleListMine)
			r.Get("/my/stats", snippetHandler.HandleStats)
			r.Route("/assist", func(r chi.Router) {
				r.Post("/tags", assistHandler.HandleSuggestTags)
				r.Post("/analyze", assistHandler.HandleAnalyze)
				r.Post("/improve", assistHandler.HandleImprove)
				r.Post("/language", assistHandler.HandleDetectLanguage)
				r.Post("/describe", assistHandler.HandleDescribe)
			})
		})
	})

	return &testApp{router: r, gen: gen}
}

// do sends a request through the full router. A nil body sends no payload;
// anything else is JSON-encoded. Cookies (usually the session from signUp)
// ride along.
func (app *testApp) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rr := httptest.NewRecorder()
	app.router.ServeHTTP(rr, req)
	return rr
}

// doRaw sends a literal body, for malformed-JSON cases.
func (app *testApp) doRaw(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rr := httptest.NewRecorder()
	app.router.ServeHTTP(rr, req)
	return rr
}

// signUp registers an account and returns the session cookie.
func (app *testApp) signUp(t *testing.T, email, author string) *http.Cookie {
	t.Helper()

	rr := app.do(t, http.MethodPost, "/auth/signup", map[string]string{
		"email":    email,
		"password": "hunter2-long-enough",
		"author":   author,
	})
	require.Equal(t, http.StatusCreated, rr.Code, "signup failed: %s", rr.Body.String())

	return sessionCookie(t, rr)
}

// sessionCookie pulls the "token" cookie out of a response.
func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range rr.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatal("no token cookie in response")
	return nil
}

// decode unmarshals a response body into v.
func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(v), "body: %s", rr.Body.String())
}
