package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/auth"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/service"
)

// sessionCookieAge matches the JWT lifetime — the cookie and the token it
// carries expire together.
const sessionCookieAge = 7 * 24 * time.Hour

// AuthHandler manages sign-up/sign-in, the Google OAuth flow, and sessions.
//
// HANDLER RESPONSIBILITIES:
//   - HandleSignUp / HandleSignIn → local email/password accounts
//   - HandleAnonymous             → mint a throwaway trial identity
//   - HandleGoogleLogin           → redirect the browser to Google's consent page
//   - HandleGoogleCallback        → receive the code, exchange it, issue JWT
//   - HandleLogout                → clear the JWT cookie
//   - HandleMe / HandleUpdateMe   → read/edit the signed-in profile
type AuthHandler struct {
	svc      *service.AuthService
	profiles *service.ProfileService
	google   *auth.GoogleProvider
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected here;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(
	svc *service.AuthService,
	profiles *service.ProfileService,
	google *auth.GoogleProvider,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		svc:      svc,
		profiles: profiles,
		google:   google,
		logger:   logger,
	}
}

// setSessionCookie stores the JWT as an HttpOnly cookie.
// HttpOnly = JavaScript cannot read this cookie (XSS protection).
// SameSite=Lax = cookie is sent on top-level navigations but not cross-site POSTs.
// Secure should be true in production (HTTPS only). We leave it false for local dev.
func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionCookieAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // Uncomment in production (requires HTTPS)
	})
}

type signUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Author   string `json:"author"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignUp registers a local email/password account and signs it in.
//
// HTTP: POST /auth/signup
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON request body"))
		return
	}

	result, err := h.svc.SignUp(r.Context(), req.Email, req.Password, req.Author)
	if err != nil {
		writeError(w, err)
		return
	}

	setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusCreated, result.Profile)
}

// HandleSignIn authenticates a local account.
//
// HTTP: POST /auth/signin
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON request body"))
		return
	}

	result, err := h.svc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, result.Profile)
}

// HandleAnonymous mints a fresh anonymous identity and signs it in.
//
// HTTP: POST /auth/anonymous
//
// The session is as real as any other once the cookie is set; there is just
// no way to recover it after logout.
func (h *AuthHandler) HandleAnonymous(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.SignInAnonymously(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusCreated, result.Profile)
}

// HandleGoogleLogin redirects the user to Google's consent page.
//
// HTTP: GET /auth/google/login
//
// CSRF PROTECTION VIA STATE:
// We generate a random state string and store it in a short-lived cookie.
// When Google calls back, HandleGoogleCallback verifies the state matches.
// This proves the callback was initiated by this server, not a CSRF attacker.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the OAuth login flow.
//
// HTTP: GET /auth/google/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a Google user profile
//  3. Upsert the profile and issue a JWT cookie
//  4. Redirect to the app home page
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	// --- Step 1: Validate CSRF state ---
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch",
			slog.String("expected", stateCookie.Value),
			slog.String("got", r.URL.Query().Get("state")),
		)
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// Clear the state cookie — it's single-use
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	// Check if Google sent an error (user denied authorization)
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization",
			slog.String("error", errParam),
		)
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	// --- Step 2: Exchange code for a Google user profile ---
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	gUser, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: Google exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	// --- Step 3: Upsert profile and issue session ---
	result, err := h.svc.LoginWithGoogle(r.Context(), gUser)
	if err != nil {
		h.logger.Error("auth callback: login failed",
			slog.String("googleSub", gUser.Sub),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	setSessionCookie(w, result.Token)

	// --- Step 4: Redirect to the app ---
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the JWT cookie, effectively logging the user out.
//
// HTTP: POST /auth/logout
//
// WHY POST AND NOT GET?
// Logout is a state-changing operation. Using GET would be vulnerable to
// CSRF and to browsers pre-fetching the URL. POST ensures intentional action.
//
// Since we're stateless (JWT), "logout" just means deleting the client-side
// cookie. The token remains technically valid until it expires, but without
// the cookie the browser can't send it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // tells the browser to delete the cookie immediately
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the currently authenticated user's profile.
//
// HTTP: GET /api/me
// Auth: Required (RequireAuth middleware sets userID in context)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	// Auth middleware has already validated the JWT and set userID in context.
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		// Should never happen on a RequireAuth-protected route, but be safe.
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	profile, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error("HandleMe: profile lookup failed", slog.String("userID", userID))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// HandleUpdateMe applies a partial edit to the signed-in profile.
//
// HTTP: PATCH /api/me
// Auth: Required
//
// Only the fields present in the body change; absent fields keep their
// stored values.
func (h *AuthHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}

	var upd model.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON request body"))
		return
	}

	profile, err := h.profiles.Update(r.Context(), userID, upd)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
