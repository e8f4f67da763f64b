package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleUser is the portion of Google's userinfo response we care about.
// Google returns a larger object — we only unmarshal the fields we need.
type GoogleUser struct {
	Sub   string `json:"sub"`   // Google's stable subject ID — never changes for an account
	Email string `json:"email"` // Primary email
	Name  string `json:"name"`  // Display name, e.g. "Sakif A."
}

// GoogleProvider wraps golang.org/x/oauth2 for the Google Authorization Code
// flow.
//
// OAUTH 2.0 AUTHORIZATION CODE FLOW:
// 1. Your server redirects the user to Google's authorization endpoint,
//    with your ClientID and the requested scopes.
// 2. The user approves (or denies) the request on Google's consent screen.
// 3. Google redirects back to your CallbackURL with a short-lived "code".
// 4. Your server exchanges the code for an access token (server-to-server).
// 5. Your server uses the access token to fetch the user's profile.
//
// The code-for-token exchange uses the ClientSecret server-to-server; the
// access token never touches the browser.
type GoogleProvider struct {
	config *oauth2.Config
}

// NewGoogleProvider creates a GoogleProvider with the given credentials.
//
// You get ClientID and ClientSecret from the Google Cloud console
// ("APIs & Services" → "Credentials" → "OAuth client ID").
// callbackURL must exactly match an authorized redirect URI there.
// Example: "http://localhost:8080/auth/google/callback"
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *GoogleProvider {
	return &GoogleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint, // pre-defined Google OAuth endpoints
		},
	}
}

// AuthURL returns the URL to redirect the user to for authorization.
//
// The state is a random string stored in a cookie before redirecting; the
// callback handler verifies the returned state matches. This prevents CSRF
// attacks where an attacker completes an OAuth flow for their own account
// in the victim's browser.
func (p *GoogleProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the OAuth flow: trades the authorization code for a
// Google user profile.
//
// Steps:
//  1. Exchange the code for an OAuth access token (server-to-server)
//  2. Use the token to call Google's userinfo endpoint
//  3. Unmarshal the response into a GoogleUser
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that adds the
	// "Authorization: Bearer <token>" header to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get("https://www.googleapis.com/oauth2/v3/userinfo")
	if err != nil {
		return nil, fmt.Errorf("auth: calling Google userinfo API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: Google userinfo API returned status %d", resp.StatusCode)
	}

	var gUser GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&gUser); err != nil {
		return nil, fmt.Errorf("auth: decoding Google userinfo response: %w", err)
	}

	if gUser.Sub == "" {
		return nil, fmt.Errorf("auth: Google returned an invalid user (empty sub)")
	}

	return &gUser, nil
}
