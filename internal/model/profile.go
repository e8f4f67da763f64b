// Package model defines the data structures used throughout the application.
package model

import "time"

// Profile represents a user's display profile.
//
// UserID is the opaque identifier issued at sign-up/sign-in (or minted for
// anonymous sessions). It is the primary key, globally unique, and never
// changes once created — snippets and votes reference it.
//
// WHY Email string (not *string)?
// Anonymous sessions get a synthetic placeholder address rather than NULL.
// An empty/synthetic string is simpler to work with than a nullable pointer
// and safe to display.
type Profile struct {
	UserID    string    `json:"userId"`
	Author    string    `json:"author"` // display name shown on snippets
	Email     string    `json:"email"`  // may be synthetic for anonymous sessions
	CreatedAt time.Time `json:"createdAt"`

	// PasswordHash is only set for local email/password accounts.
	// Never serialized — the json:"-" tag keeps it out of every response.
	PasswordHash string `json:"-"`

	// Provider records how the account was created: "password", "google",
	// or "anonymous". Informational only; sessions are identical across
	// providers once issued.
	Provider string `json:"provider"`
}

// ProfileUpdate is a partial update to a profile.
//
// Every field is a pointer: nil means "leave unchanged", non-nil means "set
// to this value". This keeps unset-vs-explicitly-cleared unambiguous, which
// a plain struct of strings cannot do.
type ProfileUpdate struct {
	Author *string `json:"author"`
	Email  *string `json:"email"`
}
