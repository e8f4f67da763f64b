// Package auth — password hashing for local accounts.
//
// Only "password" provider accounts carry a hash; Google and anonymous
// profiles authenticate elsewhere and store an empty PasswordHash.
//
// WHY BCRYPT?
// bcrypt is deliberately slow, and the slowness is the point: a login that
// costs ~250ms is imperceptible to a user but ruinous for an attacker
// grinding through a leaked table. Fast digests (SHA-256, MD5) fall to
// GPU-accelerated guessing in minutes. bcrypt also salts every hash itself
// and embeds salt, cost, and version in the output string:
//
//	$2a$12$<22-char salt><31-char hash>
//
// so the database needs exactly one column and a future cost bump needs no
// migration — old hashes keep verifying at their recorded cost.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// hashCost is the bcrypt work factor for new hashes. Cost 12 lands around
// 250ms on current server hardware; tune it so hashing stays in the
// 200-300ms band — lower is crackable, higher starves the server under a
// login burst.
const hashCost = 12

// maxPasswordBytes is bcrypt's input ceiling. The library silently
// truncates longer inputs, which we refuse to do on the user's behalf.
const maxPasswordBytes = 72

// PasswordService hashes and verifies passwords. The cost lives on a struct
// rather than in free functions so tests can inject the bcrypt minimum and
// skip the intentional slowness.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService at the production cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: hashCost}
}

// newPasswordServiceWithCost is the in-package test constructor.
func newPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// NewPasswordServiceForTest creates a PasswordService with a caller-chosen
// cost for tests in other packages. Pass 4 (the bcrypt minimum) to keep
// sign-up-heavy test suites fast. Never use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash turns a plaintext password into a self-contained bcrypt string,
// ready to store in the profile row as-is. Inputs over 72 bytes are
// rejected outright rather than silently truncated.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", maxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash; nil means it
// does. The comparison inside bcrypt is constant-time, so response timing
// leaks nothing about how close a guess was.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
