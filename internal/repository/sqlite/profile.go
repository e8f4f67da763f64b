package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/snippetshare/internal/apperror"
	"github.com/sakif/snippetshare/internal/model"
	"github.com/sakif/snippetshare/internal/repository"
)

// ProfileStore implements repository.ProfileRepository on the shared pool.
//
// WHY PER-ENTITY STORE TYPES?
// The repository interfaces overlap in method names (ProfileRepository and
// VoteRepository both declare Insert, for example), so one receiver type
// cannot implement them all. Each store is a thin view over the same *DB.
type ProfileStore struct {
	db *DB
}

func NewProfileStore(db *DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// compile-time check that *ProfileStore implements repository.ProfileRepository
var _ repository.ProfileRepository = (*ProfileStore)(nil)

// Insert creates a new profile row.
//
// The user_id comes from the caller (it's the identity the auth boundary
// issued), so unlike snippets we do NOT generate it here. A duplicate ID
// trips the PRIMARY KEY constraint and is reported as Conflict — the
// upsert branch decision lives in the service layer, which wants to know
// whether it created or updated.
func (s *ProfileStore) Insert(ctx context.Context, p *model.Profile) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	_, err := s.db.conn.ExecContext(ctx,
		`INSERT INTO users (user_id, author, email, password_hash, provider, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.UserID,
		p.Author,
		p.Email,
		p.PasswordHash,
		p.Provider,
		p.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("profile", p.UserID)
		}
		return storeErr(fmt.Sprintf("inserting profile %s", p.UserID), err)
	}

	return nil
}

// Update overwrites the mutable fields of an existing profile.
// user_id and created_at are immutable and never touched.
func (s *ProfileStore) Update(ctx context.Context, p *model.Profile) error {
	ctx, cancel := opContext(ctx)
	defer cancel()

	result, err := s.db.conn.ExecContext(ctx,
		`UPDATE users SET author = ?, email = ?, password_hash = ?, provider = ?
		 WHERE user_id = ?`,
		p.Author,
		p.Email,
		p.PasswordHash,
		p.Provider,
		p.UserID,
	)
	if err != nil {
		return storeErr(fmt.Sprintf("updating profile %s", p.UserID), err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeErr("checking rows affected", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("profile", p.UserID)
	}

	return nil
}

// GetByID retrieves a profile by user ID.
// Returns apperror.ErrNotFound if no profile exists — callers must treat
// that as distinct from a transient store failure.
func (s *ProfileStore) GetByID(ctx context.Context, userID string) (*model.Profile, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	var p model.Profile
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT user_id, author, email, password_hash, provider, created_at
		 FROM users WHERE user_id = ?`,
		userID,
	).Scan(
		&p.UserID,
		&p.Author,
		&p.Email,
		&p.PasswordHash,
		&p.Provider,
		&p.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("profile", userID)
		}
		return nil, storeErr(fmt.Sprintf("getting profile %s", userID), err)
	}

	return &p, nil
}

// GetByEmail looks a profile up by email for the password sign-in flow.
// Emails aren't unique by constraint: the same address can belong to one
// profile per provider (a Google login and a later local registration).
// The password-provider row wins the tie — it is the only one SignIn can
// verify — then the earliest-created match.
func (s *ProfileStore) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	ctx, cancel := opContext(ctx)
	defer cancel()

	var p model.Profile
	err := s.db.conn.QueryRowContext(ctx,
		`SELECT user_id, author, email, password_hash, provider, created_at
		 FROM users WHERE email = ?
		 ORDER BY CASE WHEN provider = 'password' THEN 0 ELSE 1 END, created_at ASC
		 LIMIT 1`,
		email,
	).Scan(
		&p.UserID,
		&p.Author,
		&p.Email,
		&p.PasswordHash,
		&p.Provider,
		&p.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("profile", email)
		}
		return nil, storeErr(fmt.Sprintf("getting profile by email %s", email), err)
	}

	return &p, nil
}
