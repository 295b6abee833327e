package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IdentityRecord represents a stored identity including its stored password form.
type IdentityRecord struct {
	Username string
	Password string
	Roles    []string
}

// IdentityStore looks up identities by username. Implementations are read-only
// from the validator's point of view and must be safe for concurrent use.
type IdentityStore interface {
	FindByUsername(ctx context.Context, username string) (*IdentityRecord, error)
}

// MemoryIdentityStore is an immutable in-process identity store built at startup.
type MemoryIdentityStore struct {
	byName map[string]IdentityRecord
}

// NewMemoryIdentityStore builds a store from configured entries.
// Empty and duplicate usernames are rejected.
func NewMemoryIdentityStore(entries []IdentityConfig) (*MemoryIdentityStore, error) {
	byName := make(map[string]IdentityRecord, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.Username) == "" {
			return nil, fmt.Errorf("identity #%d: username is empty", i+1)
		}
		if _, dup := byName[e.Username]; dup {
			return nil, fmt.Errorf("identity #%d: duplicate username %q", i+1, e.Username)
		}
		byName[e.Username] = IdentityRecord{
			Username: e.Username,
			Password: e.Password,
			Roles:    cloneRoles(e.Roles),
		}
	}
	return &MemoryIdentityStore{byName: byName}, nil
}

func (s *MemoryIdentityStore) FindByUsername(_ context.Context, username string) (*IdentityRecord, error) {
	rec, ok := s.byName[username]
	if !ok {
		return nil, ErrIdentityNotFound
	}
	rec.Roles = cloneRoles(rec.Roles)
	return &rec, nil
}

// Len reports the number of identities held.
func (s *MemoryIdentityStore) Len() int {
	return len(s.byName)
}

// PgIdentityStore implements IdentityStore using pgxpool.
type PgIdentityStore struct {
	db *pgxpool.Pool
}

func NewPgIdentityStore(db *pgxpool.Pool) *PgIdentityStore {
	return &PgIdentityStore{db: db}
}

func (r *PgIdentityStore) FindByUsername(ctx context.Context, username string) (*IdentityRecord, error) {
	const q = `SELECT username, password, roles FROM identities WHERE username=$1`
	var rec IdentityRecord
	if err := r.db.QueryRow(ctx, q, username).Scan(&rec.Username, &rec.Password, &rec.Roles); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}
	if rec.Roles == nil {
		rec.Roles = []string{}
	}
	return &rec, nil
}

// Create inserts an identity unless the username already exists.
// It reports whether a row was inserted.
func (r *PgIdentityStore) Create(ctx context.Context, e IdentityConfig) (bool, error) {
	const q = `INSERT INTO identities (username, password, roles) VALUES ($1,$2,$3) ON CONFLICT (username) DO NOTHING`
	roles := e.Roles
	if roles == nil {
		roles = []string{}
	}
	tag, err := r.db.Exec(ctx, q, e.Username, e.Password, roles)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Count returns the number of stored identities.
func (r *PgIdentityStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM identities`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// identityQueryTimeout bounds a single identity lookup.
const identityQueryTimeout = 3 * time.Second
