package core

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	PlainMatcherName  = "plain"
	BcryptMatcherName = "bcrypt"

	bcryptPrefix = "{bcrypt}"
	noopPrefix   = "{noop}"
)

// PasswordMatcher compares a submitted password with its stored form.
// A non-nil error means the stored form itself could not be evaluated.
type PasswordMatcher interface {
	Match(stored, submitted string) (bool, error)
}

// NewPasswordMatcher returns the matcher registered under name.
func NewPasswordMatcher(name string) (PasswordMatcher, error) {
	switch strings.ToLower(name) {
	case "", PlainMatcherName:
		return plainMatcher{}, nil
	case BcryptMatcherName:
		return bcryptMatcher{}, nil
	default:
		return nil, fmt.Errorf("unknown password matcher %q", name)
	}
}

// plainMatcher is a placeholder strategy: exact, unhashed comparison.
// It exists for the demo identity only and is not a secure password policy.
type plainMatcher struct{}

func (plainMatcher) Match(stored, submitted string) (bool, error) {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1, nil
}

// bcryptMatcher checks "{bcrypt}"-prefixed stored values with bcrypt and
// compares anything else exactly ("{noop}" prefix stripped).
type bcryptMatcher struct{}

func (bcryptMatcher) Match(stored, submitted string) (bool, error) {
	switch {
	case strings.HasPrefix(stored, bcryptPrefix):
		err := bcrypt.CompareHashAndPassword([]byte(strings.TrimPrefix(stored, bcryptPrefix)), []byte(submitted))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("stored bcrypt hash unusable: %w", err)
	case strings.HasPrefix(stored, noopPrefix):
		return plainMatcher{}.Match(strings.TrimPrefix(stored, noopPrefix), submitted)
	default:
		return plainMatcher{}.Match(stored, submitted)
	}
}

// StoreAuthService validates credentials against an IdentityStore.
type StoreAuthService struct {
	identities IdentityStore
	matcher    PasswordMatcher
}

// NewStoreAuthService wires an identity store with a password matcher.
// A nil matcher falls back to the plain placeholder matcher.
func NewStoreAuthService(identities IdentityStore, matcher PasswordMatcher) *StoreAuthService {
	if matcher == nil {
		matcher = plainMatcher{}
	}
	return &StoreAuthService{identities: identities, matcher: matcher}
}

// Authenticate returns the identity whose username and password exactly match.
// Unknown users and wrong passwords yield ErrInvalidCredentials; store
// failures are returned wrapped.
func (s *StoreAuthService) Authenticate(ctx context.Context, username, password string) (Identity, error) {
	if username == "" || password == "" {
		return Identity{}, ErrInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, identityQueryTimeout)
	defer cancel()

	rec, err := s.identities.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, fmt.Errorf("lookup identity: %w", err)
	}
	if rec == nil || rec.Username != username {
		return Identity{}, ErrInvalidCredentials
	}

	ok, err := s.matcher.Match(rec.Password, password)
	if err != nil {
		return Identity{}, fmt.Errorf("match password for %q: %w", username, err)
	}
	if !ok {
		return Identity{}, ErrInvalidCredentials
	}
	return Identity{
		Username: rec.Username,
		Roles:    cloneRoles(rec.Roles),
	}, nil
}
