package core

import (
	"context"
	"errors"
)

// Identity is a validated principal. It never carries the password.
type Identity struct {
	Username string
	Roles    []string
}

// IdentityConfig is one configured identity store entry.
type IdentityConfig struct {
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	Roles    []string `yaml:"roles"`
}

// Credential is a submitted username/password pair. It is discarded after validation.
type Credential struct {
	Username string
	Password string
}

var (
	// ErrInvalidCredentials is returned when username/password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrIdentityNotFound is returned by identity stores for unknown usernames.
	ErrIdentityNotFound = errors.New("identity not found")
)

// AuthService defines authentication behaviour.
type AuthService interface {
	Authenticate(ctx context.Context, username, password string) (Identity, error)
}

// DefaultIdentities is the single built-in identity used when no identities file is configured.
func DefaultIdentities() []IdentityConfig {
	return []IdentityConfig{{Username: "user", Password: "password", Roles: []string{}}}
}

func cloneRoles(roles []string) []string {
	out := make([]string, len(roles))
	copy(out, roles)
	return out
}
