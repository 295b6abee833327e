package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newDefaultAuthService(t *testing.T) *StoreAuthService {
	t.Helper()
	store, err := NewMemoryIdentityStore(DefaultIdentities())
	require.NoError(t, err)
	return NewStoreAuthService(store, nil)
}

func TestAuthenticate_ConfiguredIdentity(t *testing.T) {
	svc := newDefaultAuthService(t)

	id, err := svc.Authenticate(context.Background(), "user", "password")

	require.NoError(t, err)
	assert.Equal(t, "user", id.Username)
	assert.Empty(t, id.Roles)
}

func TestAuthenticate_RejectsAnythingButExactMatch(t *testing.T) {
	svc := newDefaultAuthService(t)

	cases := []struct {
		name, username, password string
	}{
		{"wrong password", "user", "wrong"},
		{"empty both", "", ""},
		{"empty password", "user", ""},
		{"empty username", "", "password"},
		{"username case", "User", "password"},
		{"password case", "user", "Password"},
		{"username substring", "use", "password"},
		{"password substring", "user", "pass"},
		{"password superstring", "user", "password1"},
		{"padded username", " user", "password"},
		{"unknown user", "admin", "password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Authenticate(context.Background(), tc.username, tc.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestAuthenticate_MultipleIdentitiesKeepRoles(t *testing.T) {
	store, err := NewMemoryIdentityStore([]IdentityConfig{
		{Username: "user", Password: "password"},
		{Username: "ops", Password: "s3cret", Roles: []string{"operator"}},
	})
	require.NoError(t, err)
	svc := NewStoreAuthService(store, nil)

	id, err := svc.Authenticate(context.Background(), "ops", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, []string{"operator"}, id.Roles)

	// returned roles are a copy
	id.Roles[0] = "changed"
	again, err := svc.Authenticate(context.Background(), "ops", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, []string{"operator"}, again.Roles)
}

type failingStore struct{ err error }

func (s failingStore) FindByUsername(context.Context, string) (*IdentityRecord, error) {
	return nil, s.err
}

func TestAuthenticate_StoreFailureIsNotInvalidCredentials(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewStoreAuthService(failingStore{err: boom}, nil)

	_, err := svc.Authenticate(context.Background(), "user", "password")

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate_NotFoundFromStoreIsInvalidCredentials(t *testing.T) {
	svc := NewStoreAuthService(failingStore{err: ErrIdentityNotFound}, nil)

	_, err := svc.Authenticate(context.Background(), "user", "password")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestNewMemoryIdentityStore_Validation(t *testing.T) {
	_, err := NewMemoryIdentityStore([]IdentityConfig{{Username: "", Password: "x"}})
	assert.Error(t, err)

	_, err = NewMemoryIdentityStore([]IdentityConfig{
		{Username: "user", Password: "a"},
		{Username: "user", Password: "b"},
	})
	assert.Error(t, err)
}

func TestNewPasswordMatcher(t *testing.T) {
	for _, name := range []string{"", "plain", "PLAIN", "bcrypt"} {
		m, err := NewPasswordMatcher(name)
		require.NoError(t, err, name)
		assert.NotNil(t, m)
	}
	_, err := NewPasswordMatcher("md5")
	assert.Error(t, err)
}

func TestBcryptMatcher(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	m := bcryptMatcher{}

	ok, err := m.Match(bcryptPrefix+string(hash), "password")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Match(bcryptPrefix+string(hash), "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.Match(noopPrefix+"password", "password")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Match("password", "password")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = m.Match(bcryptPrefix+"not-a-hash", "password")
	assert.Error(t, err)
}

func TestAuthenticate_BcryptStoredPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	store, err := NewMemoryIdentityStore([]IdentityConfig{{Username: "user", Password: bcryptPrefix + string(hash)}})
	require.NoError(t, err)
	matcher, err := NewPasswordMatcher(BcryptMatcherName)
	require.NoError(t, err)
	svc := NewStoreAuthService(store, matcher)

	_, err = svc.Authenticate(context.Background(), "user", "password")
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), "user", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
