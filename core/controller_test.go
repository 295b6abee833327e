package core

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	identity Identity
	err      error
	panicMsg string
	calls    int
}

func (s *stubAuth) Authenticate(context.Context, string, string) (Identity, error) {
	s.calls++
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.identity, s.err
}

// captureLog redirects the standard logger for the duration of the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(orig) })
	return &buf
}

func assertExactlyOneView(t *testing.T, vm ViewModel) {
	t.Helper()
	assert.Contains(t, []View{ViewLogin, ViewMain}, vm.View)
	assert.Equal(t, vm.View == ViewMain, vm.Principal != nil)
}

func TestController_InitialStateAnonymous(t *testing.T) {
	ctrl := NewSessionViewController(newDefaultAuthService(t), SessionState{})

	vm := ctrl.View()
	assert.Equal(t, ViewLogin, vm.View)
	assert.False(t, vm.FailureVisible)
	assert.True(t, vm.SubmitEnabled)
	assert.True(t, vm.FocusUsername)
	assert.Nil(t, vm.Principal)
	assertExactlyOneView(t, vm)
}

func TestController_InitialStateAuthenticated(t *testing.T) {
	auth := &stubAuth{}
	ctrl := NewSessionViewController(auth, SessionState{Authenticated: true, Principal: &Identity{Username: "user"}})

	vm := ctrl.View()
	assert.Equal(t, ViewMain, vm.View)
	require.NotNil(t, vm.Principal)
	assert.Equal(t, "user", vm.Principal.Username)
	assert.Zero(t, auth.calls)
}

func TestController_AuthenticatedWithoutPrincipalIsAnonymous(t *testing.T) {
	ctrl := NewSessionViewController(&stubAuth{}, SessionState{Authenticated: true})

	assert.Equal(t, ViewLogin, ctrl.View().View)
	assert.False(t, ctrl.State().Authenticated)
}

func TestController_Scenario(t *testing.T) {
	logs := captureLog(t)
	ctrl := NewSessionViewController(newDefaultAuthService(t), SessionState{})
	ctx := context.Background()

	res := ctrl.Submit(ctx, SubmitEvent{Username: "user", Password: "wrong"})
	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrInvalidCredentials)
	vm := ctrl.View()
	assert.Equal(t, ViewLogin, vm.View)
	assert.True(t, vm.FailureVisible)
	assert.Equal(t, loginFailedMessage, vm.FailureMessage)
	assert.True(t, vm.SubmitEnabled)
	assert.True(t, vm.FocusUsername)
	assert.Equal(t, "user", vm.Username)
	assertExactlyOneView(t, vm)

	res = ctrl.Submit(ctx, SubmitEvent{})
	assert.Equal(t, OutcomeRejected, res.Outcome)
	assert.True(t, ctrl.View().FailureVisible)

	res = ctrl.Submit(ctx, SubmitEvent{Username: "user", Password: "password"})
	assert.Equal(t, OutcomeAuthenticated, res.Outcome)
	assert.Equal(t, "user", res.Identity.Username)
	vm = ctrl.View()
	assert.Equal(t, ViewMain, vm.View)
	assert.True(t, ctrl.State().Authenticated)
	assert.False(t, vm.FailureVisible)
	assert.True(t, vm.SubmitEnabled)
	assertExactlyOneView(t, vm)

	name, ok := ctrl.WhoAmI()
	assert.True(t, ok)
	assert.Equal(t, "user", name)
	require.NotNil(t, ctrl.View().Notification)
	assert.Equal(t, "user", ctrl.View().Notification.Title)

	ctrl.Logout()
	vm = ctrl.View()
	assert.Equal(t, ViewLogin, vm.View)
	assert.False(t, vm.FailureVisible)
	assert.Nil(t, vm.Principal)
	assert.Nil(t, vm.Notification)
	assert.Nil(t, ctrl.State().Principal)
	_, ok = ctrl.WhoAmI()
	assert.False(t, ok)
	assertExactlyOneView(t, vm)

	// expected failures are not logged
	assert.Empty(t, logs.String())
}

func TestController_UnexpectedErrorNotifiesAndLogs(t *testing.T) {
	logs := captureLog(t)
	auth := &stubAuth{err: errors.New("identity store unavailable")}
	ctrl := NewSessionViewController(auth, SessionState{})

	res := ctrl.Submit(context.Background(), SubmitEvent{Username: "user", Password: "password"})

	assert.Equal(t, OutcomeFailed, res.Outcome)
	vm := ctrl.View()
	assert.Equal(t, ViewLogin, vm.View)
	assert.False(t, vm.FailureVisible)
	assert.True(t, vm.SubmitEnabled)
	require.NotNil(t, vm.Notification)
	assert.True(t, vm.Notification.Error)
	assert.Equal(t, unexpectedErrorTitle, vm.Notification.Title)
	assert.Contains(t, vm.Notification.Detail, "identity store unavailable")
	assert.Contains(t, logs.String(), "identity store unavailable")
	assert.NotContains(t, logs.String(), "password\"")
}

func TestController_PanickingValidatorIsRecovered(t *testing.T) {
	captureLog(t)
	ctrl := NewSessionViewController(&stubAuth{panicMsg: "nil store"}, SessionState{})

	var res Result
	require.NotPanics(t, func() {
		res = ctrl.Submit(context.Background(), SubmitEvent{Username: "user", Password: "password"})
	})

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.True(t, ctrl.View().SubmitEnabled)
	assert.Equal(t, ViewLogin, ctrl.View().View)
}

func TestController_NotificationClearedOnNextSubmit(t *testing.T) {
	captureLog(t)
	auth := &stubAuth{err: errors.New("boom")}
	ctrl := NewSessionViewController(auth, SessionState{})
	ctrl.Submit(context.Background(), SubmitEvent{Username: "user", Password: "x"})
	require.NotNil(t, ctrl.View().Notification)

	auth.err = ErrInvalidCredentials
	ctrl.Submit(context.Background(), SubmitEvent{Username: "user", Password: "x"})

	assert.Nil(t, ctrl.View().Notification)
	assert.True(t, ctrl.View().FailureVisible)
}

func TestController_SubmitWhileAuthenticatedKeepsPrincipal(t *testing.T) {
	auth := &stubAuth{err: ErrInvalidCredentials}
	ctrl := NewSessionViewController(auth, SessionState{Authenticated: true, Principal: &Identity{Username: "user"}})

	res := ctrl.Submit(context.Background(), SubmitEvent{Username: "other", Password: "x"})

	assert.Equal(t, OutcomeAuthenticated, res.Outcome)
	assert.Equal(t, "user", res.Identity.Username)
	assert.Zero(t, auth.calls)
	assert.Equal(t, ViewMain, ctrl.View().View)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "authenticated", OutcomeAuthenticated.String())
	assert.Equal(t, "rejected", OutcomeRejected.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
}
