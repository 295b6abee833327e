package core

import (
	"context"
	"errors"
	"fmt"
	"log"
)

const (
	loginFailedMessage     = "ログインに失敗しました。"
	unexpectedErrorTitle   = "予期しないエラーが発生しました。"
	unexpectedErrorLogText = "ログイン中に予期しないエラーが発生しました。"
)

// SubmitEvent carries the credentials of one login attempt.
type SubmitEvent struct {
	Username string
	Password string
}

// Outcome classifies the result of a submit.
type Outcome int

const (
	OutcomeAuthenticated Outcome = iota
	OutcomeRejected
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAuthenticated:
		return "authenticated"
	case OutcomeRejected:
		return "rejected"
	default:
		return "failed"
	}
}

// Result is the event returned to the view layer after a submit.
type Result struct {
	Outcome  Outcome
	Identity Identity
	Err      error
}

// Notification is a transient message shown on top of the active view.
type Notification struct {
	Title  string
	Detail string
	Error  bool
}

// ViewModel is a snapshot of everything the rendering surface needs.
type ViewModel struct {
	View           View
	Principal      *Identity
	Username       string // value of the username field
	FocusUsername  bool
	FailureVisible bool
	FailureMessage string
	SubmitEnabled  bool
	Notification   *Notification
}

// IsMain reports whether the main panel is active.
func (m ViewModel) IsMain() bool { return m.View == ViewMain }

// SessionViewController owns the LOGIN/MAIN toggle of one session.
// It is not safe for concurrent use; each request builds its own.
type SessionViewController struct {
	auth  AuthService
	state SessionState

	failureVisible bool
	submitEnabled  bool
	focusUsername  bool
	username       string
	notification   *Notification
}

// NewSessionViewController starts from an externally supplied session state.
// An already authenticated state renders MAIN directly.
func NewSessionViewController(auth AuthService, state SessionState) *SessionViewController {
	if state.View() != ViewMain {
		state = SessionState{}
	}
	return &SessionViewController{
		auth:          auth,
		state:         state,
		submitEnabled: true,
		focusUsername: state.View() == ViewLogin,
	}
}

// State returns the current session authentication state.
func (c *SessionViewController) State() SessionState {
	return c.state
}

// Submit validates ev and transitions ANONYMOUS -> AUTHENTICATED on success.
// The submit control is re-enabled on every path.
func (c *SessionViewController) Submit(ctx context.Context, ev SubmitEvent) Result {
	c.submitEnabled = false
	defer func() { c.submitEnabled = true }()

	if c.state.View() == ViewMain {
		return Result{Outcome: OutcomeAuthenticated, Identity: *c.state.Principal}
	}
	c.notification = nil

	identity, err := c.authenticate(ctx, ev)
	switch {
	case err == nil:
		c.state = SessionState{Authenticated: true, Principal: &identity}
		c.failureVisible = false
		c.focusUsername = false
		c.username = ""
		return Result{Outcome: OutcomeAuthenticated, Identity: identity}
	case errors.Is(err, ErrInvalidCredentials):
		c.failureVisible = true
		c.focusUsername = true
		c.username = ev.Username
		return Result{Outcome: OutcomeRejected, Err: err}
	default:
		log.Printf("%s username=%q: %v", unexpectedErrorLogText, ev.Username, err)
		c.notification = &Notification{Title: unexpectedErrorTitle, Detail: err.Error(), Error: true}
		c.username = ev.Username
		return Result{Outcome: OutcomeFailed, Err: err}
	}
}

// authenticate shields the controller from a panicking validator.
func (c *SessionViewController) authenticate(ctx context.Context, ev SubmitEvent) (identity Identity, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("authentication panicked: %v", r)
		}
	}()
	return c.auth.Authenticate(ctx, ev.Username, ev.Password)
}

// Logout returns to LOGIN and clears the principal and the failure indicator.
// The caller discards the backing session.
func (c *SessionViewController) Logout() {
	c.state = SessionState{}
	c.failureVisible = false
	c.focusUsername = true
	c.username = ""
	c.notification = nil
	c.submitEnabled = true
}

// WhoAmI shows the principal's username as a notification.
func (c *SessionViewController) WhoAmI() (string, bool) {
	if c.state.View() != ViewMain {
		return "", false
	}
	name := c.state.Principal.Username
	c.notification = &Notification{Title: name}
	return name, true
}

// View returns what to render now.
func (c *SessionViewController) View() ViewModel {
	m := ViewModel{
		View:          c.state.View(),
		SubmitEnabled: c.submitEnabled,
		Notification:  c.notification,
	}
	if m.View == ViewMain {
		p := *c.state.Principal
		p.Roles = cloneRoles(p.Roles)
		m.Principal = &p
		return m
	}
	m.Username = c.username
	m.FocusUsername = c.focusUsername
	m.FailureVisible = c.failureVisible
	if c.failureVisible {
		m.FailureMessage = loginFailedMessage
	}
	return m
}
