package core

import (
	"strings"

	"github.com/gorilla/sessions"
)

// View is the panel currently shown to the user.
type View string

const (
	ViewLogin View = "LOGIN"
	ViewMain  View = "MAIN"
)

const (
	sessionKeyUserID = "userid"
	sessionKeyRoles  = "roles"
	sessionKeyCSRF   = "csrf_token"
)

// SessionState is the authentication state owned by a single session.
type SessionState struct {
	Authenticated bool
	Principal     *Identity
}

// View derives the active panel: MAIN if and only if the session is authenticated.
func (s SessionState) View() View {
	if s.Authenticated && s.Principal != nil {
		return ViewMain
	}
	return ViewLogin
}

// LoadSessionState reads the authentication state stored in sess.
// A missing or blank user id means the session is anonymous.
func LoadSessionState(sess *sessions.Session) SessionState {
	if sess == nil {
		return SessionState{}
	}
	userid, _ := sess.Values[sessionKeyUserID].(string)
	if strings.TrimSpace(userid) == "" {
		return SessionState{}
	}
	roles, _ := sess.Values[sessionKeyRoles].(string)
	parsed := parseCSV(roles)
	if parsed == nil {
		parsed = []string{}
	}
	return SessionState{
		Authenticated: true,
		Principal:     &Identity{Username: userid, Roles: parsed},
	}
}

// StoreSessionState replaces all session values with state (simple rotation).
func StoreSessionState(sess *sessions.Session, state SessionState) {
	sess.Values = map[interface{}]interface{}{}
	if state.View() != ViewMain {
		return
	}
	sess.Values[sessionKeyUserID] = state.Principal.Username
	sess.Values[sessionKeyRoles] = strings.Join(state.Principal.Roles, ",")
}
