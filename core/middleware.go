package core

import (
	"crypto/rand"
	"encoding/base64"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const sessionName = "login_session"
const defaultSessionMaxAge = 18000 // 5h

const (
	csrfHeader    = "X-CSRF-Token"
	csrfFormField = "csrf_token"
)

// SessionMiddleware ensures a session exists and applies consistent cookie options.
// An unreadable session (tampered cookie, rotated key, expired server entry)
// is replaced by a fresh anonymous one.
func SessionMiddleware(cfg Config, store sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := store.Get(c.Request, sessionName)
		if err != nil {
			if session == nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "session error")
				c.Abort()
				return
			}
			log.Printf("discarding unreadable session: %v", err)
			session.Values = map[interface{}]interface{}{}
			session.IsNew = true
		}

		applySessionOptions(cfg, session)
		// Save to ensure options are persisted even for anonymous users.
		if err := session.Save(c.Request, c.Writer); err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to persist session")
			c.Abort()
			return
		}

		c.Set("session", session)
		c.Next()
	}
}

// OriginRefererMiddleware validates Origin/Referer against allowed list and sets CORS headers.
// Same-host requests are always allowed.
func OriginRefererMiddleware(cfg Config) gin.HandlerFunc {
	allowed := map[string]struct{}{}
	for _, o := range cfg.AllowedOrigins {
		allowed[strings.ToLower(o)] = struct{}{}
	}

	isAllowed := func(origin, host string) bool {
		if origin == "" {
			// Same-origin navigation (no Origin header) is allowed.
			return true
		}
		if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, host) {
			return true
		}
		_, ok := allowed[strings.ToLower(origin)]
		return ok
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		referer := c.GetHeader("Referer")
		if origin == "" && referer != "" {
			if u, err := url.Parse(referer); err == nil {
				origin = u.Scheme + "://" + u.Host
			}
		}

		// Preflight handling
		if c.Request.Method == http.MethodOptions && origin != "" {
			if !isAllowed(origin, c.Request.Host) {
				respondError(c, http.StatusForbidden, "FORBIDDEN", "origin not allowed")
				c.Abort()
				return
			}
			setCORSHeaders(c, origin)
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}

		if !isAllowed(origin, c.Request.Host) {
			respondError(c, http.StatusForbidden, "FORBIDDEN", "origin not allowed")
			c.Abort()
			return
		}
		if origin != "" {
			setCORSHeaders(c, origin)
		}
		c.Next()
	}
}

func setCORSHeaders(c *gin.Context, origin string) {
	c.Header("Access-Control-Allow-Origin", origin)
	c.Header("Vary", "Origin")
	c.Header("Access-Control-Allow-Credentials", "true")
	c.Header("Access-Control-Allow-Headers", "Content-Type, X-CSRF-Token")
	c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
}

// CSRFMiddleware issues and validates a per-session CSRF token.
// The token is accepted from the X-CSRF-Token header or the csrf_token form field.
func CSRFMiddleware(cfg Config, store sessions.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := sessionFrom(c)
		if !ok {
			var err error
			session, err = store.Get(c.Request, sessionName)
			if err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "session error")
				c.Abort()
				return
			}
		}

		token, _ := session.Values[sessionKeyCSRF].(string)
		if token == "" {
			var err error
			token, err = issueCSRFToken(c, cfg, session)
			if err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to issue csrf token")
				c.Abort()
				return
			}
		}

		if !isSafeMethod(c.Request.Method) && !csrfExemptPath(c.Request.URL.Path) {
			submitted := c.GetHeader(csrfHeader)
			if submitted == "" {
				submitted = c.PostForm(csrfFormField)
			}
			if submitted == "" || submitted != token {
				respondError(c, http.StatusForbidden, "FORBIDDEN", "invalid csrf token")
				c.Abort()
				return
			}
		}

		// Expose token so frontend can read and reuse.
		c.Writer.Header().Set(csrfHeader, token)
		c.Set(csrfFormField, token)
		c.Next()
	}
}

// issueCSRFToken stores a fresh token in session, saves it and exposes it on the response.
func issueCSRFToken(c *gin.Context, cfg Config, session *sessions.Session) (string, error) {
	token, err := generateCSRFToken()
	if err != nil {
		return "", err
	}
	session.Values[sessionKeyCSRF] = token
	applySessionOptions(cfg, session)
	if err := session.Save(c.Request, c.Writer); err != nil {
		return "", err
	}
	c.Writer.Header().Set(csrfHeader, token)
	c.Set(csrfFormField, token)
	return token, nil
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}

// Paths that intentionally skip CSRF validation (e.g., JSON login).
func csrfExemptPath(path string) bool {
	switch path {
	case "/api/v1/auth/login":
		return true
	default:
		return false
	}
}

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func applySessionOptions(cfg Config, session *sessions.Session) {
	if session.Options == nil {
		session.Options = &sessions.Options{}
	}
	maxAge := cfg.SessionMaxAge
	if maxAge <= 0 {
		maxAge = defaultSessionMaxAge
	}
	session.Options.Path = "/"
	session.Options.MaxAge = maxAge
	session.Options.HttpOnly = true
	session.Options.Secure = cfg.CookieSecure
	session.Options.SameSite = sameSiteFromString(cfg.CookieSameSite)
}

func sameSiteFromString(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}
