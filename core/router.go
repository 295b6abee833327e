package core

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

// NewRouter constructs the Gin engine with routes wired.
// metrics may be nil when sessions are not kept in Redis.
func NewRouter(cfg Config, store sessions.Store, authService AuthService, metrics *MetricsService) *gin.Engine {
	startedAt := time.Now()
	r := gin.Default()
	r.SetHTMLTemplate(loadTemplates())

	// Global middleware: origin/CORS only. Operational endpoints stay sessionless
	// so probes do not create server-side sessions.
	r.Use(OriginRefererMiddleware(cfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/api/v1/system/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, CollectSystemStatus(c.Request.Context(), cfg, metrics, startedAt))
	})

	// Session-bound routes: session -> CSRF
	app := r.Group("/", SessionMiddleware(cfg, store), CSRFMiddleware(cfg, store))

	app.GET("/", func(c *gin.Context) {
		sess, _ := sessionFrom(c)
		ctrl := NewSessionViewController(authService, LoadSessionState(sess))
		renderPage(c, cfg, http.StatusOK, ctrl.View())
	})

	app.POST("/login", func(c *gin.Context) {
		sess, _ := sessionFrom(c)
		ctrl := NewSessionViewController(authService, LoadSessionState(sess))
		res := ctrl.Submit(c.Request.Context(), SubmitEvent{
			Username: c.PostForm("username"),
			Password: c.PostForm("password"),
		})
		switch res.Outcome {
		case OutcomeAuthenticated:
			if err := rotateSession(c, cfg, sess, ctrl.State()); err != nil {
				log.Printf("failed to store session for %q: %v", res.Identity.Username, err)
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to set session")
				return
			}
			c.Redirect(http.StatusSeeOther, "/")
		case OutcomeRejected:
			renderPage(c, cfg, http.StatusUnauthorized, ctrl.View())
		default:
			renderPage(c, cfg, http.StatusInternalServerError, ctrl.View())
		}
	})

	app.POST("/logout", func(c *gin.Context) {
		sess, _ := sessionFrom(c)
		ctrl := NewSessionViewController(authService, LoadSessionState(sess))
		ctrl.Logout()
		if err := discardSession(c, cfg, sess); err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to clear session")
			return
		}
		c.Redirect(http.StatusSeeOther, "/")
	})

	app.POST("/whoami", func(c *gin.Context) {
		sess, _ := sessionFrom(c)
		ctrl := NewSessionViewController(authService, LoadSessionState(sess))
		if _, ok := ctrl.WhoAmI(); !ok {
			c.Redirect(http.StatusSeeOther, "/")
			return
		}
		renderPage(c, cfg, http.StatusOK, ctrl.View())
	})

	api := app.Group("/api/v1")
	{
		api.POST("/auth/login", func(c *gin.Context) {
			var req struct {
				Username string `json:"username"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
				return
			}

			sess, _ := sessionFrom(c)
			ctrl := NewSessionViewController(authService, LoadSessionState(sess))
			res := ctrl.Submit(c.Request.Context(), SubmitEvent{Username: req.Username, Password: req.Password})
			switch res.Outcome {
			case OutcomeAuthenticated:
				if err := rotateSession(c, cfg, sess, ctrl.State()); err != nil {
					log.Printf("failed to store session for %q: %v", res.Identity.Username, err)
					respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to set session")
					return
				}
				c.JSON(http.StatusOK, gin.H{"view": ViewMain, "user": identityJSON(res.Identity)})
			case OutcomeRejected:
				respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", loginFailedMessage)
			default:
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", unexpectedErrorTitle)
			}
		})

		api.POST("/auth/logout", func(c *gin.Context) {
			sess, _ := sessionFrom(c)
			ctrl := NewSessionViewController(authService, LoadSessionState(sess))
			ctrl.Logout()
			if err := discardSession(c, cfg, sess); err != nil {
				respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to clear session")
				return
			}
			c.Status(http.StatusNoContent)
		})

		api.GET("/session", func(c *gin.Context) {
			sess, _ := sessionFrom(c)
			vm := NewSessionViewController(authService, LoadSessionState(sess)).View()
			body := gin.H{"view": vm.View, "authenticated": vm.IsMain(), "user": nil}
			if vm.Principal != nil {
				body["user"] = identityJSON(*vm.Principal)
			}
			c.JSON(http.StatusOK, body)
		})
	}

	return r
}

func renderPage(c *gin.Context, cfg Config, status int, vm ViewModel) {
	token := c.GetString(csrfFormField)
	c.HTML(status, "page.html", pageData{ViewModel: vm, Title: cfg.AppTitle, CSRFToken: token})
}

// rotateSession replaces session values with state and issues a fresh CSRF token.
func rotateSession(c *gin.Context, cfg Config, sess *sessions.Session, state SessionState) error {
	StoreSessionState(sess, state)
	_, err := issueCSRFToken(c, cfg, sess)
	return err
}

// discardSession clears all values and expires the session cookie.
func discardSession(c *gin.Context, cfg Config, sess *sessions.Session) error {
	sess.Values = map[interface{}]interface{}{}
	applySessionOptions(cfg, sess)
	sess.Options.MaxAge = -1 // Must be set AFTER applySessionOptions to properly delete cookie
	return sess.Save(c.Request, c.Writer)
}
