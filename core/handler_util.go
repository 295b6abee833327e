package core

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

// respondError sends unified error payload {"error": {"code", "message"}}.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

// sessionFrom returns the session stored by SessionMiddleware.
func sessionFrom(c *gin.Context) (*sessions.Session, bool) {
	sessionAny, ok := c.Get("session")
	if !ok {
		return nil, false
	}
	sess, _ := sessionAny.(*sessions.Session)
	return sess, sess != nil
}

func identityJSON(id Identity) gin.H {
	roles := id.Roles
	if roles == nil {
		roles = []string{}
	}
	return gin.H{"username": id.Username, "roles": roles}
}
