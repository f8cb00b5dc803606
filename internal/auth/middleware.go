package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	SessionCookie = "admin_session"
	SessionHeader = "X-Session-Token"

	CtxSessionToken = "session_token"
)

// TokenFromRequest reads the session token from the header or the cookie.
func TokenFromRequest(c *gin.Context) string {
	if token := strings.TrimSpace(c.GetHeader(SessionHeader)); token != "" {
		return token
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return strings.TrimSpace(cookie)
	}
	return ""
}

// RequireSession rejects requests without a live operator session. API
// callers get a 401 JSON body; browsers asking for HTML are sent to loginPath.
func RequireSession(store SessionStore, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)

		ok := false
		if token != "" {
			valid, err := store.Valid(c.Request.Context(), token)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
					"ok":    false,
					"error": "session store unavailable",
				})
				return
			}
			ok = valid
		}

		if !ok {
			if loginPath != "" && strings.Contains(c.GetHeader("Accept"), "text/html") {
				c.Redirect(http.StatusSeeOther, loginPath)
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"ok":    false,
				"error": "login required",
			})
			return
		}

		c.Set(CtxSessionToken, token)
		c.Next()
	}
}

// SessionToken returns the token stored by RequireSession.
func SessionToken(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxSessionToken))
}
