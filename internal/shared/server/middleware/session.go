package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "rav_session"

const sessionIDKey = "sessionId"

// SessionOptions configures the Session middleware.
type SessionOptions struct {
	// MaxAge is the cookie lifetime, renewed on every request. Zero leaves it a
	// browser-session cookie.
	MaxAge time.Duration
	Secure bool
	// Limiter and NewSessionRule throttle new sessions per client IP.
	Limiter        *RateLimiter
	NewSessionRule RateLimitRule
}

// Session ensures every request carries a session id, issuing a fresh cookie
// when the request has none or an unparseable one. A request over the
// new-session limit gets 429 and no cookie.
func Session(opts SessionOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ""
		if raw, err := c.Cookie(SessionCookie); err == nil {
			if parsed, perr := uuid.Parse(strings.TrimSpace(raw)); perr == nil {
				id = parsed.String()
			}
		}
		switch {
		case id == "":
			if allowed, retryAfter := opts.Limiter.Allow(clientPrincipal(c), GroupSession, opts.NewSessionRule); !allowed {
				abortRateLimited(c, GroupSession, retryAfter)
				return
			}
			id = uuid.NewString()
			setSessionCookie(c, id, opts)
		case opts.MaxAge > 0:
			setSessionCookie(c, id, opts)
		}
		c.Set(sessionIDKey, id)
		c.Next()
	}
}

func setSessionCookie(c *gin.Context, id string, opts SessionOptions) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, int(opts.MaxAge/time.Second), "/", "", opts.Secure, true)
}

// SessionIDFromContext fetches the session ID set by the Session middleware.
func SessionIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(sessionIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
