package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-analyzer-web/internal/shared/metrics"
	"resume-analyzer-web/internal/shared/server/respond"
	"resume-analyzer-web/internal/shared/telemetry"
)

const panicPage = `<!DOCTYPE html>
<html lang="en"><head><meta charset="utf-8"><title>Resume Analyzer</title></head>
<body><h1>Something went wrong</h1><p>Reload the page to try again. Reference: %s</p></body></html>
`

// Recovery turns a handler panic into a 500. Browsers get a short page with the
// request id; API clients get the error envelope. The session survives.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			reqID := RequestIDFromContext(c)
			metrics.IncPanics()
			telemetry.Error("panic", map[string]any{
				"request_id": reqID,
				"session_id": SessionIDFromContext(c),
				"error":      rec,
				"stack":      string(debug.Stack()),
				"path":       c.Request.URL.Path,
				"method":     c.Request.Method,
			})
			if c.Writer.Written() {
				c.Abort()
				return
			}
			if strings.Contains(c.GetHeader("Accept"), "text/html") {
				c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte(fmt.Sprintf(panicPage, reqID)))
				c.Abort()
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal", "Unexpected server error", nil)
			c.Abort()
		}()
		c.Next()
	}
}
