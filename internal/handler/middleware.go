package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/unrolled/secure"

	"github.com/maxviazov/cve-catalog-service/pkg/response"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestLogger assigns a request id (or keeps the caller's) and writes one
// access log line per request once the handler chain has finished.
func RequestLogger(base zerolog.Logger) gin.HandlerFunc {
	l := base.With().Str("module", "http").Str("component", "access").Logger()
	return func(c *gin.Context) {
		start := time.Now()
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case status >= http.StatusInternalServerError:
			ev = l.Error()
		case status >= http.StatusBadRequest:
			ev = l.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Str("request_id", id).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("query", c.Request.URL.RawQuery).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Str("ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// Recovery turns a panic into a 500 with the usual error envelope and logs the stack.
func Recovery(base zerolog.Logger) gin.HandlerFunc {
	l := base.With().Str("module", "http").Str("component", "recovery").Logger()
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		l.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("handler panicked")
		status, payload := response.MapError(errPanic)
		c.AbortWithStatusJSON(status, payload)
	})
}

var errPanic = &panicError{}

type panicError struct{}

func (*panicError) Error() string { return "handler panicked" }

const (
	apiCSP  = "default-src 'self'; frame-ancestors 'none'"
	docsCSP = "default-src 'self'; script-src 'self' 'unsafe-inline' https://unpkg.com; style-src 'self' https://unpkg.com; img-src 'self' data:"
)

func secureOptions(csp string) secure.Options {
	return secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: csp,
		STSSeconds:            15552000,
		STSIncludeSubdomains:  true,
		ForceSTSHeader:        true,
	}
}

// SecurityHeaders sets the baseline hardening headers on every response.
// /docs pulls Swagger UI from a CDN and gets its own CSP.
func SecurityHeaders() gin.HandlerFunc {
	api := secure.New(secureOptions(apiCSP))
	docs := secure.New(secureOptions(docsCSP))

	return func(c *gin.Context) {
		s := api
		if c.Request.URL.Path == DocsPath {
			s = docs
		}
		if err := s.Process(c.Writer, c.Request); err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		h := c.Writer.Header()
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Cross-Origin-Resource-Policy", "same-origin")
		h.Set("X-DNS-Prefetch-Control", "off")
		h.Del("X-Powered-By")
		c.Next()
	}
}
