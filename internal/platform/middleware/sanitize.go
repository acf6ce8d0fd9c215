package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"unicode"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// maxHeaderValue caps any single header value.
const maxHeaderValue = 8 << 10

var (
	// sqlProbe flags common injection probes. Parameterized queries are the
	// real defense; matches are logged, not blocked, so a patient named
	// O'Brien never gets a 400.
	sqlProbe = regexp.MustCompile(`(?i)('+\s*;\s*DROP\b|UNION\s+SELECT\b|'\s+OR\s+1\s*=\s*1|1\s*=\s*1)`)

	// scriptProbe flags markup that has no business in a query string of a
	// JSON API. These are blocked.
	scriptProbe = regexp.MustCompile(`(?i)(<script|javascript\s*:|on\w+\s*=)`)
)

// Sanitize rejects requests with malformed or hostile paths, headers, and
// query strings before any handler runs.
func Sanitize() echo.MiddlewareFunc {
	return SanitizeWithLogger(zerolog.Nop())
}

// SanitizeWithLogger is Sanitize with a logger for the non-blocking
// SQL-probe warnings.
func SanitizeWithLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			if reason := checkPath(req.URL.Path, req.URL.RawPath); reason != "" {
				return reject(c, reason)
			}
			if reason := checkHeaders(req.Header); reason != "" {
				return reject(c, reason)
			}
			if reason := checkQuery(c, logger); reason != "" {
				return reject(c, reason)
			}

			return next(c)
		}
	}
}

func checkPath(path, rawPath string) string {
	if rawPath == "" {
		rawPath = path
	}
	if hasTraversal(path) || hasTraversal(rawPath) {
		return "path traversal detected"
	}
	if hasNullByte(path) || hasNullByte(rawPath) {
		return "null byte injection detected"
	}
	return ""
}

func checkHeaders(h http.Header) string {
	for name, values := range h {
		for _, v := range values {
			if len(v) > maxHeaderValue {
				return "header value exceeds maximum size: " + name
			}
			if strings.ContainsAny(v, "\r\n") {
				return "header injection detected: " + name
			}
		}
	}
	return ""
}

func checkQuery(c echo.Context, logger zerolog.Logger) string {
	for key, values := range c.Request().URL.Query() {
		if hasNullByte(key) {
			return "null byte injection detected in query parameter"
		}
		if scriptProbe.MatchString(key) {
			return "script injection detected in query parameter"
		}
		for _, v := range values {
			if hasNullByte(v) {
				return "null byte injection detected in query parameter"
			}
			if scriptProbe.MatchString(v) {
				return "script injection detected in query parameter"
			}
			if sqlProbe.MatchString(v) {
				logger.Warn().
					Str("param", key).
					Str("path", c.Request().URL.Path).
					Str("remote_ip", c.RealIP()).
					Msg("sql injection pattern in query parameter")
			}
		}
	}
	return ""
}

// hasTraversal reports ".." in raw, single, or double percent-encoded form.
func hasTraversal(s string) bool {
	if strings.Contains(s, "..") {
		return true
	}
	lower := strings.ToLower(s)
	return strings.Contains(lower, "%2e%2e") || strings.Contains(lower, "%252e")
}

func hasNullByte(s string) bool {
	return strings.ContainsRune(s, '\x00') || strings.Contains(strings.ToLower(s), "%00")
}

func reject(c echo.Context, reason string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": reason})
}

// SanitizeString strips null bytes and control characters (keeping \n, \r,
// \t) and trims surrounding whitespace. Handlers apply it to free-text
// fields such as alert descriptions before storing them.
func SanitizeString(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r == '\x00' || (unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t') {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
