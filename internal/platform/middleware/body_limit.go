package middleware

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const defaultBodyLimit = 1 << 20 // 1 MiB

// BodyLimit caps request body size. The size is given as "512K", "1M", or
// "2G"; a bare number means bytes and an unparseable value falls back to
// 1 MiB. Oversized requests get a 413, either up front from Content-Length
// or mid-read when the declared length was a lie.
func BodyLimit(size string) echo.MiddlewareFunc {
	limit := parseSize(size)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}

			if req.ContentLength > limit {
				return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{
					"error": fmt.Sprintf("request body exceeds maximum allowed size of %d bytes", limit),
				})
			}

			req.Body = &cappedBody{inner: req.Body, left: limit}
			return next(c)
		}
	}
}

// cappedBody errors once more than left bytes have been read. It reads one
// byte past the cap so an exactly-at-limit body still succeeds.
type cappedBody struct {
	inner io.ReadCloser
	left  int64
	over  bool
}

func (b *cappedBody) Read(p []byte) (int, error) {
	if b.over {
		return 0, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
	}
	if max := b.left + 1; int64(len(p)) > max {
		p = p[:max]
	}
	n, err := b.inner.Read(p)
	b.left -= int64(n)
	if b.left < 0 {
		b.over = true
		return 0, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
	}
	return n, err
}

func (b *cappedBody) Close() error { return b.inner.Close() }

var sizeSuffixes = []struct {
	suffix string
	factor int64
}{
	{"GB", 1 << 30}, {"G", 1 << 30},
	{"MB", 1 << 20}, {"M", 1 << 20},
	{"KB", 1 << 10}, {"K", 1 << 10},
}

func parseSize(s string) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return defaultBodyLimit
	}

	var factor int64 = 1
	for _, sf := range sizeSuffixes {
		if strings.HasSuffix(s, sf.suffix) {
			factor = sf.factor
			s = strings.TrimSuffix(s, sf.suffix)
			break
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return defaultBodyLimit
	}
	return n * factor
}
