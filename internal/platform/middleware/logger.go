package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careboard/careboard/internal/platform/authz"
	"github.com/careboard/careboard/internal/platform/db"
)

// Logger emits one structured line per request. Identity and tenant fields
// are included when the upstream middleware resolved them, so a single log
// line answers who did what against which hospital.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			err := next(c)

			// Downstream middleware swaps in a request whose context
			// carries identity and tenant; read the final one.
			ctx := c.Request().Context()

			evt := logger.Info()
			if err != nil {
				evt = logger.Error().Err(err)
			}
			if rid, ok := c.Get("request_id").(string); ok {
				evt = evt.Str("request_id", rid)
			}
			if tenant := db.TenantFromContext(ctx); tenant != "" {
				evt = evt.Str("tenant", tenant)
			}
			if ident, ok := authz.IdentityFromContext(ctx); ok {
				evt = evt.Str("user_id", ident.UserID).Str("role", string(ident.Role))
			}

			evt.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}
