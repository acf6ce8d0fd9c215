package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/careboard/careboard/internal/platform/authz"
)

// Middleware authenticates requests: it validates the session token, looks
// the caller's role up in the staff store, and places the resolved identity
// on the request context for the permission middleware and handlers.
//
// Public paths (health, login, assets) skip it entirely. Dashboard paths
// are resolved best-effort: a missing or invalid session is left for the
// route guard to turn into a login redirect. Everything else is the API,
// where a bad session is a hard 401; a role-store failure is also a 401
// rather than a silently empty role.
func Middleware(parser *Parser, roles authz.RoleStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if authz.Exempt(path) {
				return next(c)
			}
			dashboard := strings.HasPrefix(path, "/dashboard")

			claims, err := parser.ResolveClaims(c.Request())
			if err != nil {
				if dashboard {
					return next(c)
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			role, err := roles.RoleOf(c.Request().Context(), claims.Subject)
			if err != nil {
				if dashboard {
					return next(c)
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			ctx := authz.ContextWithIdentity(c.Request().Context(), authz.Identity{
				UserID: claims.Subject,
				Role:   role,
			})
			c.SetRequest(c.Request().WithContext(ctx))
			if claims.TenantID != "" {
				c.Set("session_tenant_id", claims.TenantID)
			}
			return next(c)
		}
	}
}

// DevMiddleware is a permissive stand-in for development: requests without
// credentials get an admin identity so every screen is reachable locally.
func DevMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := authz.IdentityFromContext(c.Request().Context()); !ok {
				ctx := authz.ContextWithIdentity(c.Request().Context(), authz.Identity{
					UserID: "dev-user",
					Role:   authz.RoleAdmin,
				})
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}
