package authz

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ErrNoSession is returned by a SessionResolver when the request carries no
// credentials at all (as opposed to carrying invalid ones).
var ErrNoSession = errors.New("authz: no session")

// SessionResolver resolves a request's credentials into a user id. The
// concrete implementation lives in the auth package; the guard only needs
// the subject.
type SessionResolver interface {
	ResolveSession(r *http.Request) (userID string, err error)
}

// RoleStore looks up the role recorded for a user. Returning an empty role
// with a nil error means the user exists but has no recognized role; the
// guard treats that as least privilege, not as a failure.
type RoleStore interface {
	RoleOf(ctx context.Context, userID string) (Role, error)
}

// Reason classifies why a request was redirected.
type Reason int

const (
	ReasonUnauthenticated Reason = iota
	ReasonUnauthorized
)

// Decision is the guard's verdict for one request. Exactly one of Allow or a
// redirect applies.
type Decision struct {
	Allow      bool
	RedirectTo string
	Reason     Reason
}

// GuardConfig wires the route guard's collaborators. All fields are required
// except Logger.
type GuardConfig struct {
	Table     *RouteTable
	Sessions  SessionResolver
	Roles     RoleStore
	LoginPath string
	Logger    zerolog.Logger
}

// exemptPrefixes lists paths that bypass the guard entirely. These are
// checked before any session or role lookup so asset and health traffic
// never touches the identity backend.
var exemptPrefixes = []string{
	"/health",
	"/metrics",
	"/auth",
	"/static",
	"/assets",
	"/favicon.ico",
}

// Exempt reports whether the path skips authorization.
func Exempt(path string) bool {
	for _, prefix := range exemptPrefixes {
		if matchPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Decide is the pure authorization decision for an already-resolved
// identity. authenticated=false yields a login redirect carrying the
// original path; an authenticated role outside its allow-list is sent to the
// landing page. Decide performs no I/O, so it is testable without a server.
func Decide(table *RouteTable, loginPath, path string, authenticated bool, role Role) Decision {
	if !authenticated {
		return Decision{
			RedirectTo: loginPath + "?redirect=" + url.QueryEscape(path),
			Reason:     ReasonUnauthenticated,
		}
	}
	if table.Authorized(role, path) {
		return Decision{Allow: true}
	}
	return Decision{
		RedirectTo: table.Landing(),
		Reason:     ReasonUnauthorized,
	}
}

// Guard returns middleware enforcing the route access table on the dashboard
// area. Each request is classified independently: resolve the session,
// resolve the role, then apply the pure decision. Any failure in either
// lookup is treated as unauthenticated; the guard never fails open.
func Guard(cfg GuardConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if Exempt(path) || !strings.HasPrefix(path, "/dashboard") {
				return next(c)
			}

			userID, err := cfg.Sessions.ResolveSession(c.Request())
			if err != nil {
				if !errors.Is(err, ErrNoSession) {
					cfg.Logger.Warn().Err(err).Str("path", path).Msg("session resolution failed, treating as unauthenticated")
				}
				d := Decide(cfg.Table, cfg.LoginPath, path, false, "")
				return c.Redirect(http.StatusFound, d.RedirectTo)
			}

			role, err := cfg.Roles.RoleOf(c.Request().Context(), userID)
			if err != nil {
				// Role backend unavailable. Failing open here is the one
				// dangerous bug class this guard exists to prevent.
				cfg.Logger.Error().Err(err).Str("user_id", userID).Msg("role lookup failed, treating as unauthenticated")
				d := Decide(cfg.Table, cfg.LoginPath, path, false, "")
				return c.Redirect(http.StatusFound, d.RedirectTo)
			}

			d := Decide(cfg.Table, cfg.LoginPath, path, true, role)
			if d.Allow {
				// Dashboard handlers read the identity the guard resolved.
				ctx := ContextWithIdentity(c.Request().Context(), Identity{UserID: userID, Role: role})
				c.SetRequest(c.Request().WithContext(ctx))
				return next(c)
			}
			cfg.Logger.Info().
				Str("user_id", userID).
				Str("role", string(role)).
				Str("path", path).
				Msg("redirecting unauthorized dashboard request")
			return c.Redirect(http.StatusFound, d.RedirectTo)
		}
	}
}

// RequirePermission returns middleware that rejects API requests whose
// caller's role lacks the permission. It reads the identity placed on the
// request context by the auth middleware; unlike the dashboard guard, API
// clients get a 403 rather than a redirect.
func RequirePermission(policy *Policy, perm Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident, ok := IdentityFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !policy.HasPermission(ident.Role, perm) {
				return echo.NewHTTPError(http.StatusForbidden, "required permission: "+string(perm))
			}
			return next(c)
		}
	}
}

// RequireAnyPermission is RequirePermission for endpoints reachable through
// more than one capability.
func RequireAnyPermission(policy *Policy, perms ...Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ident, ok := IdentityFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !policy.HasAnyPermission(ident.Role, perms) {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient permissions")
			}
			return next(c)
		}
	}
}
