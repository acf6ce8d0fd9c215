package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/careboard/careboard/internal/platform/authz"
)

// SessionCookie is the cookie the login flow sets for browser sessions.
// API clients send the same token as a bearer header instead.
const SessionCookie = "careboard_session"

// Claims are the JWT claims carried by a session token. The role is
// deliberately NOT a claim: it is looked up from the staff store on every
// request so that a role change takes effect without re-issuing tokens.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenant_id"`
}

// SessionConfig configures token validation.
type SessionConfig struct {
	Issuer   string
	Audience string
	JWKSURL  string
	// SigningKey enables HMAC validation for development and tests.
	SigningKey []byte
}

// Parser validates session tokens. It implements authz.SessionResolver.
type Parser struct {
	cfg     SessionConfig
	keyFunc jwt.Keyfunc
}

// NewParser builds a Parser. With a SigningKey set tokens are validated with
// HMAC; otherwise keys are fetched from the JWKS endpoint and cached.
func NewParser(cfg SessionConfig) *Parser {
	p := &Parser{cfg: cfg}
	if len(cfg.SigningKey) > 0 {
		p.keyFunc = func(t *jwt.Token) (interface{}, error) {
			return cfg.SigningKey, nil
		}
	} else {
		p.keyFunc = jwksKeyFunc(cfg.JWKSURL)
	}
	return p
}

// ResolveSession extracts and validates the session token from a request and
// returns the subject. authz.ErrNoSession is returned when the request
// carries no token at all; any other error means the token was present but
// invalid.
func (p *Parser) ResolveSession(r *http.Request) (string, error) {
	claims, err := p.ResolveClaims(r)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// ResolveClaims is ResolveSession with the full claim set, for callers that
// need more than the subject (the tenant middleware reads the tenant claim).
func (p *Parser) ResolveClaims(r *http.Request) (*Claims, error) {
	tokenStr := tokenFromRequest(r)
	if tokenStr == "" {
		return nil, authz.ErrNoSession
	}

	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "HS256"}),
	}
	if p.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.cfg.Issuer))
	}
	if p.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(p.cfg.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenStr, claims, p.keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("invalid session token")
	}
	return claims, nil
}

// tokenFromRequest prefers the bearer header, falling back to the session
// cookie so both API clients and browsers work.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
