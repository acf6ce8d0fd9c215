package middleware

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestSecurityHeaders_SetsEveryHeader(t *testing.T) {
	rec, err := run(t, SecurityHeaders(), okHandler, nil)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	for _, kv := range securityHeaders {
		if got := rec.Header().Get(kv[0]); got != kv[1] {
			t.Errorf("%s = %q, want %q", kv[0], got, kv[1])
		}
	}
}

func TestSecurityHeaders_SetEvenOnHandlerError(t *testing.T) {
	rec, err := run(t, SecurityHeaders(), func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}, nil)
	if err == nil {
		t.Fatal("expected handler error to propagate")
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Error("headers must be present on error responses too")
	}
}
