package alert

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careboard/careboard/internal/platform/authz"
	"github.com/careboard/careboard/internal/platform/middleware"
	"github.com/careboard/careboard/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group, policy *authz.Policy) {
	read := api.Group("", authz.RequirePermission(policy, authz.PermViewAlerts))
	read.GET("/alerts", h.List)
	read.GET("/alerts/:id", h.Get)

	api.POST("/alerts", h.Create,
		authz.RequirePermission(policy, authz.PermCreateAlerts))

	manage := api.Group("", authz.RequirePermission(policy, authz.PermManageAlerts))
	manage.PUT("/alerts/:id", h.Update)
	manage.DELETE("/alerts/:id", h.Delete)
	manage.POST("/alerts/:id/acknowledge", h.Acknowledge)
	manage.POST("/alerts/:id/resolve", h.Resolve)
}

func (h *Handler) Create(c echo.Context) error {
	var a Alert
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	scrubText(&a)
	if a.CreatedBy == uuid.Nil {
		if ident, ok := authz.IdentityFromContext(c.Request().Context()); ok {
			if id, err := uuid.Parse(ident.UserID); err == nil {
				a.CreatedBy = id
			}
		}
	}
	if err := h.svc.Create(c.Request().Context(), &a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

// scrubText cleans the free-text fields; titles and descriptions come
// straight from operator input.
func scrubText(a *Alert) {
	a.Title = middleware.SanitizeString(a.Title)
	if a.Description != nil {
		d := middleware.SanitizeString(*a.Description)
		a.Description = &d
	}
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var a Alert
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	scrubText(&a)
	a.ID = id
	if err := h.svc.Update(c.Request().Context(), &a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(),
		c.QueryParam("status"), c.QueryParam("severity"), p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) Acknowledge(c echo.Context) error {
	return h.transition(c, h.svc.Acknowledge)
}

func (h *Handler) Resolve(c echo.Context) error {
	return h.transition(c, h.svc.Resolve)
}

func (h *Handler) transition(c echo.Context, fn func(ctx context.Context, id, userID uuid.UUID) (*Alert, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ident, ok := authz.IdentityFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	userID, err := uuid.Parse(ident.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	a, err := fn(c.Request().Context(), id, userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, a)
}
