package roster

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rafaelminatto1/dudufisio-api/internal/platform/auth"
	"github.com/rafaelminatto1/dudufisio-api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "therapist", "receptionist"))
	readGroup.GET("/practitioners", h.List)
	readGroup.GET("/practitioners/:id", h.Get)

	writeGroup := api.Group("", auth.RequireRole("admin"))
	writeGroup.POST("/practitioners", h.Create)
	writeGroup.PUT("/practitioners/:id", h.Update)
}

func (h *Handler) Create(c echo.Context) error {
	var p Practitioner
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.OrgID = auth.OrgIDFromContext(c.Request().Context())
	if err := h.svc.CreatePractitioner(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	org := auth.OrgIDFromContext(c.Request().Context())
	p, err := h.svc.GetPractitioner(c.Request().Context(), org, id)
	if err != nil {
		if errors.Is(err, ErrPractitionerNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "practitioner not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	org := auth.OrgIDFromContext(c.Request().Context())
	items, total, err := h.svc.ListPractitioners(c.Request().Context(), org, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Practitioner
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	p.OrgID = auth.OrgIDFromContext(c.Request().Context())
	if err := h.svc.UpdatePractitioner(c.Request().Context(), &p); err != nil {
		if errors.Is(err, ErrPractitionerNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "practitioner not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}
