package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/leadbook/internal/middleware"
	"github.com/iliyamo/leadbook/internal/model"
	"github.com/iliyamo/leadbook/internal/query"
	"github.com/iliyamo/leadbook/internal/service"
)

// LeadHandler serves /api/leads.  Every route sits behind SessionAuth and
// takes the owner from the verified identity only.
type LeadHandler struct {
	Leads *service.LeadService
	// Loc is the zone calendar-day filters are computed in.
	Loc *time.Location
}

func NewLeadHandler(leads *service.LeadService, loc *time.Location) *LeadHandler {
	if loc == nil {
		loc = time.Local
	}
	return &LeadHandler{Leads: leads, Loc: loc}
}

func caller(c echo.Context) (model.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return model.Identity{}, service.ErrUnauthenticated
	}
	return id, nil
}

// Create handles POST /api/leads.
func (h *LeadHandler) Create(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var in service.LeadInput
	if err := c.Bind(&in); err != nil {
		return errBadBody
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	l, err := h.Leads.Create(ctx, id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Lead created successfully", "lead": l})
}

// List handles GET /api/leads with filters and pagination.
func (h *LeadHandler) List(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	q := query.Parse(c.QueryParams(), id.UserID, h.Loc)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	page, err := h.Leads.List(ctx, id, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// Get handles GET /api/leads/:id.
func (h *LeadHandler) Get(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	l, err := h.Leads.Get(ctx, id, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"lead": l})
}

// Update handles PUT /api/leads/:id; absent fields stay unchanged.
func (h *LeadHandler) Update(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	var in service.LeadUpdateInput
	if err := c.Bind(&in); err != nil {
		return errBadBody
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	l, err := h.Leads.Update(ctx, id, c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Lead updated successfully", "lead": l})
}

// Delete handles DELETE /api/leads/:id.
func (h *LeadHandler) Delete(c echo.Context) error {
	id, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Leads.Delete(ctx, id, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Lead deleted successfully"})
}
