package handler

import (
	"errors"   // for errors.Is comparisons
	"net/http" // HTTP status codes
	"time"     // parsing show start times

	"github.com/labstack/echo/v4"                                   // Echo web framework
	"github.com/quickshow/movie-ticket-booking/internal/model"      // domain models
	"github.com/quickshow/movie-ticket-booking/internal/repository" // repository layer
)

// AdminHandler bundles the show-catalogue management endpoints.  All
// methods assume the ADMIN role has already been enforced by
// middleware.
type AdminHandler struct {
	ShowRepo *repository.ShowRepo // access to shows
}

// NewAdminHandler constructs an AdminHandler and panics if the
// repository is nil.
func NewAdminHandler(showRepo *repository.ShowRepo) *AdminHandler {
	if showRepo == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{ShowRepo: showRepo}
}

// CreateShow handles POST /v1/admin/shows.  The request body must
// contain a title, an RFC3339 "starts_at" in the future and a positive
// "base_price_cents".  Section prices are optional; a section price of
// zero falls back to the base price.  Returns 201 Created with the new
// show.
func (h *AdminHandler) CreateShow(c echo.Context) error {
	var body struct {
		Title             string `json:"title"`
		StartsAt          string `json:"starts_at"`
		BasePriceCents    uint32 `json:"base_price_cents"`
		PremiumPriceCents uint32 `json:"premium_price_cents"`
		GoldPriceCents    uint32 `json:"gold_price_cents"`
		SilverPriceCents  uint32 `json:"silver_price_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title is required"})
	}
	startsAt, err := time.Parse(time.RFC3339, body.StartsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC3339"})
	}
	startsAt = startsAt.UTC()
	if !startsAt.After(time.Now().UTC()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be in the future"})
	}
	if body.BasePriceCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "base_price_cents must be positive"})
	}
	show := &model.Show{
		Title:             body.Title,
		StartsAt:          startsAt,
		BasePriceCents:    body.BasePriceCents,
		PremiumPriceCents: body.PremiumPriceCents,
		GoldPriceCents:    body.GoldPriceCents,
		SilverPriceCents:  body.SilverPriceCents,
	}
	if err := h.ShowRepo.Create(c.Request().Context(), show); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create show"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": publicShow(show)})
}

// DeleteShow handles DELETE /v1/admin/shows/:id.  It removes a show
// together with its unpaid bookings and occupancy rows.  A show with
// at least one paid booking cannot be deleted and returns 409.
func (h *AdminHandler) DeleteShow(c echo.Context) error {
	showID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	if err := h.ShowRepo.Delete(c.Request().Context(), showID); err != nil {
		switch {
		case errors.Is(err, repository.ErrShowNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "show has paid bookings"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete show"})
	}
	return c.NoContent(http.StatusNoContent)
}
