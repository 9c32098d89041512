package handler

import (
	"errors"   // for errors.Is comparisons
	"net/http" // HTTP status codes
	"time"     // response timestamps

	"github.com/labstack/echo/v4"                                   // Echo web framework
	"github.com/quickshow/movie-ticket-booking/internal/model"      // domain models
	"github.com/quickshow/movie-ticket-booking/internal/repository" // repository layer
)

// ShowHandler serves the public, unauthenticated show catalogue.
type ShowHandler struct {
	ShowRepo *repository.ShowRepo // access to shows
}

// NewShowHandler constructs a ShowHandler and panics if the repository
// is nil.
func NewShowHandler(showRepo *repository.ShowRepo) *ShowHandler {
	if showRepo == nil {
		panic("nil repository passed to NewShowHandler")
	}
	return &ShowHandler{ShowRepo: showRepo}
}

// PublicShow is the JSON shape for catalogue responses.
type PublicShow struct {
	ID                uint64    `json:"id"`
	Title             string    `json:"title"`
	StartsAt          time.Time `json:"starts_at"`
	BasePriceCents    uint32    `json:"base_price_cents"`
	PremiumPriceCents uint32    `json:"premium_price_cents"`
	GoldPriceCents    uint32    `json:"gold_price_cents"`
	SilverPriceCents  uint32    `json:"silver_price_cents"`
}

func publicShow(s *model.Show) PublicShow {
	return PublicShow{
		ID:                s.ID,
		Title:             s.Title,
		StartsAt:          s.StartsAt,
		BasePriceCents:    s.BasePriceCents,
		PremiumPriceCents: s.PremiumPriceCents,
		GoldPriceCents:    s.GoldPriceCents,
		SilverPriceCents:  s.SilverPriceCents,
	}
}

// ListShows handles GET /v1/shows.  It returns upcoming shows ordered
// by start time.  Shows that have already started are not listed.
func (h *ShowHandler) ListShows(c echo.Context) error {
	shows, err := h.ShowRepo.ListUpcoming(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load shows"})
	}
	out := make([]PublicShow, 0, len(shows))
	for i := range shows {
		out = append(out, publicShow(&shows[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetShow handles GET /v1/shows/:id.  It returns a single show or 404
// when it does not exist.
func (h *ShowHandler) GetShow(c echo.Context) error {
	showID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	show, err := h.ShowRepo.GetByID(c.Request().Context(), showID)
	if err != nil {
		if errors.Is(err, repository.ErrShowNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load show"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": publicShow(show)})
}
