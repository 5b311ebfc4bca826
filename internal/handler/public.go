package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-registration/internal/conference"
	"github.com/iliyamo/conference-registration/internal/readmodel"
)

// PublicHandler serves the unauthenticated browse endpoints.
type PublicHandler struct {
	Repo   *conference.Repo
	Reader *conference.CachedReader
	Seats  *readmodel.ConferenceSeatsProjector
}

// NewPublicHandler constructs the handler.
func NewPublicHandler(repo *conference.Repo, reader *conference.CachedReader, seats *readmodel.ConferenceSeatsProjector) *PublicHandler {
	return &PublicHandler{Repo: repo, Reader: reader, Seats: seats}
}

// publicConference is the sanitized projection of a conference for
// unauthenticated callers.
type publicConference struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// ListConferences handles GET /v1/conferences.
func (h *PublicHandler) ListConferences(c echo.Context) error {
	items, err := h.Repo.ListPublished(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]publicConference, 0, len(items))
	for _, conf := range items {
		out = append(out, publicConference{
			Slug:        conf.Slug,
			Name:        conf.Name,
			Description: conf.Description,
			Location:    conf.Location,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetConference handles GET /v1/conferences/:slug.
func (h *PublicHandler) GetConference(c echo.Context) error {
	conf, err := h.Reader.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, conference.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "conference not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, publicConference{
		Slug:        conf.Slug,
		Name:        conf.Name,
		Description: conf.Description,
		Location:    conf.Location,
	})
}

// seatTypeView merges the catalog row of a seat type with the remaining
// count from the availability view.
type seatTypeView struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
	Quantity    int    `json:"quantity"`
	Remaining   int    `json:"remaining"`
}

// GetConferenceSeats handles GET /v1/conferences/:slug/seats.
func (h *PublicHandler) GetConferenceSeats(c echo.Context) error {
	ctx := c.Request().Context()
	conf, err := h.Reader.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		if errors.Is(err, conference.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "conference not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	types, err := h.Reader.SeatTypes(ctx, conf.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	counts, err := h.Seats.Remaining(ctx, conf.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	remaining := make(map[string]int, len(counts))
	for _, sc := range counts {
		remaining[sc.SeatType] = sc.Remaining
	}

	out := make([]seatTypeView, 0, len(types))
	for _, st := range types {
		out = append(out, seatTypeView{
			Name:        st.Name,
			Description: st.Description,
			PriceCents:  st.PriceCents,
			Quantity:    st.Quantity,
			Remaining:   remaining[st.Name],
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
