package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-registration/internal/command"
	"github.com/iliyamo/conference-registration/internal/conference"
	"github.com/iliyamo/conference-registration/internal/utils"
)

// OwnerHandler serves conference management.  All mutations on seat
// quotas fan out commands to the availability aggregate so the inventory
// the registrants reserve against stays in step with the catalog.
type OwnerHandler struct {
	Repo        *conference.Repo
	Cache       *conference.CachedReader
	Bus         Publisher
	JWTSecret   string
	TokenTTLMin int
	BcryptCost  int
}

// NewOwnerHandler constructs the handler.
func NewOwnerHandler(repo *conference.Repo, cache *conference.CachedReader, bus Publisher, jwtSecret string, tokenTTLMin, bcryptCost int) *OwnerHandler {
	return &OwnerHandler{
		Repo:        repo,
		Cache:       cache,
		Bus:         bus,
		JWTSecret:   jwtSecret,
		TokenTTLMin: tokenTTLMin,
		BcryptCost:  bcryptCost,
	}
}

// conferenceID returns the conference the owner token is scoped to.
func conferenceID(c echo.Context) (string, bool) {
	id, ok := c.Get("conference_id").(string)
	return id, ok && id != ""
}

// CreateConference handles POST /v1/conferences.  The response carries
// the generated access code exactly once; it cannot be recovered later.
func (h *OwnerHandler) CreateConference(c echo.Context) error {
	var body struct {
		Slug        string `json:"slug"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Location    string `json:"location"`
		OwnerName   string `json:"owner_name"`
		OwnerEmail  string `json:"owner_email"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Slug = strings.TrimSpace(strings.ToLower(body.Slug))
	body.Name = strings.TrimSpace(body.Name)
	if body.Slug == "" || body.Name == "" || body.OwnerEmail == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug, name and owner_email are required"})
	}

	accessCode, err := utils.NewAccessCode()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not generate access code"})
	}
	hash, err := utils.HashAccessCode(accessCode, h.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not hash access code"})
	}

	conf := &conference.Conference{
		ID:             uuid.NewString(),
		Slug:           body.Slug,
		Name:           body.Name,
		Description:    body.Description,
		Location:       body.Location,
		OwnerName:      body.OwnerName,
		OwnerEmail:     body.OwnerEmail,
		AccessCodeHash: hash,
	}
	if err := h.Repo.Create(c.Request().Context(), conf); err != nil {
		if errors.Is(err, conference.ErrSlugTaken) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "slug already taken"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create conference"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"conference": conf, "access_code": accessCode})
}

// Locate handles POST /v1/conferences/locate: the access-code exchange
// that yields a conference-scoped owner token.
func (h *OwnerHandler) Locate(c echo.Context) error {
	var body struct {
		Slug       string `json:"slug"`
		OwnerEmail string `json:"owner_email"`
		AccessCode string `json:"access_code"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	conf, err := h.Repo.GetBySlug(c.Request().Context(), strings.TrimSpace(strings.ToLower(body.Slug)))
	if err != nil {
		if errors.Is(err, conference.ErrNotFound) {
			// Same answer as a wrong code so slugs cannot be probed.
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if !strings.EqualFold(conf.OwnerEmail, body.OwnerEmail) || !utils.VerifyAccessCode(conf.AccessCodeHash, body.AccessCode) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := utils.NewOwnerToken(h.JWTSecret, conf.ID, h.TokenTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token.Token, "expires_at": token.Exp})
}

// UpdateConference handles PUT /v1/owner/conference.
func (h *OwnerHandler) UpdateConference(c echo.Context) error {
	id, ok := conferenceID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Location    string `json:"location"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(body.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	conf, err := h.Repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, conference.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "conference not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	conf.Name = strings.TrimSpace(body.Name)
	conf.Description = body.Description
	conf.Location = body.Location
	if err := h.Repo.Update(c.Request().Context(), conf); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.Cache.Invalidate(c.Request().Context(), conf.ID, conf.Slug)
	return c.JSON(http.StatusOK, conf)
}

// Publish handles POST /v1/owner/conference/publish.
func (h *OwnerHandler) Publish(c echo.Context) error {
	id, ok := conferenceID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Published bool `json:"published"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	conf, err := h.Repo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, conference.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "conference not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if err := h.Repo.SetPublished(c.Request().Context(), id, body.Published); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.Cache.Invalidate(c.Request().Context(), conf.ID, conf.Slug)
	return c.JSON(http.StatusOK, echo.Map{"published": body.Published})
}

// CreateSeatType handles POST /v1/owner/seat-types.  The new quota is
// pushed to the availability aggregate as an AddSeats command.
func (h *OwnerHandler) CreateSeatType(c echo.Context) error {
	id, ok := conferenceID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Quantity    int    `json:"quantity"`
		PriceCents  int64  `json:"price_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" || body.Quantity <= 0 || body.PriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, a positive quantity and a non-negative price are required"})
	}
	if _, err := h.Repo.GetSeatType(c.Request().Context(), id, body.Name); err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat type already exists"})
	} else if !errors.Is(err, conference.ErrNotFound) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	st := &conference.SeatType{
		ConferenceID: id,
		Name:         body.Name,
		Description:  body.Description,
		Quantity:     body.Quantity,
		PriceCents:   body.PriceCents,
	}
	if err := h.Repo.UpsertSeatType(c.Request().Context(), st); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create seat type"})
	}
	cmd := command.AddSeats{
		Header:       command.Header{ID: uuid.NewString()},
		ConferenceID: id,
		SeatType:     st.Name,
		Quantity:     st.Quantity,
	}
	if err := h.Bus.PublishCommand(c.Request().Context(), cmd); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "seat type stored but inventory update not accepted"})
	}
	h.Cache.Invalidate(c.Request().Context(), id, "")
	return c.JSON(http.StatusCreated, st)
}

// UpdateSeatType handles PUT /v1/owner/seat-types/:name.  A quota change
// fans out AddSeats or RemoveSeats for the difference.
func (h *OwnerHandler) UpdateSeatType(c echo.Context) error {
	id, ok := conferenceID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	name := c.Param("name")
	var body struct {
		Description string `json:"description"`
		Quantity    int    `json:"quantity"`
		PriceCents  int64  `json:"price_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Quantity <= 0 || body.PriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "a positive quantity and a non-negative price are required"})
	}

	existing, err := h.Repo.GetSeatType(c.Request().Context(), id, name)
	if err != nil {
		if errors.Is(err, conference.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat type not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	st := &conference.SeatType{
		ConferenceID: id,
		Name:         name,
		Description:  body.Description,
		Quantity:     body.Quantity,
		PriceCents:   body.PriceCents,
	}
	if err := h.Repo.UpsertSeatType(c.Request().Context(), st); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	if delta := body.Quantity - existing.Quantity; delta != 0 {
		var cmd command.Command
		if delta > 0 {
			cmd = command.AddSeats{
				Header:       command.Header{ID: uuid.NewString()},
				ConferenceID: id,
				SeatType:     name,
				Quantity:     delta,
			}
		} else {
			cmd = command.RemoveSeats{
				Header:       command.Header{ID: uuid.NewString()},
				ConferenceID: id,
				SeatType:     name,
				Quantity:     -delta,
			}
		}
		if err := h.Bus.PublishCommand(c.Request().Context(), cmd); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "seat type stored but inventory update not accepted"})
		}
	}
	h.Cache.Invalidate(c.Request().Context(), id, "")
	return c.JSON(http.StatusOK, st)
}
