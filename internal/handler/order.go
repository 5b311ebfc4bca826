package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/conference-registration/internal/command"
	"github.com/iliyamo/conference-registration/internal/conference"
	"github.com/iliyamo/conference-registration/internal/event"
	"github.com/iliyamo/conference-registration/internal/readmodel"
	"github.com/iliyamo/conference-registration/internal/worker"
)

// Publisher is the slice of the bus the registration handlers need.
type Publisher interface {
	PublishCommand(ctx context.Context, cmd command.Command) error
	PublishEvents(ctx context.Context, aggregateType string, events []event.Versioned) error
}

// OrderHandler serves the registrant-facing order endpoints.  Every write
// is asynchronous: the handler validates the request, publishes a command
// and answers 202 with the order id; the draft view catches up once the
// workers have run.
type OrderHandler struct {
	Bus    Publisher
	Reader *conference.CachedReader
	Drafts *readmodel.DraftOrderProjector
}

// NewOrderHandler constructs the handler.
func NewOrderHandler(bus Publisher, reader *conference.CachedReader, drafts *readmodel.DraftOrderProjector) *OrderHandler {
	return &OrderHandler{Bus: bus, Reader: reader, Drafts: drafts}
}

type seatLine struct {
	SeatType string `json:"seat_type"`
	Quantity int    `json:"quantity"`
}

func toSeatQuantities(lines []seatLine) []event.SeatQuantity {
	out := make([]event.SeatQuantity, 0, len(lines))
	for _, l := range lines {
		out = append(out, event.SeatQuantity{SeatType: l.SeatType, Quantity: l.Quantity})
	}
	return out
}

func validLines(lines []seatLine) bool {
	if len(lines) == 0 {
		return false
	}
	for _, l := range lines {
		if l.SeatType == "" || l.Quantity <= 0 {
			return false
		}
	}
	return true
}

// PlaceOrder handles POST /v1/orders.
func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	var body struct {
		ConferenceSlug string     `json:"conference_slug"`
		Seats          []seatLine `json:"seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !validLines(body.Seats) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one seat line with a positive quantity is required"})
	}

	conf, err := h.Reader.GetBySlug(c.Request().Context(), body.ConferenceSlug)
	if err != nil {
		if errors.Is(err, conference.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "conference not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	orderID := uuid.NewString()
	cmd := command.RegisterToConference{
		Header:       command.Header{ID: uuid.NewString()},
		OrderID:      orderID,
		ConferenceID: conf.ID,
		Seats:        toSeatQuantities(body.Seats),
	}
	if err := h.Bus.PublishCommand(c.Request().Context(), cmd); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "order could not be accepted"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"order_id": orderID})
}

// UpdateSeats handles PUT /v1/orders/:id/seats.
func (h *OrderHandler) UpdateSeats(c echo.Context) error {
	orderID := c.Param("id")
	var body struct {
		Seats []seatLine `json:"seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !validLines(body.Seats) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one seat line with a positive quantity is required"})
	}

	draft, err := h.Drafts.Get(c.Request().Context(), orderID)
	if err != nil {
		if errors.Is(err, readmodel.ErrViewMissing) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if draft.State == "confirmed" || draft.State == "expired" {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order is closed"})
	}

	cmd := command.RegisterToConference{
		Header:       command.Header{ID: uuid.NewString()},
		OrderID:      orderID,
		ConferenceID: draft.ConferenceID,
		Seats:        toSeatQuantities(body.Seats),
	}
	if err := h.Bus.PublishCommand(c.Request().Context(), cmd); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "update could not be accepted"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"order_id": orderID})
}

// GetOrder handles GET /v1/orders/:id.
func (h *OrderHandler) GetOrder(c echo.Context) error {
	draft, err := h.Drafts.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, readmodel.ErrViewMissing) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, draft)
}

// AssignRegistrant handles PUT /v1/orders/:id/registrant.
func (h *OrderHandler) AssignRegistrant(c echo.Context) error {
	orderID := c.Param("id")
	var body struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}
	if _, err := h.Drafts.Get(c.Request().Context(), orderID); err != nil {
		if errors.Is(err, readmodel.ErrViewMissing) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	cmd := command.AssignRegistrantDetails{
		Header:    command.Header{ID: uuid.NewString()},
		OrderID:   orderID,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Email:     body.Email,
	}
	if err := h.Bus.PublishCommand(c.Request().Context(), cmd); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "update could not be accepted"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"order_id": orderID})
}

// Confirm handles POST /v1/orders/:id/confirm.
func (h *OrderHandler) Confirm(c echo.Context) error {
	orderID := c.Param("id")
	draft, err := h.Drafts.Get(c.Request().Context(), orderID)
	if err != nil {
		if errors.Is(err, readmodel.ErrViewMissing) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if draft.State != "partially_reserved" && draft.State != "reservation_completed" {
		return c.JSON(http.StatusConflict, echo.Map{"error": "order has no acknowledged reservation"})
	}

	cmd := command.ConfirmOrder{Header: command.Header{ID: uuid.NewString()}, OrderID: orderID}
	if err := h.Bus.PublishCommand(c.Request().Context(), cmd); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "confirmation could not be accepted"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"order_id": orderID})
}

// Payment handles POST /v1/orders/:id/payment.  There is no real payment
// processor wired up; the endpoint emits the PaymentCompleted event the
// processor's webhook would produce, and the saga takes it from there.
func (h *OrderHandler) Payment(c echo.Context) error {
	orderID := c.Param("id")
	if _, err := h.Drafts.Get(c.Request().Context(), orderID); err != nil {
		if errors.Is(err, readmodel.ErrViewMissing) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}

	evt := event.Versioned{
		SourceID: orderID,
		Version:  1,
		Payload:  event.PaymentCompleted{OrderID: orderID},
	}
	if err := h.Bus.PublishEvents(c.Request().Context(), event.AggregatePayment, []event.Versioned{evt}); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "payment could not be recorded"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"order_id": orderID})
}

// AssignSeat handles PUT /v1/orders/:id/seat-assignments/:position.
func (h *OrderHandler) AssignSeat(c echo.Context) error {
	orderID := c.Param("id")
	position, err := strconv.Atoi(c.Param("position"))
	if err != nil || position < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid position"})
	}
	var body struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}

	cmd := command.AssignSeat{
		Header:        command.Header{ID: uuid.NewString()},
		AssignmentsID: worker.AssignmentsIDFor(orderID),
		Position:      position,
		Attendee: event.Attendee{
			FirstName: body.FirstName,
			LastName:  body.LastName,
			Email:     body.Email,
		},
	}
	if err := h.Bus.PublishCommand(c.Request().Context(), cmd); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "assignment could not be accepted"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"order_id": orderID, "position": position})
}

// UnassignSeat handles DELETE /v1/orders/:id/seat-assignments/:position.
func (h *OrderHandler) UnassignSeat(c echo.Context) error {
	orderID := c.Param("id")
	position, err := strconv.Atoi(c.Param("position"))
	if err != nil || position < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid position"})
	}

	cmd := command.UnassignSeat{
		Header:        command.Header{ID: uuid.NewString()},
		AssignmentsID: worker.AssignmentsIDFor(orderID),
		Position:      position,
	}
	if err := h.Bus.PublishCommand(c.Request().Context(), cmd); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "unassignment could not be accepted"})
	}
	return c.NoContent(http.StatusAccepted)
}
