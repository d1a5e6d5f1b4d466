package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stayloop/pms/internal/ari"
	"github.com/stayloop/pms/internal/middleware"
	"github.com/stayloop/pms/internal/repository"
	"github.com/stayloop/pms/internal/service"
)

// BookingHandler exposes the guest-facing booking endpoint.  All booking
// semantics live in the saga; the handler only shapes the request and the
// response.
type BookingHandler struct {
	RoomTypeRepo *repository.RoomTypeRepo
	Saga         *service.BookingSaga
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(roomTypes *repository.RoomTypeRepo, saga *service.BookingSaga) *BookingHandler {
	if roomTypes == nil || saga == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{RoomTypeRepo: roomTypes, Saga: saga}
}

// Book handles POST /v1/bookings.  Retrying with the same idempotency key
// replays the original result instead of creating a second reservation.
func (h *BookingHandler) Book(c echo.Context) error {
	rc, ok := middleware.RequestScope(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "missing property scope"})
	}
	var body struct {
		IdempotencyKey string `json:"idempotencyKey"`
		Quote          struct {
			Token    string  `json:"token"`
			Total    float64 `json:"total"`
			Currency string  `json:"currency"`
		} `json:"quote"`
		Stay struct {
			RoomTypeCode string `json:"roomTypeCode"`
			RatePlanCode string `json:"ratePlanCode"`
			CheckIn      string `json:"checkIn"`
			CheckOut     string `json:"checkOut"`
			Quantity     int    `json:"quantity"`
			Adults       int    `json:"adults"`
			Children     int    `json:"children"`
		} `json:"stay"`
		Guests []service.GuestInput `json:"guests"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "invalid request body"})
	}
	if body.IdempotencyKey == "" {
		body.IdempotencyKey = c.Request().Header.Get("Idempotency-Key")
	}
	if body.IdempotencyKey == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "idempotencyKey is required"})
	}
	if body.Quote.Token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "quote.token is required"})
	}
	if body.Stay.RoomTypeCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "stay.roomTypeCode is required"})
	}
	checkIn, err := ari.ParseDate(body.Stay.CheckIn)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "stay.checkIn must be YYYY-MM-DD"})
	}
	checkOut, err := ari.ParseDate(body.Stay.CheckOut)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "stay.checkOut must be YYYY-MM-DD"})
	}
	if ari.Nights(checkIn, checkOut) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "stay.checkOut must be after stay.checkIn"})
	}

	ctx := c.Request().Context()
	rt, err := h.RoomTypeRepo.GetByCode(ctx, rc.PropertyID, body.Stay.RoomTypeCode)
	if err != nil {
		return writeError(c, err)
	}

	result, err := h.Saga.Book(ctx, service.BookingRequest{
		Context:        rc,
		IdempotencyKey: body.IdempotencyKey,
		RoomTypeID:     rt.ID,
		RatePlanCode:   body.Stay.RatePlanCode,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		Quantity:       body.Stay.Quantity,
		Adults:         body.Stay.Adults,
		Children:       body.Stay.Children,
		QuoteToken:     body.Quote.Token,
		TotalAmount:    body.Quote.Total,
		Currency:       body.Quote.Currency,
		Guests:         body.Guests,
	})
	if err != nil {
		// Failures keep the saga envelope so callers always read
		// success/state/error from one shape.
		status, code, message := classify(err)
		if message == "" {
			message = err.Error()
		}
		state := service.SagaStateFailed
		if result != nil {
			state = result.State
		}
		return c.JSON(status, echo.Map{
			"success": false,
			"state":   state,
			"error":   code,
			"message": message,
		})
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	return c.JSON(status, echo.Map{
		"success":       true,
		"state":         result.State,
		"reservationId": result.ReservationID,
		"pnr":           result.PNR,
		"replayed":      result.Replayed,
	})
}
