package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stayloop/pms/internal/ari"
	"github.com/stayloop/pms/internal/middleware"
	"github.com/stayloop/pms/internal/repository"
	"github.com/stayloop/pms/internal/service"
)

// QuoteHandler prices stays ahead of booking.  The returned token is the
// pricing signature the booking endpoint later verifies.
type QuoteHandler struct {
	RoomTypeRepo *repository.RoomTypeRepo
	Quotes       *service.QuoteService
}

// NewQuoteHandler constructs a QuoteHandler.
func NewQuoteHandler(roomTypes *repository.RoomTypeRepo, quotes *service.QuoteService) *QuoteHandler {
	if roomTypes == nil || quotes == nil {
		panic("nil dependency passed to NewQuoteHandler")
	}
	return &QuoteHandler{RoomTypeRepo: roomTypes, Quotes: quotes}
}

// CreateQuote handles POST /v1/quotes.  It resolves the nightly rate for
// every night of the stay (synthesizing derived amounts when no explicit
// row exists), enforces sell restrictions, and returns a signed quote the
// caller must present when booking.
func (h *QuoteHandler) CreateQuote(c echo.Context) error {
	rc, ok := middleware.RequestScope(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "missing property scope"})
	}
	var body struct {
		RoomTypeCode string `json:"roomTypeCode"`
		RatePlanCode string `json:"ratePlanCode"`
		CheckIn      string `json:"checkIn"`
		CheckOut     string `json:"checkOut"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "invalid request body"})
	}
	if body.RoomTypeCode == "" || body.RatePlanCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "roomTypeCode and ratePlanCode are required"})
	}
	checkIn, err := ari.ParseDate(body.CheckIn)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "checkIn must be YYYY-MM-DD"})
	}
	checkOut, err := ari.ParseDate(body.CheckOut)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "checkOut must be YYYY-MM-DD"})
	}
	if ari.Nights(checkIn, checkOut) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "checkOut must be after checkIn"})
	}

	ctx := c.Request().Context()
	rt, err := h.RoomTypeRepo.GetByCode(ctx, rc.PropertyID, body.RoomTypeCode)
	if err != nil {
		return writeError(c, err)
	}
	quote, err := h.Quotes.BuildQuote(ctx, rc, rt, body.RatePlanCode, checkIn, checkOut)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, quote)
}
