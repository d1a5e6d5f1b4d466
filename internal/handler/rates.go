package handler

import (
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stayloop/pms/internal/ari"
	"github.com/stayloop/pms/internal/middleware"
	"github.com/stayloop/pms/internal/model"
	"github.com/stayloop/pms/internal/service"
)

// UpdateRates handles POST /v1/ari/rates.  The caller either supplies one
// baseRate applied to every date in the range, or an explicit per-date list.
// Each write goes through the cascade engine, so derived plans are
// recomputed for every touched date and manual overrides stay untouched.
// When the targeted plan is the root plan the amount is also cached on the
// inventory row as the date's sell price.
func (h *AriHandler) UpdateRates(c echo.Context) error {
	rc, ok := middleware.RequestScope(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "missing property scope"})
	}
	var body struct {
		RoomTypeCode string    `json:"roomTypeCode"`
		RatePlanCode string    `json:"ratePlanCode"`
		DateRange    dateRange `json:"dateRange"`
		BaseRate     *float64  `json:"baseRate"`
		Rates        []struct {
			Date  string  `json:"date"`
			Price float64 `json:"price"`
		} `json:"rates"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "invalid request body"})
	}
	if body.RoomTypeCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "roomTypeCode is required"})
	}
	if (body.BaseRate == nil) == (len(body.Rates) == 0) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "supply either baseRate or a rates list, not both"})
	}
	from, to, ok := parseRange(body.DateRange)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "dateRange must be valid YYYY-MM-DD dates with from <= to"})
	}

	// Flatten both input shapes into per-date prices within the range.
	prices := map[time.Time]float64{}
	if body.BaseRate != nil {
		if *body.BaseRate < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "baseRate must not be negative"})
		}
		for _, date := range ari.DatesBetween(from, to) {
			prices[date] = *body.BaseRate
		}
	} else {
		for _, entry := range body.Rates {
			date, err := ari.ParseDate(entry.Date)
			if err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "rates entries must carry valid YYYY-MM-DD dates"})
			}
			if date.Before(from) || date.After(to) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "rates entries must fall inside dateRange"})
			}
			if entry.Price < 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "prices must not be negative"})
			}
			prices[date] = entry.Price
		}
	}
	if len(prices) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "no dates to update"})
	}

	ctx := c.Request().Context()
	rt, err := h.RoomTypeRepo.GetByCode(ctx, rc.PropertyID, body.RoomTypeCode)
	if err != nil {
		return writeError(c, err)
	}
	var plan *model.RatePlan
	if body.RatePlanCode != "" {
		plan, err = h.RatePlanRepo.GetByCode(ctx, rc.PropertyID, body.RatePlanCode)
	} else {
		plan, err = h.RatePlanRepo.GetRoot(ctx, rc.PropertyID)
	}
	if err != nil {
		return writeError(c, err)
	}

	tx, err := h.RoomTypeRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return writeError(c, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	physical, err := h.RoomTypeRepo.PhysicalCountTx(ctx, tx, rc.PropertyID, rt.ID)
	if err != nil {
		return writeError(c, err)
	}

	var appended []*model.AriEvent
	sum := 0.0
	for date, price := range prices {
		evs, err := h.Cascade.ApplyRateChange(ctx, tx, rc, rt.ID, date, plan, price)
		if err != nil {
			return writeError(c, err)
		}
		appended = append(appended, evs...)
		sum += price
		if !plan.IsDerived() {
			if err := h.InventoryRepo.UpsertPriceTx(ctx, tx, rc.PropertyID, rt.ID, date, physical, price); err != nil {
				return writeError(c, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return writeError(c, err)
	}
	committed = true
	for _, ev := range appended {
		_ = service.PublishAriEvent(ctx, ev)
	}
	updated := len(appended)

	avg := math.Round(sum/float64(len(prices))*100) / 100
	return c.JSON(http.StatusOK, echo.Map{
		"updated":      updated,
		"roomTypeCode": rt.Code,
		"dateRange":    body.DateRange,
		"avgRate":      avg,
	})
}
