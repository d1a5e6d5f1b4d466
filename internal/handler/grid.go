package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stayloop/pms/internal/ari"
	"github.com/stayloop/pms/internal/middleware"
	"github.com/stayloop/pms/internal/model"
)

// Grid handles GET /v1/ari/grid?roomTypeCode=DLX&from=...&to=...  It returns
// the calendar view one admin screen renders: inventory, explicit rates and
// restrictions per date.  Dates with no row are simply absent; derived rates
// with no stored row are synthesized by the quote path, not here.
func (h *AriHandler) Grid(c echo.Context) error {
	rc, ok := middleware.RequestScope(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "missing property scope"})
	}
	code := c.QueryParam("roomTypeCode")
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "roomTypeCode is required"})
	}
	from, to, ok := parseRange(dateRange{From: c.QueryParam("from"), To: c.QueryParam("to")})
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "from and to must be valid YYYY-MM-DD dates with from <= to"})
	}

	ctx := c.Request().Context()
	rt, err := h.RoomTypeRepo.GetByCode(ctx, rc.PropertyID, code)
	if err != nil {
		return writeError(c, err)
	}
	inventory, err := h.InventoryRepo.ListRange(ctx, rc.PropertyID, rt.ID, from, to)
	if err != nil {
		return writeError(c, err)
	}
	rates, err := h.RateRepo.ListForDate(ctx, rc.PropertyID, rt.ID, from, to)
	if err != nil {
		return writeError(c, err)
	}
	restrictions, err := h.RestrictionRepo.ListRange(ctx, rc.PropertyID, rt.ID, from, to)
	if err != nil {
		return writeError(c, err)
	}

	invOut := make([]echo.Map, 0, len(inventory))
	for _, row := range inventory {
		m := echo.Map{
			"date":      row.StayDate.Format(ari.DateLayout),
			"total":     row.Total,
			"available": row.Available,
			"booked":    row.Booked,
		}
		if row.Price != nil {
			m["price"] = *row.Price
		}
		invOut = append(invOut, m)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"roomTypeCode": rt.Code,
		"dateRange":    dateRange{From: c.QueryParam("from"), To: c.QueryParam("to")},
		"inventory":    invOut,
		"rates":        ratesOut(rates),
		"restrictions": restrictionsOut(restrictions),
	})
}

func ratesOut(rates []model.Rate) []echo.Map {
	out := make([]echo.Map, 0, len(rates))
	for _, r := range rates {
		out = append(out, echo.Map{
			"date":             r.StayDate.Format(ari.DateLayout),
			"ratePlanCode":     r.RatePlanCode,
			"amount":           r.Amount,
			"isManualOverride": r.IsManualOverride,
		})
	}
	return out
}

func restrictionsOut(restrictions []model.Restriction) []echo.Map {
	out := make([]echo.Map, 0, len(restrictions))
	for _, rs := range restrictions {
		out = append(out, echo.Map{
			"date":              rs.StayDate.Format(ari.DateLayout),
			"ratePlanCode":      rs.RatePlanCode,
			"minLOS":            rs.MinLOS,
			"maxLOS":            rs.MaxLOS,
			"closedToArrival":   rs.ClosedToArrival,
			"closedToDeparture": rs.ClosedToDeparture,
			"closed":            rs.Closed,
		})
	}
	return out
}
