package handler

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stayloop/pms/internal/ari"
	"github.com/stayloop/pms/internal/middleware"
	"github.com/stayloop/pms/internal/model"
	"github.com/stayloop/pms/internal/repository"
	"github.com/stayloop/pms/internal/service"
)

// UpdateCell handles POST /v1/ari/cell: a single (roomType, date, plan)
// edit as issued by calendar-grid widgets.  The field name selects one of a
// closed set of setters; nothing from the request is ever interpolated into
// a query.  Price edits flow through the cascade engine, availability edits
// through the overbooking clamp, restriction edits through the fixed
// field-to-column mapping.
func (h *AriHandler) UpdateCell(c echo.Context) error {
	rc, ok := middleware.RequestScope(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "missing property scope"})
	}
	var body struct {
		Date         string `json:"date"`
		RoomTypeID   uint64 `json:"roomTypeId"`
		RatePlanCode string `json:"ratePlanCode"`
		Field        string `json:"field"`
		Value        any    `json:"value"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "invalid request body"})
	}
	if body.Date == "" || body.RoomTypeID == 0 || body.Field == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "date, roomTypeId and field are required"})
	}
	date, err := ari.ParseDate(body.Date)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "date must be YYYY-MM-DD"})
	}

	ctx := c.Request().Context()
	rt, err := h.RoomTypeRepo.GetByID(ctx, rc.PropertyID, body.RoomTypeID)
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

	eventType := model.AriEventRestriction
	var appended []*model.AriEvent
	switch body.Field {
	case "price":
		price, ok := asFloat(body.Value)
		if !ok || price < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "price requires a non-negative numeric value"})
		}
		evs, err := h.Cascade.ApplyRateChange(ctx, tx, rc, rt.ID, date, plan, price)
		if err != nil {
			return writeError(c, err)
		}
		appended = evs
		if !plan.IsDerived() {
			if err := h.InventoryRepo.UpsertPriceTx(ctx, tx, rc.PropertyID, rt.ID, date, physical, price); err != nil {
				return writeError(c, err)
			}
		}
		eventType = model.AriEventRate

	case "clear_price":
		evs, err := h.Cascade.ClearOverride(ctx, tx, rc, rt.ID, date, plan)
		if err != nil {
			return writeError(c, err)
		}
		appended = evs
		eventType = model.AriEventRate

	case "available":
		avail, ok := asInt(body.Value)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "available requires an integer value"})
		}
		existing, err := h.InventoryRepo.GetForDateTx(ctx, tx, rc.PropertyID, rt.ID, date)
		if err != nil {
			return writeError(c, err)
		}
		var existingAvail *int
		if existing != nil {
			existingAvail = &existing.Available
		}
		resolved := ari.ResolveAvailability(ari.UpdateSet, avail, existingAvail, physical)
		if err := h.InventoryRepo.UpsertAvailabilityTx(ctx, tx, rc.PropertyID, rt.ID, date, physical, resolved); err != nil {
			return writeError(c, err)
		}
		eventType = model.AriEventAvailability

	case "closed", "closedToArrival", "closedToDeparture", "minLOS", "maxLOS":
		field, value, ok := restrictionSetter(body.Field, body.Value)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": body.Field + " has an invalid value"})
		}
		if err := h.RestrictionRepo.SetFieldTx(ctx, tx, rc.PropertyID, rt.ID, date, plan.Code, field, value); err != nil {
			return writeError(c, err)
		}

	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "unknown field: " + body.Field})
	}

	payload, _ := json.Marshal(map[string]any{
		"field":        body.Field,
		"value":        body.Value,
		"ratePlanCode": plan.Code,
		"requestId":    rc.RequestID,
	})
	ev := &model.AriEvent{
		PropertyID: rc.PropertyID,
		RoomTypeID: rt.ID,
		EventType:  eventType,
		DateFrom:   date,
		DateTo:     date,
		Payload:    string(payload),
		Status:     model.AriEventStatusApplied,
	}
	if err := h.EventRepo.AppendTx(ctx, tx, ev); err != nil {
		return writeError(c, err)
	}
	if err := tx.Commit(); err != nil {
		return writeError(c, err)
	}
	committed = true
	for _, cascaded := range appended {
		_ = service.PublishAriEvent(ctx, cascaded)
	}
	_ = service.PublishAriEvent(ctx, ev)

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"updated": echo.Map{
			"date":         body.Date,
			"roomTypeId":   rt.ID,
			"ratePlanCode": plan.Code,
			"field":        body.Field,
			"value":        body.Value,
		},
	})
}

// asFloat coerces a decoded JSON value into a float64.
func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	}
	return 0, false
}

// asInt coerces a decoded JSON value into an int, rejecting fractions.
func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// restrictionSetter maps a JSON field name and value onto the closed
// restriction-field enum and its integer representation.
func restrictionSetter(field string, value any) (repository.RestrictionField, int, bool) {
	boolVal := func() (int, bool) {
		b, ok := value.(bool)
		if !ok {
			return 0, false
		}
		if b {
			return 1, true
		}
		return 0, true
	}
	switch field {
	case "closed":
		v, ok := boolVal()
		return repository.FieldClosed, v, ok
	case "closedToArrival":
		v, ok := boolVal()
		return repository.FieldClosedToArrival, v, ok
	case "closedToDeparture":
		v, ok := boolVal()
		return repository.FieldClosedToDeparture, v, ok
	case "minLOS":
		v, ok := asInt(value)
		return repository.FieldMinLOS, v, ok && v >= 0
	case "maxLOS":
		v, ok := asInt(value)
		return repository.FieldMaxLOS, v, ok && v >= 0
	}
	return "", 0, false
}
