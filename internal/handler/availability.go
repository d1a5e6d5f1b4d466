package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stayloop/pms/internal/ari"
	"github.com/stayloop/pms/internal/middleware"
	"github.com/stayloop/pms/internal/model"
	"github.com/stayloop/pms/internal/repository"
	"github.com/stayloop/pms/internal/service"
)

// AriHandler groups the repositories and services behind the administrative
// ARI surface: bulk availability updates, bulk rate updates, single-cell
// edits and the calendar grid.  Every mutation runs inside one transaction
// per request, with the physical room count snapshotted inside that same
// transaction so the overbooking clamp cannot race a room being taken out
// of service.
type AriHandler struct {
	RoomTypeRepo    *repository.RoomTypeRepo
	InventoryRepo   *repository.InventoryRepo
	RatePlanRepo    *repository.RatePlanRepo
	RateRepo        *repository.RateRepo
	RestrictionRepo *repository.RestrictionRepo
	EventRepo       *repository.AriEventRepo
	Cascade         *service.CascadeEngine
}

// NewAriHandler constructs an AriHandler.  All dependencies must be non-nil.
func NewAriHandler(roomTypes *repository.RoomTypeRepo, inventory *repository.InventoryRepo, plans *repository.RatePlanRepo, rates *repository.RateRepo, restrictions *repository.RestrictionRepo, events *repository.AriEventRepo, cascade *service.CascadeEngine) *AriHandler {
	if roomTypes == nil || inventory == nil || plans == nil || rates == nil || restrictions == nil || events == nil || cascade == nil {
		panic("nil dependency passed to NewAriHandler")
	}
	return &AriHandler{
		RoomTypeRepo:    roomTypes,
		InventoryRepo:   inventory,
		RatePlanRepo:    plans,
		RateRepo:        rates,
		RestrictionRepo: restrictions,
		EventRepo:       events,
		Cascade:         cascade,
	}
}

type dateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// parseRange validates and normalizes a from/to pair.  Both bounds are
// inclusive calendar days.
func parseRange(dr dateRange) (time.Time, time.Time, bool) {
	from, err := ari.ParseDate(dr.From)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	to, err := ari.ParseDate(dr.To)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// UpdateAvailability handles POST /v1/ari/availability.  It applies a
// SET/INCREMENT/DECREMENT availability edit to every date in the range.
// Each date's stored value is clamped to the physical room count and total
// is resynchronized, so an over-request is silently truncated rather than
// rejected; callers detect truncation by comparing the requested value with
// the grid afterwards.
func (h *AriHandler) UpdateAvailability(c echo.Context) error {
	rc, ok := middleware.RequestScope(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "missing property scope"})
	}
	var body struct {
		RoomTypeCode string    `json:"roomTypeCode"`
		DateRange    dateRange `json:"dateRange"`
		Availability *int      `json:"availability"`
		UpdateType   string    `json:"updateType"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "invalid request body"})
	}
	if body.RoomTypeCode == "" || body.Availability == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "roomTypeCode and availability are required"})
	}
	if body.UpdateType == "" {
		body.UpdateType = ari.UpdateSet
	}
	switch body.UpdateType {
	case ari.UpdateSet, ari.UpdateIncrement, ari.UpdateDecrement:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "updateType must be SET, INCREMENT or DECREMENT"})
	}
	from, to, ok := parseRange(body.DateRange)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "message": "dateRange must be valid YYYY-MM-DD dates with from <= to"})
	}

	ctx := c.Request().Context()
	rt, err := h.RoomTypeRepo.GetByCode(ctx, rc.PropertyID, body.RoomTypeCode)
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

	updated := 0
	for _, date := range ari.DatesBetween(from, to) {
		existing, err := h.InventoryRepo.GetForDateTx(ctx, tx, rc.PropertyID, rt.ID, date)
		if err != nil {
			return writeError(c, err)
		}
		var existingAvail *int
		if existing != nil {
			existingAvail = &existing.Available
		}
		resolved := ari.ResolveAvailability(body.UpdateType, *body.Availability, existingAvail, physical)
		if err := h.InventoryRepo.UpsertAvailabilityTx(ctx, tx, rc.PropertyID, rt.ID, date, physical, resolved); err != nil {
			return writeError(c, err)
		}
		updated++
	}

	payload, _ := json.Marshal(map[string]any{
		"updateType":    body.UpdateType,
		"requested":     *body.Availability,
		"physicalCount": physical,
		"requestId":     rc.RequestID,
	})
	ev := &model.AriEvent{
		PropertyID: rc.PropertyID,
		RoomTypeID: rt.ID,
		EventType:  model.AriEventAvailability,
		DateFrom:   from,
		DateTo:     to,
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
	_ = service.PublishAriEvent(ctx, ev)

	return c.JSON(http.StatusOK, echo.Map{
		"updated":      updated,
		"roomTypeCode": rt.Code,
		"dateRange":    body.DateRange,
		"availability": *body.Availability,
	})
}
