// Package handler contains the HTTP handlers for the ARI and booking
// surfaces.  Handlers validate input at the boundary, open transactions,
// delegate invariants to the service layer, and translate domain errors
// into the HTTP taxonomy.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stayloop/pms/internal/repository"
	"github.com/stayloop/pms/internal/service"
)

// classify maps a domain error onto the HTTP error taxonomy.  Validation
// failures never reach this function; handlers reject them with explicit
// 400 responses before touching the store.
func classify(err error) (status int, code string, message string) {
	switch {
	case errors.Is(err, repository.ErrRoomTypeNotFound),
		errors.Is(err, repository.ErrRatePlanNotFound):
		return http.StatusNotFound, "not_found", err.Error()
	case errors.Is(err, service.ErrNoRateAvailable):
		return http.StatusNotFound, "no_rate_available", err.Error()
	case errors.Is(err, repository.ErrPricingMismatch):
		return http.StatusConflict, "pricing_mismatch", "quote no longer matches current pricing, request a new quote"
	case errors.Is(err, repository.ErrInventoryUnavailable):
		return http.StatusConflict, "inventory_unavailable", err.Error()
	case errors.Is(err, repository.ErrIdempotencyInProgress):
		return http.StatusConflict, "idempotency_conflict", "a request with this idempotency key is already in progress"
	case errors.Is(err, repository.ErrIdempotencyFailed):
		return http.StatusConflict, "idempotency_conflict", "a previous request with this idempotency key failed; use a new key"
	case errors.Is(err, service.ErrStayRestricted):
		return http.StatusConflict, "stay_restricted", err.Error()
	default:
		return http.StatusInternalServerError, "internal_error", ""
	}
}

// writeError renders a classified domain error.  Internal errors carry the
// diagnostic detail for operators.
func writeError(c echo.Context, err error) error {
	status, code, message := classify(err)
	if status == http.StatusInternalServerError {
		return c.JSON(status, echo.Map{"error": code, "detail": err.Error()})
	}
	return c.JSON(status, echo.Map{"error": code, "message": message})
}
