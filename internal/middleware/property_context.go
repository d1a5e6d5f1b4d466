// Package middleware provides Echo middleware for request scoping and
// distributed rate limiting.
package middleware

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/stayloop/pms/internal/model"
)

// Header names read by PropertyContext.
const (
	HeaderPropertyID = "X-Property-ID"
	HeaderRequestID  = "X-Request-ID"
	HeaderChannel    = "X-Channel"
)

const scopeKey = "request_scope"

// PropertyContext extracts the multi-tenant scope from request headers and
// stores it on the Echo context.  X-Property-ID is mandatory on every ARI
// route; a missing or malformed value is rejected before any handler runs,
// so no write can ever land without a property scope.  X-Request-ID is
// generated when the caller does not supply one, making every mutation
// traceable through audit rows and logs.
func PropertyContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(HeaderPropertyID)
			if raw == "" {
				return c.JSON(http.StatusBadRequest, map[string]any{
					"error":   "validation_error",
					"message": "X-Property-ID header is required",
				})
			}
			propertyID, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || propertyID == 0 {
				return c.JSON(http.StatusBadRequest, map[string]any{
					"error":   "validation_error",
					"message": "X-Property-ID must be a positive integer",
				})
			}

			requestID := c.Request().Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Response().Header().Set(HeaderRequestID, requestID)

			c.Set(scopeKey, model.RequestContext{
				PropertyID: propertyID,
				RequestID:  requestID,
				Channel:    c.Request().Header.Get(HeaderChannel),
			})
			return next(c)
		}
	}
}

// RequestScope returns the scope stored by PropertyContext.
func RequestScope(c echo.Context) (model.RequestContext, bool) {
	rc, ok := c.Get(scopeKey).(model.RequestContext)
	return rc, ok
}
