package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/stayloop/pms/internal/config"
	"github.com/stayloop/pms/internal/handler"
	"github.com/stayloop/pms/internal/middleware"
)

// RegisterRoutes registers routes that carry no property scope on the
// provided Echo instance.  Currently it exposes only a health check used
// by load balancers and monitoring systems.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterARI registers the administrative ARI surface under /v1/ari.
// Every route requires the X-Property-ID header; the PropertyContext
// middleware rejects unscoped requests before any handler runs.
func RegisterARI(e *echo.Echo, a *handler.AriHandler) {
	g := e.Group("/v1/ari")
	g.Use(middleware.PropertyContext())
	// Bulk availability edit across a date range, clamped per date.
	g.POST("/availability", a.UpdateAvailability)
	// Bulk rate edit; cascades through derived plans per date.
	g.POST("/rates", a.UpdateRates)
	// Single calendar-cell edit over the closed field set.
	g.POST("/cell", a.UpdateCell)
	// Calendar read model for admin grids.
	g.GET("/grid", a.Grid)
}

// RegisterBooking registers the guest-facing quote and booking endpoints.
// Bookings additionally pass through the distributed token-bucket limiter:
// a misbehaving integration retrying in a tight loop exhausts its bucket
// before it exhausts the idempotency ledger.
func RegisterBooking(e *echo.Echo, q *handler.QuoteHandler, b *handler.BookingHandler, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1")
	g.Use(middleware.PropertyContext())
	g.POST("/quotes", q.CreateQuote)

	limited := g.Group("")
	limited.Use(middleware.NewTokenBucket(rlCfg, rdb))
	limited.POST("/bookings", b.Book)
}
