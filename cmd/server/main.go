package main // Entry point package

import (
	"log"  // Logging library
	"time" // Durations for quote TTL

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/stayloop/pms/internal/config"
	"github.com/stayloop/pms/internal/database"
	"github.com/stayloop/pms/internal/handler"
	"github.com/stayloop/pms/internal/queue"
	"github.com/stayloop/pms/internal/repository"
	"github.com/stayloop/pms/internal/router"
	"github.com/stayloop/pms/internal/service"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the quote cache and the booking rate limiter.  A nil
	// client degrades both gracefully instead of failing startup.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable: quote cache and rate limiting disabled")
	}

	// Repositories
	roomTypes := repository.NewRoomTypeRepo(db)
	inventory := repository.NewInventoryRepo(db)
	plans := repository.NewRatePlanRepo(db)
	rates := repository.NewRateRepo(db)
	restrictions := repository.NewRestrictionRepo(db)
	events := repository.NewAriEventRepo(db)
	reservations := repository.NewReservationRepo(db)
	ledger := repository.NewIdempotencyRepo(db)

	// Services
	cascade := service.NewCascadeEngine(plans, rates, events)
	quotes := service.NewQuoteService(rates, plans, restrictions, rdb,
		cfg.QuoteSecret, cfg.Currency, time.Duration(cfg.QuoteTTLMin)*time.Minute)
	committer := service.NewCommitter(inventory, reservations, events)
	saga := service.NewBookingSaga(ledger, quotes, committer, inventory)

	// Handlers and routes
	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterARI(e, handler.NewAriHandler(roomTypes, inventory, plans, rates, restrictions, events, cascade))
	router.RegisterBooking(e,
		handler.NewQuoteHandler(roomTypes, quotes),
		handler.NewBookingHandler(roomTypes, saga),
		config.LoadRateLimitConfig(), rdb)

	// Audit fan-out: consume applied ARI events and append them to
	// logs/ari.log.  The consumer reconnects forever on its own.
	go func() {
		if err := queue.StartAriConsumer(); err != nil {
			log.Printf("ari consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
