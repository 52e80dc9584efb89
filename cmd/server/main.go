package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/screenbook/movie-reservation/internal/config"
	"github.com/screenbook/movie-reservation/internal/database"
	"github.com/screenbook/movie-reservation/internal/handler"
	"github.com/screenbook/movie-reservation/internal/middleware"
	"github.com/screenbook/movie-reservation/internal/queue"
	"github.com/screenbook/movie-reservation/internal/repository"
	"github.com/screenbook/movie-reservation/internal/router"
	"github.com/screenbook/movie-reservation/internal/service"
	"github.com/screenbook/movie-reservation/internal/validator"
)

func main() {
	// .env is optional; deployments normally set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.DBName); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// A nil client puts the service in degraded mode: no holds, no cache,
	// no rate limiting. Browsing and already-confirmed data keep working.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unreachable: holds disabled, caching and rate limiting off")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	movies := repository.NewMovieRepo(db)
	auditoriums := repository.NewAuditoriumRepo(db)
	seats := repository.NewSeatRepo(db)
	showtimes := repository.NewShowtimeRepo(db)
	reservations := repository.NewReservationRepo(db)

	store := repository.NewBookingRepo(db)
	holds := repository.NewRedisHoldIndex(rdb)
	booking := service.NewBookingService(store, holds, cfg.HoldTTL, cfg.CancellationWindow)

	e := echo.New()
	e.Validator = validator.New()

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cached := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	publicH := handler.NewPublicHandler(movies, auditoriums, showtimes)
	bookingH := handler.NewBookingHandler(booking, reservations)
	adminH := handler.NewAdminHandler(movies, auditoriums, seats, showtimes, reservations)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret, limiter)
	router.RegisterPublic(e, publicH, bookingH, cached)
	router.RegisterBooking(e, bookingH, cfg.JWTSecret, limiter)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
