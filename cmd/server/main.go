package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/kamyarm/wedding-seating/internal/broadcast"
	"github.com/kamyarm/wedding-seating/internal/config"
	"github.com/kamyarm/wedding-seating/internal/database"
	"github.com/kamyarm/wedding-seating/internal/engine"
	"github.com/kamyarm/wedding-seating/internal/handler"
	"github.com/kamyarm/wedding-seating/internal/middleware"
	"github.com/kamyarm/wedding-seating/internal/queue"
	"github.com/kamyarm/wedding-seating/internal/repository"
	"github.com/kamyarm/wedding-seating/internal/router"
	queue_publisher "github.com/kamyarm/wedding-seating/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer db.Close()

	migCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(migCtx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	store := repository.NewSQLStore(db)
	admins := repository.NewAdminRepo(store.DB())

	feed := broadcast.New(cfg.BroadcastRetain, cfg.BroadcastQueue)

	// The audit stream is optional: without a broker check-ins still
	// commit and broadcast, there is just no paper trail.
	var auditor engine.Auditor
	if cfg.AMQPURL != "" {
		auditor = queue_publisher.CheckInAuditor{}
		go func() {
			if err := queue.StartCheckInConsumer(); err != nil {
				log.Printf("checkin-consumer: %v", err)
			}
		}()
	}

	eng := engine.New(store, feed, auditor)

	// Redis backs the portal rate limiter and the template cache. A nil
	// client disables both; the server still runs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and caching disabled")
	}
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, admins))
	router.RegisterAdmin(e, handler.NewAdminHandler(cfg, eng), cfg.JWTSecret, cache)
	router.RegisterPortal(e, handler.NewPortalHandler(eng), limiter)
	router.RegisterLive(e, handler.NewLiveHandler(eng, feed), limiter)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
