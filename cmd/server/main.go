package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tuntikone/workforce-backend/internal/config"
	"github.com/tuntikone/workforce-backend/internal/database"
	"github.com/tuntikone/workforce-backend/internal/handler"
	"github.com/tuntikone/workforce-backend/internal/queue"
	"github.com/tuntikone/workforce-backend/internal/repository"
	"github.com/tuntikone/workforce-backend/internal/router"
	"github.com/tuntikone/workforce-backend/internal/service"
	"github.com/tuntikone/workforce-backend/internal/utils"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	store := repository.NewStore(db)

	// Bridge the repository transaction boundary into the service's
	// Datastore view. *repository.Store satisfies service.Datastore,
	// inside and outside a transaction alike.
	runTx := func(ctx context.Context, fn func(tx service.Datastore) error) error {
		return store.WithTx(ctx, func(tx *repository.Store) error {
			return fn(tx)
		})
	}

	codec := utils.NewTokenCodec(
		cfg.JWTSecret,
		time.Duration(cfg.AccessTTLMin)*time.Minute,
		time.Duration(cfg.RefreshTTLDays)*24*time.Hour,
	)

	events := queue.NewPublisher()
	auth := service.NewAuthService(store, runTx, codec, cfg.BcryptCost, events)
	workDays := service.NewWorkDayService(store)

	// Audit trail consumer drains auth events into logs/audit.log and
	// reconnects on broker failure.
	go queue.StartAuditConsumer()

	// Hourly hygiene sweep: expired refresh tokens, and old shift
	// entries when a retention window is configured.
	go func() {
		for range time.Tick(time.Hour) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if n, err := auth.SweepExpiredTokens(ctx); err != nil {
				log.Printf("token sweep: %v", err)
			} else if n > 0 {
				log.Printf("token sweep: removed %d expired tokens", n)
			}
			if cfg.WorkDayRetentionDays > 0 {
				cutoff := time.Now().UTC().AddDate(0, 0, -cfg.WorkDayRetentionDays)
				if n, err := workDays.PurgeOlderThan(ctx, cutoff); err != nil {
					log.Printf("work day purge: %v", err)
				} else if n > 0 {
					log.Printf("work day purge: removed %d entries", n)
				}
			}
			cancel()
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, auth,
		handler.NewAuthHandler(auth),
		handler.NewCompanyHandler(auth),
		handler.NewWorkDayHandler(workDays),
		config.LoadRateLimitConfig(),
		config.NewRedisClient(),
	)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
