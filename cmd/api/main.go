package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/worklink/worklink-api/internal/config"
	"github.com/worklink/worklink-api/internal/domain/adminlog"
	"github.com/worklink/worklink-api/internal/domain/coins"
	"github.com/worklink/worklink-api/internal/domain/platformfee"
	"github.com/worklink/worklink-api/internal/domain/store"
	"github.com/worklink/worklink-api/internal/domain/wallet"
	"github.com/worklink/worklink-api/internal/jobs"
	"github.com/worklink/worklink-api/internal/middleware"
	"github.com/worklink/worklink-api/internal/pkg/database"
	"github.com/worklink/worklink-api/internal/pkg/jwt"
	"github.com/worklink/worklink-api/internal/pkg/logger"
	pkgresponse "github.com/worklink/worklink-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Worklink ledger API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	// The wallet cache is optional; an unreachable Redis only costs the
	// cache, never startup.
	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, continuing without wallet cache")
		redis = nil
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	// ---------- Repositories ----------
	walletRepo := wallet.NewRepository(db, cfg.WalletMaxCapacity)
	coinsRepo := coins.NewRepository(db)
	storeRepo := store.NewRepository(db)
	feeRepo := platformfee.NewRepository(db)
	adminLogRepo := adminlog.NewRepository(db)

	// ---------- Services ----------
	walletService := wallet.NewService(walletRepo, redis)
	coinsService := coins.NewService(db, coinsRepo, walletService)
	storeService := store.NewService(db, storeRepo, walletService)
	feeService := platformfee.NewService(feeRepo, cfg.PlatformFeePercent)
	adminLogService := adminlog.NewService(adminLogRepo)

	// ---------- Handlers ----------
	walletHandler := wallet.NewHandler(walletService, adminLogService)
	coinsHandler := coins.NewHandler(coinsService, adminLogService)
	webhookHandler := coins.NewWebhookHandler(coinsService)
	storeHandler := store.NewHandler(storeService, adminLogService)
	feeHandler := platformfee.NewHandler(feeService)
	adminLogHandler := adminlog.NewHandler(adminLogService)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Background jobs ----------
	scheduler := jobs.NewScheduler(storeService)
	if err := scheduler.Start(context.Background(), cfg.EntitlementSweepSpec); err != nil {
		log.Fatal().Err(err).Msg("Failed to start background scheduler")
	}
	defer scheduler.Stop()

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(chimw.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/wallet", walletHandler.Routes(authMiddleware))
		r.Mount("/coins", coinsHandler.Routes(authMiddleware))
		r.Mount("/store", storeHandler.Routes(authMiddleware))
	})

	r.Mount("/webhooks", webhookHandler.Routes())

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireAdmin())

		r.Mount("/wallets", walletHandler.AdminRoutes())
		r.Mount("/coins", coinsHandler.AdminRoutes())
		r.Mount("/store", storeHandler.AdminRoutes())
		r.Mount("/fees", feeHandler.AdminRoutes())
		r.Mount("/actions", adminLogHandler.AdminRoutes())
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
