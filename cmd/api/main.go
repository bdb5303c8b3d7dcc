package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"valuation-backend/internal/cache"
	"valuation-backend/internal/config"
	"valuation-backend/internal/db"
	"valuation-backend/internal/lead"
	"valuation-backend/internal/middleware"
	"valuation-backend/internal/notifications"
	"valuation-backend/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, cols, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo connection failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("mongo connected")
	defer client.Disconnect(context.Background())

	if err := db.EnsureIndexes(ctx, cols); err != nil {
		logger.Error("index creation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var cacheStore cache.Cache = cache.NewNoop()
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("redis connected", slog.String("addr", cfg.RedisAddr))
		cacheStore = redisCache
	}

	mailer := notifications.NewBrevoClient(
		cfg.BrevoAPIKey,
		cfg.BrevoSenderEmail,
		cfg.BrevoSenderName,
		cfg.BrevoSandbox,
		cfg.SiteURL,
		cfg.ContactEmail,
		cfg.ContactPhone,
	)
	if mailer == nil {
		logger.Info("brevo mailer disabled")
	} else {
		logger.Info("brevo mailer enabled", slog.String("sender", cfg.BrevoSenderEmail), slog.Bool("sandbox", cfg.BrevoSandbox))
	}

	val := validation.New()

	var notifier lead.Notifier
	if mailer != nil {
		notifier = mailer
	}
	leadRepo := lead.NewRepository(cols.Leads)
	leadService := lead.NewService(leadRepo, cfg.Timezone, notifier)
	leadHandler := lead.NewHandler(leadService, val, logger, cacheStore, time.Duration(cfg.CacheTTLSeconds)*time.Second)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigin))
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	leadsLimiter := middleware.NewRateLimiter(cfg.RateLimitLeads, time.Duration(cfg.RateLimitWindowSec)*time.Second)

	r.Route("/api/v1", func(api chi.Router) {
		api.With(leadsLimiter.Middleware).Post("/leads", leadHandler.Create)
		api.With(leadsLimiter.Middleware).Patch("/leads/{sessionID}", leadHandler.Update)
		api.Get("/leads/{sessionID}", leadHandler.Get)

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(middleware.AdminAuth(cfg.AdminAPIKey))
			admin.Get("/leads", leadHandler.AdminList)
			admin.Get("/leads/{sessionID}", leadHandler.AdminGet)
		})
	})

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: r,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}
