package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"communityhub-backend/internal/api"
	"communityhub-backend/internal/auth"
	"communityhub-backend/internal/config"
	"communityhub-backend/internal/dashboard"
	"communityhub-backend/internal/database"
	"communityhub-backend/internal/fallback"
	"communityhub-backend/internal/gateway"
	"communityhub-backend/internal/gateway/postgres"
	"communityhub-backend/internal/gateway/rest"
	"communityhub-backend/internal/health"
	"communityhub-backend/internal/logger"
	"communityhub-backend/internal/metrics"
	"communityhub-backend/internal/middleware"
	"communityhub-backend/internal/realtime"
	"communityhub-backend/internal/storage"
	"communityhub-backend/internal/supabase"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// sessionIdle is how long an admin's dashboard state survives without use.
const sessionIdle = 2 * time.Hour

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}

	log := logger.New(cfg.LogLevel)
	if envErr != nil {
		log.Debug("No .env file found")
	}
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var db *database.Database
	if cfg.HasDatabase() {
		if err := database.RunMigrations(cfg.GetDatabaseURL(), log); err != nil {
			log.WithError(err).Fatal("Failed to run migrations")
		}
		db, err = database.NewConnection(ctx, cfg, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()
	}

	var client *supabase.Client
	if cfg.Supabase.URL != "" {
		client = supabase.NewClient(cfg)
	}

	var gw gateway.Store
	switch cfg.Gateway {
	case config.GatewayPostgres:
		gw = postgres.New(db)
	default:
		gw = rest.New(client)
	}
	log.WithField("gateway", cfg.Gateway).Info("Gateway ready")

	sessions := dashboard.NewRegistry(gw, logger.Component(log, "dashboard"), m.ObserveMutation)

	var verifier *auth.Verifier
	if client != nil {
		verifier = auth.NewVerifier(cfg.Supabase.JWTSecret, client)
	} else {
		verifier = auth.NewVerifier(cfg.Supabase.JWTSecret, nil)
	}

	var store *storage.SupabaseStorage
	if cfg.Supabase.ServiceRoleKey != "" {
		store = storage.NewSupabaseStorage(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey, cfg.Supabase.Bucket, cfg.Supabase.Timeout)
	}

	monitor := health.NewMonitor(gw, cfg.Site.HealthCron, logger.Component(log, "health"), m.SetBackendUp)
	if err := monitor.AddJob("@every 15m", func() {
		if n := sessions.Sweep(sessionIdle); n > 0 {
			log.WithField("sessions", n).Info("Dropped idle admin sessions")
		}
	}); err != nil {
		log.WithError(err).Fatal("Failed to schedule session sweep")
	}
	if err := monitor.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start health monitor")
	}
	defer monitor.Stop()

	if db != nil {
		listener := realtime.NewListener(db.Pool, cfg.Database.NotifyChannel, logger.Component(log, "realtime"))
		for _, table := range []string{"events", "groups"} {
			if _, err := listener.Subscribe(table, "", func(realtime.Change) { sessions.MarkAllStale() }); err != nil {
				log.WithError(err).Fatal("Failed to subscribe to changes")
			}
		}
		for _, table := range []string{"resources", "resource_categories"} {
			if _, err := listener.Subscribe(table, "", func(realtime.Change) { sessions.MarkResourcesStale() }); err != nil {
				log.WithError(err).Fatal("Failed to subscribe to changes")
			}
		}
		go func() {
			if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("Change listener stopped")
			}
		}()
	}

	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	api.SetupRoutes(router, api.NewServer(api.Deps{
		Config:    cfg,
		Gateway:   gw,
		Dashboard: sessions,
		Verifier:  verifier,
		Supabase:  client,
		Storage:   store,
		Fallback:  fallback.NewSource(cfg.Site.FallbackPath),
		Resources: fallback.NewResourceSource(cfg.Site.ResourcesFallbackPath),
		Monitor:   monitor,
		Metrics:   m,
		Log:       log,
	}))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}
}
