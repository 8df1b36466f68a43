package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/medflow/internal/config"
	"github.com/Skotchmaster/medflow/internal/database"
	"github.com/Skotchmaster/medflow/internal/es"
	"github.com/Skotchmaster/medflow/internal/httpserver"
	"github.com/Skotchmaster/medflow/internal/logging"
	"github.com/Skotchmaster/medflow/internal/middleware/metrics"
	"github.com/Skotchmaster/medflow/internal/mykafka"
	"github.com/Skotchmaster/medflow/internal/repo"
	"github.com/Skotchmaster/medflow/internal/service"
	"github.com/Skotchmaster/medflow/internal/session"
)

func main() {
	cfg := config.Load()
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")

	logger := logging.New(cfg.LogLevel)
	ctx, stop := context.WithCancel(logging.IntoContext(context.Background(), logger))
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("init db: %v", err)
	}

	var (
		sessions session.Store
		closers  []func() error
	)
	switch cfg.SessionBackend {
	case "redis":
		config.MustNonEmpty(cfg.RedisURL, "REDIS_URL")
		rs, err := session.NewRedisStore(ctx, cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			log.Fatalf("init redis sessions: %v", err)
		}
		sessions = rs
		closers = append(closers, rs.Close)
	default:
		gs := &session.GormStore{DB: db, TTL: cfg.SessionTTL}
		go gs.RunPruner(ctx, time.Hour, logger)
		sessions = gs
	}

	prod := mykafka.NewProducer(cfg.KafkaBrokers)
	closers = append(closers, prod.Close)

	r := repo.New(db)
	activity := &service.ActivityService{Repo: r, Producer: prod}
	authSvc := &service.AuthService{
		Repo:        r,
		Sessions:    sessions,
		Activity:    activity,
		IDPSecret:   cfg.IDPSecret,
		AdminEmails: cfg.AdminEmails,
	}
	users := &service.UserService{Repo: r, Activity: activity}
	bindings := &service.KeyBindingService{Repo: r, Activity: activity}

	esClient, err := es.NewClient(ctx, es.Config{URL: cfg.ESURL, Username: cfg.ESUser, Password: cfg.ESPassword}, logger)
	if err != nil {
		log.Fatalf("init elasticsearch: %v", err)
	}
	if esClient != nil {
		idx := &es.KeyBindingIndex{ES: esClient, Index: cfg.ESIndex}
		if err := idx.EnsureIndex(ctx); err != nil {
			log.Fatalf("ensure index %s: %v", cfg.ESIndex, err)
		}
		users.Index = idx
		bindings.Index = idx
	}

	if err := authSvc.BootstrapAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	deps := &httpserver.Deps{
		DB:           db,
		Repo:         r,
		Metrics:      metrics.New(),
		Sessions:     authSvc,
		JWTSecret:    cfg.JWTSecret,
		SecureCookie: cfg.CookieSecure,

		ExtensionOrigins: cfg.ExtensionOrigins,

		Auth:        &httpserver.AuthHTTP{Svc: authSvc, Users: users, IDPLoginURL: cfg.IDPLogin, SecureCookie: cfg.CookieSecure},
		Users:       &httpserver.UsersHTTP{Svc: users, KeyBindings: bindings, Activity: activity},
		KeyBindings: &httpserver.KeyBindingsHTTP{Svc: bindings},
		Extension: &httpserver.ExtensionHTTP{
			Svc:         &service.ExtensionService{Repo: r, Activity: activity, JWTSecret: cfg.JWTSecret},
			KeyBindings: bindings,
		},
		Activity: &httpserver.ActivityHTTP{Svc: activity},
		Admin: &httpserver.AdminHTTP{
			Incidents: &service.IncidentService{Repo: r, Activity: activity},
			Settings:  &service.SettingsService{Repo: r, Activity: activity},
			Stats:     &service.StatsService{Repo: r},
		},
	}

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      httpserver.New(deps, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http server listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	go func() {
		<-quit
		log.Println("force exit")
		os.Exit(1)
	}()

	logger.Info("shutting down")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	for _, c := range closers {
		if err := c(); err != nil {
			logger.Error("close error", "error", err)
		}
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	} else {
		logger.Error("db() error", "error", err)
	}

	logger.Info("shutdown complete")
}
