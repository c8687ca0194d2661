// Package main runs the affiliate storefront API server.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	app "github.com/linkcart/affiliate_backend/internal/app"
	"github.com/linkcart/affiliate_backend/internal/app/domain/catalog"
	"github.com/linkcart/affiliate_backend/internal/app/httpapi"
	"github.com/linkcart/affiliate_backend/internal/app/storage/postgres"
	"github.com/linkcart/affiliate_backend/internal/config"
	"github.com/linkcart/affiliate_backend/pkg/logger"
)

func main() {
	// A missing .env is fine; deployed environments inject real variables.
	_ = godotenv.Load()

	log := logger.NewDefault("api")

	configPath := os.Getenv("CONFIG_PATH")
	cfg := config.LoadOrDefault(configPath)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	stores := app.Stores{}
	if cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.WithError(err).Fatal("open database")
		}
		defer db.Close()
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err != nil {
			log.WithError(err).Fatal("ping database")
		}

		pg := postgres.New(db)
		stores = app.Stores{
			Categories:   pg,
			Users:        pg,
			Clicks:       pg,
			Transactions: pg,
			Banners:      pg,
			Withdrawals:  pg,
		}
		log.Info("using postgres storage")
	} else {
		log.Warn("DATABASE_URL not set; using in-memory storage")
	}

	creds := catalog.Credentials{
		AccessKey:   cfg.Amazon.AccessKey,
		SecretKey:   cfg.Amazon.SecretKey,
		PartnerTag:  cfg.Amazon.PartnerTag,
		Marketplace: cfg.Amazon.Marketplace,
	}

	application, err := app.New(stores, creds, log)
	if err != nil {
		log.WithError(err).Fatal("build application")
	}
	application.Catalog.WithHTTPClient(&http.Client{Timeout: cfg.CatalogTimeout()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := application.Start(ctx); err != nil {
		log.WithError(err).Fatal("start application")
	}

	handler := httpapi.NewHandler(application, httpapi.Options{
		JWTSecret:         []byte(cfg.JWT.Secret),
		JWTIssuer:         cfg.JWT.Issuer,
		TokenTTL:          time.Duration(cfg.JWT.TTLHours) * time.Hour,
		RequestsPerSecond: int(cfg.Limits.RequestsPerSecond),
		Burst:             cfg.Limits.Burst,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		AuditPath:         os.Getenv("AUDIT_LOG_PATH"),
		Log:               log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("api listening")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSec)*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("application stop")
	}
	log.Info("stopped")
}
