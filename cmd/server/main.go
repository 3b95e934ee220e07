package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"rewear/internal/config"
	"rewear/internal/db"
	"rewear/internal/logger"
	"rewear/internal/metrics"
	"rewear/internal/router"
	"rewear/internal/services"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.LogLevel, Production: cfg.IsProduction()})
	if envErr != nil {
		log.Info("No .env file found, using environment variables")
	}

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("Server exited")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	} else if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(conn); err != nil {
		return err
	}
	if err := db.Seed(conn, cfg, log); err != nil {
		return err
	}

	m := metrics.New()
	svc, err := services.New(conn, cfg, log, m)
	if err != nil {
		return err
	}

	engine, err := router.New(router.Deps{Config: cfg, Log: log, DB: conn, Services: svc, Metrics: m})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "db": cfg.DBDriver}).Info("ReWear server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Graceful shutdown failed")
	}
	svc.Mail.Wait()

	if sqlDB, err := conn.DB(); err == nil {
		_ = sqlDB.Close()
	}
	return nil
}
