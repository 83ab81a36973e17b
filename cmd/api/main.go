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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"attendbot/internal/api"
	"attendbot/internal/app"
	"attendbot/internal/config"
	"attendbot/internal/httpmiddleware"
	"attendbot/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, zl); err != nil {
		zl.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, zl *zap.Logger) error {
	a, err := app.Build(cfg, zl)
	if err != nil {
		return err
	}
	defer a.Close()

	health := make(map[string]api.HealthCheck, len(a.Health))
	for name, check := range a.Health {
		health[name] = check
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpmiddleware.RequestID())
	r.Use(httpmiddleware.Logger(zl.Named("http"), "/healthz", "/metrics"))
	r.Use(securityHeaders())

	h := &api.Handler{
		Events:        a.Router,
		Jobs:          a.Jobs,
		Scans:         a.Recorder,
		ChannelSecret: cfg.LineChannelSecret,
		Health:        health,
		Limiter:       httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).Middleware(),
		Logger:        zl.Named("api"),
	}
	h.Register(r)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.EventTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("starting server",
			zap.String("port", cfg.HTTPPort),
			zap.String("class", cfg.ClassName),
			zap.String("store", cfg.StoreBackend),
			zap.String("notifier", cfg.Notifier),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		zl.Info("shutting down server", zap.String("signal", sig.String()))
	}

	// in-flight webhook batches get their event timeout to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.EventTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Warn("server forced shutdown", zap.Error(err))
	}
	zl.Info("server exited")
	return nil
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Next()
	}
}
