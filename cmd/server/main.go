package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/snehachy12/campus-event-system-sub002/internal/config"
	"github.com/snehachy12/campus-event-system-sub002/internal/di"
	"github.com/snehachy12/campus-event-system-sub002/internal/logger"
	"github.com/snehachy12/campus-event-system-sub002/internal/middleware"
	"github.com/snehachy12/campus-event-system-sub002/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	})
	if err != nil {
		log.Fatal("failed to init telemetry", zap.Error(err))
	}

	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatal("failed to build container", zap.Error(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	router.GET("/health", container.HealthHandler.Live)
	router.GET("/ready", container.HealthHandler.Ready)

	v1 := router.Group("/api/v1")
	// The webhook authenticates through its payload signature, not a
	// user token
	v1.POST("/payments/webhook", container.PaymentHandler.Webhook)

	authed := v1.Group("", middleware.Auth(cfg.JWT.Secret))
	{
		authed.POST("/reservations", container.ReservationHandler.Submit)
		authed.GET("/reservations", container.ReservationHandler.List)
		authed.GET("/reservations/:id", container.ReservationHandler.Get)
		authed.PUT("/reservations/:id/approve", container.ReservationHandler.Approve)
		authed.PUT("/reservations/:id/reject", container.ReservationHandler.Reject)
		authed.PUT("/reservations/:id/cancel", container.ReservationHandler.Cancel)
		authed.POST("/reservations/:id/payment", container.ReservationHandler.RequestPayment)
		authed.POST("/payments/confirm", container.PaymentHandler.Confirm)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.App.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	container.Close(shutdownCtx)
	if err := tel.Shutdown(shutdownCtx); err != nil {
		log.Error("telemetry shutdown failed", zap.Error(err))
	}
	log.Info("server stopped")
}
