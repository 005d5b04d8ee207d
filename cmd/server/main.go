package main

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/smmonirhasan92/man2man-sub003/internal/alerts"
	"github.com/smmonirhasan92/man2man-sub003/internal/api"
	"github.com/smmonirhasan92/man2man-sub003/internal/auth"
	"github.com/smmonirhasan92/man2man-sub003/internal/config"
	"github.com/smmonirhasan92/man2man-sub003/internal/escrow"
	"github.com/smmonirhasan92/man2man-sub003/internal/messaging"
	"github.com/smmonirhasan92/man2man-sub003/internal/store/postgres"
	"github.com/smmonirhasan92/man2man-sub003/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	st, err := postgres.New(context.Background(), cfg.DSN)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.Close()

	notifier := alerts.NewNotifier(cfg.RedisAddr, st)
	defer notifier.Close()
	if cfg.RedisAddr != "" {
		processor := alerts.NewProcessor(cfg.RedisAddr, alerts.NewMailerFromEnv())
		processor.Start()
		defer processor.Shutdown()
	}

	stats := metrics.NewCollector()
	svc := escrow.NewService(st, notifier, stats, cfg.FeeRate)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(stats.Handler()))

	api.Register(e, api.Deps{
		Secret:   cfg.JWTSecret,
		Engine:   api.NewHandler(svc, st),
		Auth:     auth.NewHandler(st, cfg.JWTSecret),
		Messages: messaging.NewHandler(st, nil),
		Alerts:   alerts.NewHandler(st),
	})

	log.Printf("escrow engine listening on :%s", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
