package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/david-fold-studio/life-sphere-habits/core/cache"
	"github.com/david-fold-studio/life-sphere-habits/core/config"
	"github.com/david-fold-studio/life-sphere-habits/core/database"
	"github.com/david-fold-studio/life-sphere-habits/core/logger"
	"github.com/david-fold-studio/life-sphere-habits/modules/calendar"
	"github.com/david-fold-studio/life-sphere-habits/modules/notification"
	notifWorker "github.com/david-fold-studio/life-sphere-habits/modules/notification/worker"
	"github.com/david-fold-studio/life-sphere-habits/modules/schedule"
)

// Run wires config, stores, background worker and module routes, then
// serves until interrupted.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Server.LogLevel)

	location, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		logger.Warn("Unknown timezone, falling back to UTC", "timezone", cfg.Server.Timezone)
		location = time.UTC
	}

	db, err := database.InitDB(database.DatabaseConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
	})
	if err != nil {
		return err
	}

	cacheStore, err := cache.NewCache(cache.CacheConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RequestID())

	e.GET("/health", func(c echo.Context) error {
		if err := cacheStore.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Initialize modules
	notifSvc := notification.Init(e, db, asynqClient)
	calendarSvc := calendar.Init(e, db, location)
	schedule.Init(e, db, cacheStore, calendarSvc, notifSvc, location)

	worker := notifWorker.NewWorker(redisOpt, notifSvc)
	if err := worker.Start(); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("Server stopped", "error", err)
		}
	}()
	logger.Info("Server started", "port", cfg.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	worker.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(ctx)
}
