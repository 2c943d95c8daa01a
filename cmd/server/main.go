// Package main runs the live-commerce studio HTTP server with WebSocket
// and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/larisin-live/backend/config"
	"github.com/larisin-live/backend/internal/auth"
	"github.com/larisin-live/backend/internal/avatar"
	"github.com/larisin-live/backend/internal/catalog"
	"github.com/larisin-live/backend/internal/engage"
	"github.com/larisin-live/backend/internal/middleware"
	"github.com/larisin-live/backend/internal/models"
	"github.com/larisin-live/backend/internal/realtime"
	"github.com/larisin-live/backend/internal/session"
	"github.com/larisin-live/backend/pkg/redis"
	"github.com/larisin-live/backend/pkg/response"
	"github.com/larisin-live/backend/pkg/timer"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()

	// Redis is optional: without it the studio runs standalone.
	var bridge realtime.Bridge
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Warn("redis unavailable, running standalone", zap.Error(err))
		} else {
			defer rdb.Close()
			bridge = realtime.NewRedisBridge(rdb.Client, logger)
		}
	}

	hub := realtime.NewHub(bridge, logger)
	defer hub.Close()

	reg := timer.NewRegistry(logger)
	defer reg.CancelAll()

	store := catalog.NewStore()
	flash := catalog.NewFlashSaleManager(reg, hub, logger)
	rng := engage.NewRand()
	sim := engage.NewSimulator(reg, hub, rng, time.Duration(cfg.Stream.EngagementTickSec)*time.Second, logger)

	var notifier session.Notifier
	avatarClient := avatar.NewClient(cfg.Avatar.BaseURL, time.Duration(cfg.Avatar.TimeoutSec)*time.Second, logger)
	if avatarClient.Enabled() {
		notifier = avatarClient
	}

	mgr := session.NewManager(reg, store, flash, sim, hub, notifier, rng, session.Config{
		SpeakCooldown:     time.Duration(cfg.Stream.SpeakCooldownSec) * time.Second,
		AutoPitchInterval: time.Duration(cfg.Stream.AutoPitchIntervalMin) * time.Minute,
		ReplyDelay:        time.Duration(cfg.Stream.ReplyDelaySec) * time.Second,
	}, logger)
	defer mgr.Stop()

	// Simulated engagement feeds the same reaction paths real events would.
	sim.SetHooks(engage.Hooks{
		OnChat: func(msg models.ChatMessage) { mgr.HandleChat(msg) },
		OnGift: func(g models.Gift) { mgr.HandleGift(g) },
		OnOrder: func(o models.Order) {
			mgr.ApplyOrder(o)
		},
	})

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	exchanger := auth.NewExchanger(
		cfg.Identity.BaseURL,
		cfg.Identity.ClientKey,
		cfg.Identity.ClientSecret,
		cfg.Identity.RedirectURI,
		time.Duration(cfg.Identity.TimeoutSec)*time.Second,
		logger,
	)
	authHandler := auth.NewHandler(exchanger, jwtService, logger)
	sessionHandler := session.NewHandler(mgr, store)
	avatarHandler := avatar.NewHandler(avatarClient)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	router.GET("/auth/callback", authHandler.Callback)

	api := router.Group("/api")
	if cfg.Server.AuthRequired {
		api.Use(middleware.SessionAuth(jwtService))
	}
	sessionHandler.Register(api)
	api.GET("/avatar/frame", avatarHandler.Frame)

	// WebSocket (token in query, only checked when auth is required)
	var validate func(token string) error
	if cfg.Server.AuthRequired {
		validate = func(token string) error {
			_, err := jwtService.Validate(token)
			return err
		}
	}
	router.GET("/ws", realtime.ServeWs(hub, mgr, validate, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	mgr.Stop()
	reg.CancelAll()
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
