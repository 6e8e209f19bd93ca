package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/voxlink/huddle/internal/adapters/http"
	"github.com/voxlink/huddle/internal/adapters/ws"
	"github.com/voxlink/huddle/internal/app"
	"github.com/voxlink/huddle/internal/config"
	"github.com/voxlink/huddle/internal/core"
	"github.com/voxlink/huddle/internal/transport/redisbridge"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	hub := ws.NewHub()
	var transport core.Transport = hub
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		bridge := redisbridge.New(hub, rdb, "huddle:broadcast")
		go bridge.Run(ctx)
		transport = bridge
		log.Info().Str("addr", cfg.RedisAddr).Msg("broadcast bridge enabled")
	}

	registry := app.NewRegistry(cfg.MaxRoomSize)
	coordinator := &app.Coordinator{
		Registry:  registry,
		Identity:  app.NewIdentityResolver(cfg.AuthSecret),
		Transport: transport,
		MultiRoom: cfg.MultiRoom,
	}

	ctl := &ws.Controller{
		Hub:         hub,
		Coordinator: coordinator,
		Relay:       app.NewRelay(registry, transport),
		ChatLimiter: app.NewChatRateLimiter(cfg.ChatRateLimit, cfg.ChatRateInterval),
	}

	r := router.SetupRouter(ctx, cfg, ctl, registry)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Huddle server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
