package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/polyphony-chat/symfonia-sub000/internal/api"
	"github.com/polyphony-chat/symfonia-sub000/internal/auth"
	"github.com/polyphony-chat/symfonia-sub000/internal/config"
	"github.com/polyphony-chat/symfonia-sub000/internal/gateway"
	"github.com/polyphony-chat/symfonia-sub000/internal/postgres"
	"github.com/polyphony-chat/symfonia-sub000/internal/role"
	"github.com/polyphony-chat/symfonia-sub000/internal/valkey"
)

func main() {
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Gateway stopped")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.IsDevelopment() {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Logger()
	}

	log.Info().Str("env", cfg.ServerEnv).Msg("Starting Symfonia gateway")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect PostgreSQL
	db, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConn, cfg.DatabaseMinConn)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()
	log.Info().Msg("PostgreSQL connected")

	// Run migrations
	if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info().Msg("Database migrations complete")

	// Connect Valkey
	rdb, err := valkey.Connect(ctx, cfg.ValkeyURL, 5*time.Second)
	if err != nil {
		return fmt.Errorf("connect valkey: %w", err)
	}
	defer func() { _ = rdb.Close() }()
	log.Info().Msg("Valkey connected")

	// Seed the role membership index from persistent storage. After this point the REST side keeps the index current
	// through the registry hooks.
	roleRepo := role.NewPGRepository(db, log.Logger)
	membership, err := role.SeedMembership(ctx, roleRepo)
	if err != nil {
		return fmt.Errorf("seed role membership: %w", err)
	}
	roles := gateway.NewRoleUserIndex()
	roles.Seed(membership)
	log.Info().Int("roles", roles.RoleCount()).Msg("Role membership index seeded")

	reg := gateway.NewRegistry(roles, cfg.GatewayResumeWindow, cfg.GatewayInboxBuffer, log.Logger)

	verify := func(token string) (uuid.UUID, error) {
		return auth.VerifyUser(token, cfg.JWTSecret, cfg.ServerURL)
	}
	hub := gateway.NewHub(reg, verify, cfg, log.Logger)

	// Background loops: pub/sub event bridge and resumable-session eviction.
	go func() {
		if err := hub.Run(ctx, rdb); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Event bridge stopped")
		}
	}()
	go reg.RunEviction(ctx, cfg.GatewayEvictionInterval)

	app := fiber.New(fiber.Config{
		AppName: "Symfonia Gateway",
	})

	app.Get("/gateway", api.NewGatewayHandler(hub).Upgrade)
	app.Get("/healthz", api.NewHealthHandler(db, redisPinger{client: rdb}, reg).Health)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("Shutting down gateway")
		cancel()
		hub.Shutdown()
		_ = app.Shutdown()
	}()

	log.Info().Str("addr", cfg.BindAddr()).Msg("Gateway listening")
	if err := app.Listen(cfg.BindAddr(), fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// redisPinger adapts *redis.Client to the api.Pinger interface.
type redisPinger struct{ client *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.client.Ping(ctx).Err() }
