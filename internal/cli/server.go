package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crocodile-service/internal/app"
	"crocodile-service/internal/config"
	"crocodile-service/internal/infra/memory"
	pgstore "crocodile-service/internal/infra/postgres"
	redisstore "crocodile-service/internal/infra/redis"
	"crocodile-service/internal/logger"
	transport "crocodile-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Pretty)

	if cfg.Postgres.URL != "" {
		if err := RunMigrations(ctx, cfg.Postgres.URL); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.WordLoader = memory.NewFileWordLoader(cfg.Words.File)
	if pool != nil {
		loader = pgstore.NewWordLoader(pool)
	}

	var (
		words app.WordSource
		games app.GameRegistry
		stats app.StatsRepository
	)
	switch {
	case redisClient != nil:
		words = redisstore.NewWordSource(redisClient, loader, wordsTTL(cfg))
		games = redisstore.NewGameRegistry(redisClient, redisTTL)
	default:
		words = memory.NewWordSource(loader, wordsTTL(cfg))
		games = memory.NewGameRegistry()
	}
	switch {
	case pool != nil:
		stats = pgstore.NewStatsRepository(pool)
	case redisClient != nil:
		stats = redisstore.NewStatsRepository(redisClient)
	default:
		log.Warn().Msg("no postgres or redis configured, stats are kept in memory")
		stats = memory.NewStatsRepository()
	}

	bus := app.NewBroadcaster(64)
	rounds := app.NewRoundService(games, words, stats, bus, roundConfig(cfg), app.WithScoring(scoringConfig(cfg)))
	resets := app.NewResetService(stats, bus, resetConfig(cfg))
	wsHandler := transport.NewWSHandler(rounds, app.NewChatRouter(rounds, resets), bus)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(wsHandler, rounds),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting crocodile service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
