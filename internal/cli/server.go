package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"plotline-service/internal/app"
	"plotline-service/internal/catalog"
	"plotline-service/internal/config"
	"plotline-service/internal/infra/memory"
	pgstore "plotline-service/internal/infra/postgres"
	redisstore "plotline-service/internal/infra/redis"
	transport "plotline-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia backend",
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

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	// Profiles live in Postgres when configured, otherwise in process
	// memory. Redis, when configured, caches the leaderboard read path in
	// front of either store.
	var profiles app.ProfileRepository = memory.NewProfileStore()
	if pool != nil {
		profiles = pgstore.NewProfileStore(pool)
	}
	if redisClient != nil {
		cacheTTL := config.TTLDuration(cfg.Leaderboard.CacheTTL, 30*time.Second)
		profiles = redisstore.NewLeaderboardCache(redisClient, profiles, cacheTTL)
	}

	service := app.NewProfileService(profiles, cfg.Leaderboard.Limit)
	apiHandler := transport.NewAPIHandler(service)
	wsHandler := transport.NewWSHandler(service, catalog.Default())

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/user", apiHandler.HandleUser)
	mux.HandleFunc("/api/leaderboard", apiHandler.HandleLeaderboard)
	mux.HandleFunc("/ws/play", wsHandler.ServePlay)
	mux.HandleFunc("/ws/leaderboard", wsHandler.ServeLeaderboard)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting plotline service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
