package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flashpack-service/internal/app"
	"flashpack-service/internal/config"
	"flashpack-service/internal/domain"
	"flashpack-service/internal/infra/memory"
	pgloader "flashpack-service/internal/infra/postgres"
	redisinfra "flashpack-service/internal/infra/redis"
	"flashpack-service/internal/reminder"
	"flashpack-service/internal/scheduler"
	transport "flashpack-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the flashpack server",
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
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.PackLoader = memory.NewStaticPackLoader(samplePacks())
	if pool != nil {
		loader = pgloader.NewPackLoader(pool)
	}
	packTTL := config.TTLDuration(cfg.Study.PackTTL, 10*time.Minute)
	catalog := memory.NewPackCatalog(loader, packTTL)

	var registry app.SessionRegistry = memory.NewSessionRegistry()
	if redisClient != nil {
		registry = redisinfra.NewSessionRegistry(redisClient, redisTTL)
	}

	sched := scheduler.New(cfg.Curriculum(), nil)
	broadcaster := transport.NewBroadcaster()
	board := transport.NewSignalBoard()
	notifier := transport.NewSessionNotifier(broadcaster, board)

	study := app.NewStudyService(memory.NewDeckStore(), catalog, sched, notifier)
	intervals := app.IntervalPolicy{
		Min:     config.TTLDuration(cfg.Study.IntervalMin, 5*time.Second),
		Max:     config.TTLDuration(cfg.Study.IntervalMax, 60*time.Second),
		Default: config.TTLDuration(cfg.Study.IntervalDefault, 10*time.Second),
	}
	coordinator := app.NewSessionCoordinator(registry, broadcaster, board, notifier, intervals)

	reminders := reminder.NewService(study, notifier, config.TTLDuration(cfg.Study.ReminderPeriod, 24*time.Hour))
	reminders.Start()
	defer reminders.Stop()

	wsHandler := transport.NewWSHandler(study, coordinator, reminders, broadcaster, board)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting flashpack service on :%s", finalPort)
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

// samplePacks provides minimal study material; swap the loader for the
// Postgres-backed one in production.
func samplePacks() map[string]domain.Pack {
	return map[string]domain.Pack{
		"capitals": {
			ID:         "capitals",
			Name:       "European Capitals",
			Category:   "Geography",
			Difficulty: "Easy",
			Entries: []domain.CardEntry{
				{Question: "Capital of France?", Answer: "Paris"},
				{Question: "Capital of Spain?", Answer: "Madrid"},
				{Question: "Capital of Poland?", Answer: "Warsaw"},
			},
		},
	}
}
