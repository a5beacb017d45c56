package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/config"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
	"quiz-attempt-service/internal/infra/postgres"
	"quiz-attempt-service/internal/infra/rabbit"
	redisinfra "quiz-attempt-service/internal/infra/redis"
	"quiz-attempt-service/internal/infra/sqlite"
	transport "quiz-attempt-service/internal/transport/http"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runServer(ctx, *configPath, *port)
		},
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()}))
}

// backends holds the adapters chosen from config plus their teardown.
type backends struct {
	quizzes     app.QuizRepository
	catalog     app.CatalogRepository
	users       app.UserRepository
	gateway     app.SubmissionGateway
	sessions    app.SessionRepository
	checkpoints app.CheckpointStore
	notifier    app.SubmissionNotifier
	background  []func(ctx context.Context) error
	closers     []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.close()

	opts := []app.AttemptOption{
		app.WithLogger(logger),
		app.WithTickInterval(config.TTLDuration(cfg.Attempts.Tick, time.Second)),
		app.WithCheckpointGrace(config.TTLDuration(cfg.Checkpoints.Grace, 24*time.Hour)),
		app.WithRetention(config.TTLDuration(cfg.Attempts.Retention, 5*time.Minute)),
	}
	if b.notifier != nil {
		opts = append(opts, app.WithNotifier(b.notifier))
	}
	attempts := app.NewAttemptService(b.sessions, b.quizzes, b.checkpoints, b.gateway, opts...)
	catalog := app.NewCatalogService(b.catalog, b.quizzes, logger)

	secret := cfg.Auth.Secret
	if secret == "" {
		secret = uuid.NewString()
		logger.Warn("auth secret not configured; tokens will not survive a restart")
	}
	auth := app.NewAuthService(b.users, b.checkpoints, secret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour), logger)

	handler := transport.NewHandler(attempts, catalog, auth, logger)
	srv := transport.NewServer(":"+finalPort, handler.Routes(), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		return srv.Shutdown(context.Background())
	})
	for _, run := range b.background {
		run := run
		g.Go(func() error { return run(gctx) })
	}

	err = g.Wait()
	// Let in-flight submissions reach the gateway before backends close.
	attempts.Wait()
	return err
}

func openBackends(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backends, error) {
	b := &backends{}
	fail := func(err error) (*backends, error) {
		b.close()
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = redisClient.Close() })
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fail(fmt.Errorf("pinging redis: %w", err))
		}
		logger.Info("connected to redis", "addr", cfg.Redis.Addr)
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var loader app.QuizLoader
	if cfg.Postgres.URL != "" {
		db := openBun(cfg.Postgres.URL)
		b.closers = append(b.closers, func() { _ = db.Close() })
		if err := migrateDB(ctx, db, logger); err != nil {
			return fail(fmt.Errorf("running migrations: %w", err))
		}

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fail(fmt.Errorf("connecting to postgres: %w", err))
		}
		b.closers = append(b.closers, pool.Close)

		store := postgres.NewStore(db)
		loader = postgres.NewQuizLoader(pool)
		b.catalog = store
		b.users = store
		b.gateway = postgres.NewSubmissionGateway(pool, config.TTLDuration(cfg.Attempts.SubmissionTimeout, 10*time.Second))
		logger.Info("connected to postgres")
	} else {
		users := memory.NewUserStore()
		catalog := memory.NewCatalog(users, sampleQuizzes()...)
		loader = catalog
		b.catalog = catalog
		b.users = users
		b.gateway = catalog
		logger.Warn("postgres not configured; using in-memory catalog with sample quizzes")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if redisClient != nil {
		b.quizzes = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
		host, _ := os.Hostname()
		b.sessions = redisinfra.NewSessionStore(redisClient, host, redisTTL)
	} else {
		b.quizzes = memory.NewQuizRepository(loader, quizTTL)
		b.sessions = memory.NewSessionStore()
	}

	backend := cfg.Checkpoints.Backend
	if backend == "" {
		backend = "memory"
		if redisClient != nil {
			backend = "redis"
		}
	}
	switch backend {
	case "redis":
		if redisClient == nil {
			return fail(fmt.Errorf("checkpoint backend redis requires redis.addr"))
		}
		b.checkpoints = redisinfra.NewCheckpointStore(redisClient)
	case "sqlite":
		store, err := sqlite.NewCheckpointStore(cfg.Checkpoints.Path)
		if err != nil {
			return fail(fmt.Errorf("opening sqlite checkpoints: %w", err))
		}
		b.closers = append(b.closers, func() { _ = store.Close() })
		b.checkpoints = store
		b.background = append(b.background, purgeLoop(store, logger))
	case "memory":
		b.checkpoints = memory.NewCheckpointStore()
	default:
		return fail(fmt.Errorf("unknown checkpoint backend %q", backend))
	}
	logger.Info("checkpoint store ready", "backend", backend)

	if cfg.Rabbit.URL != "" {
		notifier, err := rabbit.Dial(cfg.Rabbit.URL, cfg.Rabbit.Exchange)
		if err != nil {
			return fail(err)
		}
		b.closers = append(b.closers, func() { _ = notifier.Close() })
		b.notifier = notifier
		logger.Info("publishing submissions to rabbitmq")
	}
	return b, nil
}

// purgeLoop drops expired sqlite checkpoints; Redis and memory expire on their own.
func purgeLoop(store *sqlite.CheckpointStore, logger *slog.Logger) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				n, err := store.Purge(ctx)
				if err != nil {
					logger.Warn("purge checkpoints", "error", err)
					continue
				}
				if n > 0 {
					logger.Debug("purged expired checkpoints", "count", n)
				}
			}
		}
	}
}

// sampleQuizzes seeds the in-memory catalog; swap in Postgres for real data.
func sampleQuizzes() []domain.Quiz {
	return []domain.Quiz{
		{
			ID:               "quiz-1",
			Title:            "Warm-up arithmetic",
			Author:           "Sample",
			Description:      "Two quick sums.",
			TimeLimitMinutes: 5,
			CreatedAt:        time.Date(2024, 11, 22, 0, 0, 0, 0, time.UTC),
			Questions: []domain.Question{
				{
					ID:            "q1",
					Prompt:        "What is 2 + 2?",
					Answers:       []string{"3", "4", "5", "22"},
					CorrectAnswer: 1,
				},
				{
					ID:            "q2",
					Prompt:        "What is 3 x 3?",
					Answers:       []string{"6", "33", "9", "12"},
					CorrectAnswer: 2,
				},
			},
		},
	}
}
