package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"trivia-showdown/internal/app"
	"trivia-showdown/internal/config"
	"trivia-showdown/internal/infra/files"
	"trivia-showdown/internal/infra/memory"
	"trivia-showdown/internal/infra/postgres"
	redisstore "trivia-showdown/internal/infra/redis"
	transport "trivia-showdown/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 12*time.Hour)

	entries := make([]files.SetEntry, 0, len(cfg.Questions.Sets))
	for _, s := range cfg.Questions.Sets {
		entries = append(entries, files.SetEntry{ID: s.ID, Title: s.Title, Category: s.Category, Path: s.Path})
	}
	fileLoader := files.NewQuestionSetLoader(cfg.Questions.Dir, entries)

	var loader memory.QuestionSetLoader = fileLoader
	var soloRepo app.SoloScoreRepository = memory.NewSoloScoreStore()
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		pgLoader := postgres.NewQuestionSetLoader(pool)
		seedQuestionSets(ctx, fileLoader, pgLoader, entries)
		loader = pgLoader

		db := openBun(cfg.Postgres.URL)
		defer db.Close()
		soloRepo = postgres.NewSoloScoreStore(db)
	}

	setsTTL := config.TTLDuration(cfg.Questions.TTL, 10*time.Minute)
	var sets app.QuestionSetRepository
	var store app.MatchStore
	if redisClient != nil {
		sets = redisstore.NewQuestionSetRepository(redisClient, loader, setsTTL)
		store = redisstore.NewMatchStore(redisClient, redisTTL)
	} else {
		sets = memory.NewQuestionSetRepository(loader, setsTTL)
		store = memory.NewMatchStore()
	}

	matches := app.NewMatchService(store, sets, serviceOptions(cfg))
	retention := time.Duration(cfg.Solo.RetentionDays) * 24 * time.Hour
	solo := app.NewSoloService(soloRepo, cfg.Solo.OwnerPasscode, retention)

	router := transport.NewRouter(
		transport.NewAPIHandler(matches, solo, cfg.Server.PublicURL),
		transport.NewWSHandler(matches),
	)

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

func serviceOptions(cfg config.Config) app.Options {
	opts := app.DefaultOptions()
	if cfg.Match.DefaultCode != "" {
		opts.DefaultCode = cfg.Match.DefaultCode
	}
	if cfg.Match.DefaultPin != "" {
		opts.DefaultPin = cfg.Match.DefaultPin
	}
	opts.Scoring.Base = config.IntOr(cfg.Match.BaseCorrect, opts.Scoring.Base)
	opts.Scoring.SpeedMax = config.IntOr(cfg.Match.SpeedMax, opts.Scoring.SpeedMax)
	opts.Scoring.First = config.IntOr(cfg.Match.FirstCorrect, opts.Scoring.First)
	opts.TimePerQSec = config.IntOr(cfg.Match.TimePerQuestion, opts.TimePerQSec)
	opts.ShuffleQuestions = config.BoolOr(cfg.Match.ShuffleQuestions, opts.ShuffleQuestions)
	opts.ShuffleAnswers = config.BoolOr(cfg.Match.ShuffleAnswers, opts.ShuffleAnswers)
	opts.MaxAttempts = config.IntOr(cfg.Tx.MaxAttempts, opts.MaxAttempts)
	opts.InitialBackoff = config.TTLDuration(cfg.Tx.InitialBackoff, opts.InitialBackoff)
	opts.MaxBackoff = config.TTLDuration(cfg.Tx.MaxBackoff, opts.MaxBackoff)
	return opts
}

// seedQuestionSets copies the file-based sets into Postgres so the database
// holds the same content the files ship with.
func seedQuestionSets(ctx context.Context, from *files.QuestionSetLoader, to *postgres.QuestionSetLoader, entries []files.SetEntry) {
	for _, e := range entries {
		set, err := from.LoadQuestionSet(ctx, e.ID)
		if err != nil {
			log.Printf("seed question set %s: %v", e.ID, err)
			continue
		}
		if err := to.SaveQuestionSet(ctx, set); err != nil {
			log.Printf("seed question set %s: %v", e.ID, err)
		}
	}
}
