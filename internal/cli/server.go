package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/config"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
	pgstore "live-quiz-service/internal/infra/postgres"
	"live-quiz-service/internal/infra/rabbit"
	redisinfra "live-quiz-service/internal/infra/redis"
	transport "live-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the live quiz server",
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
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuizzes())
	if pool != nil {
		loader = pgstore.NewQuestionLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuestionRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuestionRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuestionRepository(loader, quizTTL)
	}

	var registry app.SessionRegistry = app.NewRegistry(quizRepo)
	if redisClient != nil {
		registry = redisinfra.NewSessionRegistry(registry, redisClient, sessionTTL)
	}

	var results app.ResultStore = memory.NewResultStore()
	if pool != nil {
		results = pgstore.NewResultStore(pool)
	}

	service := app.NewQuizService(registry, results)

	if cfg.Rabbit.URL != "" {
		publisher, err := rabbit.NewPublisher(cfg.Rabbit.URL)
		if err != nil {
			return err
		}
		defer publisher.Close()
		service.SetEventSink(publisher)
	}

	wsHandler := transport.NewWSHandler(service)
	lbHandler := transport.NewLeaderboardHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	mux.Handle("/leaderboard", lbHandler)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting live quiz service on :%s", finalPort)
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

// sampleQuizzes provides demo content covering every question kind; swap the
// loader with the Postgres-backed one in production.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID: "quiz-1",
			Questions: []domain.Question{
				{
					ID:     "q1",
					Prompt: "What is 2 + 2?",
					Kind:   domain.KindSingleSelect,
					Options: []domain.Option{
						{Text: "3"},
						{Text: "4", Correct: true},
						{Text: "5"},
					},
					TimeLimit: 30,
					Points:    10,
				},
				{
					ID:     "q2",
					Prompt: "Which of these are prime?",
					Kind:   domain.KindMultiSelect,
					Options: []domain.Option{
						{Text: "2", Correct: true},
						{Text: "4"},
						{Text: "5", Correct: true},
						{Text: "9"},
					},
					TimeLimit: 45,
					Points:    20,
				},
				{
					ID:        "q3",
					Prompt:    "What is the capital of France?",
					Kind:      domain.KindFreeText,
					Accepted:  []string{"Paris"},
					TimeLimit: 30,
					Points:    10,
				},
				{
					ID:     "q4",
					Prompt: "Match the country to its capital",
					Kind:   domain.KindMatching,
					Pairs: []domain.Pair{
						{Left: "Italy", Right: "Rome"},
						{Left: "Spain", Right: "Madrid"},
					},
					TimeLimit: 60,
					Points:    30,
				},
			},
		},
	}
}
