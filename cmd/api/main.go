package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ZobairQ/taskflow-sub002/internal/api"
	"github.com/ZobairQ/taskflow-sub002/internal/auth"
	"github.com/ZobairQ/taskflow-sub002/internal/config"
	"github.com/ZobairQ/taskflow-sub002/internal/domain"
	"github.com/ZobairQ/taskflow-sub002/internal/outbox"
	persistence "github.com/ZobairQ/taskflow-sub002/internal/persistence/postgres"
	httptransport "github.com/ZobairQ/taskflow-sub002/internal/transport/http"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Error("postgres connection failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := persistence.Migrate(ctx, pool); err != nil {
		logger.Error("schema migration failed", "err", err)
		os.Exit(1)
	}

	producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
	defer producer.Close()

	dispatcher := outbox.NewDispatcher(pool, producer, logger, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
	go dispatcher.Start(ctx)

	taskRepo := persistence.NewTaskRepository(pool)
	depRepo := persistence.NewDependencyRepository(pool)
	projectRepo := persistence.NewProjectRepository(pool)
	userRepo := persistence.NewUserRepository(pool)
	tokenRepo := persistence.NewTokenRepository(pool)
	gamificationRepo := persistence.NewGamificationRepository(pool)
	achievementRepo := persistence.NewAchievementRepository(pool)
	challengeRepo := persistence.NewChallengeRepository(pool)
	pomodoroRepo := persistence.NewPomodoroRepository(pool)
	templateRepo := persistence.NewTemplateRepository(pool)
	analyticsRepo := persistence.NewAnalyticsRepository(pool)

	taskService := domain.NewTaskService(taskRepo, depRepo)

	handler := api.NewHandler(api.HandlerConfig{
		Users:        domain.NewUserService(userRepo, tokenRepo, cfg.BcryptCost, cfg.RefreshTokenTTL),
		Projects:     domain.NewProjectService(projectRepo),
		Tasks:        taskService,
		Gamification: domain.NewGamificationService(gamificationRepo),
		Achievements: domain.NewAchievementService(achievementRepo),
		Challenges:   domain.NewChallengeService(challengeRepo),
		Pomodoro:     domain.NewPomodoroService(pomodoroRepo),
		Templates:    domain.NewTemplateService(templateRepo, taskService),
		Analytics:    domain.NewAnalyticsService(analyticsRepo),
		AuthConfig:   auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer},
		AccessTTL:    cfg.AccessTokenTTL,
	})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Simple CORS middleware for local dev
	cors := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "http://localhost:5173")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	// Basic request logger
	requestLog := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Info("request", "method", r.Method, "path", r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}, nil)

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, authMiddleware.Wrap(requestLog(cors(mux))))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("taskflow api listening", "address", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}

	dispatcher.Wait()
}
