package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"github.com/ZobairQ/taskflow-sub002/internal/config"
	"github.com/ZobairQ/taskflow-sub002/internal/consumer"
	"github.com/ZobairQ/taskflow-sub002/internal/domain"
	persistence "github.com/ZobairQ/taskflow-sub002/internal/persistence/postgres"
	"github.com/ZobairQ/taskflow-sub002/internal/scheduler"
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

	gamificationRepo := persistence.NewGamificationRepository(pool)
	challengeRepo := persistence.NewChallengeRepository(pool)
	achievementRepo := persistence.NewAchievementRepository(pool)
	analyticsRepo := persistence.NewAnalyticsRepository(pool)

	handler := consumer.Fanout{
		consumer.NewAnalyticsHandler(analyticsRepo),
		consumer.NewChallengeHandler(domain.NewChallengeService(challengeRepo)),
		consumer.NewAchievementHandler(domain.NewAchievementService(achievementRepo), logger),
	}

	jobs, err := scheduler.New(gamificationRepo, challengeRepo, logger)
	if err != nil {
		logger.Error("scheduler setup failed", "err", err)
		os.Exit(1)
	}
	jobs.Start()
	defer jobs.Stop()

	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: promhttp.Handler()}

	go func() {
		logger.Info("worker metrics listening", "address", cfg.MetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "err", err)
		}
	}()

	var wg sync.WaitGroup
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         cfg.KafkaBrokers,
		GroupID:         cfg.KafkaGroupID,
		Topic:           persistence.TopicTaskEvents,
		MinBytes:        1e3,
		MaxBytes:        10e6,
		CommitInterval:  time.Second,
		RetentionTime:   24 * time.Hour,
		ReadLagInterval: -1,
	})

	proc := consumer.NewProcessor(reader, handler, consumer.WithLogger(logger))

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer reader.Close()

		logger.Info("worker consumer started", "topic", persistence.TopicTaskEvents, "group", cfg.KafkaGroupID)
		if err := proc.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("consumer stopped", "err", err)
		}
	}()

	<-stop
	logger.Info("worker shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown failed", "err", err)
	}

	wg.Wait()
}
