package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/murabitopit/attendance-app/internal/balance"
	"github.com/murabitopit/attendance-app/internal/dayclose"
	"github.com/murabitopit/attendance-app/internal/messaging/kafka"
	"github.com/murabitopit/attendance-app/internal/messaging/kafka/producer"
	"github.com/murabitopit/attendance-app/internal/record"
	"github.com/murabitopit/attendance-app/internal/shared/connection"
	"github.com/murabitopit/attendance-app/internal/shared/storecache"
	"github.com/murabitopit/attendance-app/internal/shared/userlock"
	"github.com/murabitopit/attendance-app/internal/sweep"
	"github.com/murabitopit/attendance-app/internal/user"
)

// RunWorker drives the outbox publisher plus the periodic reset and
// force-close sweeps.
func RunWorker() error {
	logger := zap.L().Named("app.worker")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(kafkaBroker, 5)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	cache := storecache.New(redisClient)
	locker := userlock.New(redisClient)

	userRepo := user.NewRepository(gormDB)
	recordRepo := record.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(sqlDB)

	balanceService := balance.NewService(sqlDB, userRepo, locker, cache)
	daycloseService := dayclose.NewService(sqlDB, recordRepo, outboxRepo, cache)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outboxWorker := producer.NewWorker(outboxRepo, kafkaWriter, logger, 3*time.Second)
	go outboxWorker.Run(ctx)

	runner := sweep.NewRunner(balanceService, daycloseService, sweep.NewThrottle())
	go runner.Run(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()

	return nil
}
