package app

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/murabitopit/attendance-app/internal/messaging/kafka"
	"github.com/murabitopit/attendance-app/internal/middleware"
	"github.com/murabitopit/attendance-app/internal/record"
	"github.com/murabitopit/attendance-app/internal/shared/connection"
	"github.com/murabitopit/attendance-app/internal/user"
)

func BuildApp(router *gin.Engine) error {
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
	log.Println("✅ Database connection established")

	if err := gormDB.AutoMigrate(&user.User{}, &record.Record{}, &kafka.OutboxModel{}); err != nil {
		return err
	}

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}
	log.Println("✅ Redis connection established")

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}

	router.Use(middleware.RequestID())
	router.Use(middleware.ExtractActor())
	router.Use(middleware.ContextLogger(zap.L()))
	router.Use(middleware.RateLimitByIP(20, 40))

	return registerModules(router, sqlDB, gormDB, redisClient)
}
