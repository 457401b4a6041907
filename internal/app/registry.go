package app

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/murabitopit/attendance-app/internal/balance"
	"github.com/murabitopit/attendance-app/internal/dayclose"
	"github.com/murabitopit/attendance-app/internal/messaging/kafka"
	"github.com/murabitopit/attendance-app/internal/reconcile"
	"github.com/murabitopit/attendance-app/internal/record"
	"github.com/murabitopit/attendance-app/internal/shared/storecache"
	"github.com/murabitopit/attendance-app/internal/shared/userlock"
	"github.com/murabitopit/attendance-app/internal/sweep"
	"github.com/murabitopit/attendance-app/internal/user"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Shared infrastructure ---
	cache := storecache.New(rdb)
	locker := userlock.New(rdb)
	throttle := sweep.NewThrottle()

	// --- Repositories ---
	userRepo := user.NewRepository(gormDB)
	recordRepo := record.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- Services ---
	userService := user.NewService(db, userRepo, cache)
	balanceService := balance.NewService(db, userRepo, locker, cache)
	recordService := record.NewService(db, recordRepo, userRepo, outboxRepo, locker, cache)
	reconcileService := reconcile.NewService(db, recordRepo, userRepo, outboxRepo, locker, cache)
	daycloseService := dayclose.NewService(db, recordRepo, outboxRepo, cache)

	// --- Handlers ---
	userHandler := user.NewHandler(userService)
	balanceHandler := balance.NewHandler(balanceService)
	recordHandler := record.NewHandler(recordService)
	reconcileHandler := reconcile.NewHandler(reconcileService)
	sweepHandler := sweep.NewHandler(balanceService, daycloseService, throttle)

	// --- Routes Registration ---
	api := router.Group("/api/v1")
	{
		user.RegisterRoutes(api, userHandler)
		balance.RegisterRoutes(api, balanceHandler)
		record.RegisterRoutes(api, recordHandler)
		reconcile.RegisterRoutes(api, reconcileHandler)
		sweep.RegisterRoutes(api, sweepHandler)
	}

	return nil
}
