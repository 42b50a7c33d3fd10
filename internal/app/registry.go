package app

import (
	"database/sql"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"carelink/internal/messaging/kafka"
	"carelink/internal/rbac"
	"carelink/internal/rbac/infra"
	"carelink/internal/schedule"
	"carelink/internal/task"
	"carelink/internal/visit"
	"carelink/internal/visitlog"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	clock := schedule.SystemClock()

	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	visitRepo := visit.NewRepository(gormDB)
	visitLogRepo := visitlog.NewRepository(gormDB)
	taskRepo := task.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer(filepath.Join("internal", "rbac", "infra", "model.conf"))
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)

	// --- Services ---
	visitLogService := visitlog.NewService(visitLogRepo)
	visitService := visit.NewServiceWithOutbox(db, visitRepo, visitLogRepo, outboxRepo, rdb, clock)
	taskService := task.NewService(db, taskRepo, visitLogRepo, clock)

	// --- Handlers ---
	visitHandler := visit.NewHandlerWithRedis(visitService, visitLogService, rdb)
	taskHandler := task.NewHandler(taskService)
	rbacHandler := rbac.NewHandler(rbacService, rbacRepo)

	// --- Routes Registration ---
	api := router.Group("/api")
	{
		visit.RegisterRoutes(api, visitHandler, rbacService, rdb)
		task.RegisterRoutes(api, taskHandler, rbacService)
		rbac.RegisterRoutes(api, rbacHandler, rbacService)
	}

	return nil
}
