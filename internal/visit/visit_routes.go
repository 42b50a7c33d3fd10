package visit

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"carelink/internal/middleware"
	"carelink/internal/rbac"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	rdb ...*redis.Client,
) {
	var redisClient *redis.Client
	if len(rdb) > 0 {
		redisClient = rdb[0]
	}

	roster := r.Group("/rostering/tasks")
	roster.Use(middleware.AuthMiddleware())
	{
		roster.GET("/carer/:userId/visits", rbac.Authorize(rbacService, "visit", "read"), handler.ListCarerVisits)

		visits := roster.Group("/visits")
		{
			visits.GET("/:visitId", rbac.Authorize(rbacService, "visit", "read"), handler.GetByID)
			visits.GET("/:visitId/logs", rbac.Authorize(rbacService, "visit", "read"), handler.GetLogs)
			if redisClient != nil {
				visits.POST(
					"/:visitId/clockin",
					middleware.Idempotency(redisClient),
					rbac.Authorize(rbacService, "visit", "clock"),
					handler.ClockIn,
				)
				visits.POST(
					"/:visitId/clockout",
					middleware.Idempotency(redisClient),
					rbac.Authorize(rbacService, "visit", "clock"),
					handler.ClockOut,
				)
			} else {
				visits.POST("/:visitId/clockin", rbac.Authorize(rbacService, "visit", "clock"), handler.ClockIn)
				visits.POST("/:visitId/clockout", rbac.Authorize(rbacService, "visit", "clock"), handler.ClockOut)
			}
			visits.POST("/:visitId/assign", rbac.Authorize(rbacService, "visit", "assign"), handler.Assign)
			visits.POST("/:visitId/assign-batch", rbac.Authorize(rbacService, "visit", "assign"), handler.AssignBatch)
		}
	}
}
