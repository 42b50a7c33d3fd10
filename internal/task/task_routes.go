package task

import (
	"github.com/gin-gonic/gin"

	"carelink/internal/middleware"
	"carelink/internal/rbac"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
) {
	tasks := r.Group("/rostering/tasks")
	tasks.Use(middleware.AuthMiddleware())
	{
		tasks.PATCH("/:taskId", rbac.Authorize(rbacService, "task", "update"), handler.Update)
	}
}
