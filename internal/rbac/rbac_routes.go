package rbac

import (
	"github.com/gin-gonic/gin"

	"carelink/internal/middleware"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, service Service) {
	group := r.Group("/rbac")
	group.Use(middleware.AuthMiddleware())
	{
		group.POST("/enforce", handler.Enforce)
		group.GET("/roles", Authorize(service, "role", "read"), handler.ListRoles)
		group.GET("/permissions", Authorize(service, "role", "read"), handler.ListPermissions)
	}
}
