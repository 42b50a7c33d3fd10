package rbac

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ContextKey string

const (
	ContextUserID   ContextKey = "user_id"
	ContextAgencyID ContextKey = "agency_id"
)

// Authorize gates a route on an agency-scoped permission. The auth
// middleware must have run first and set the context keys.
func Authorize(service Service, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok1 := c.Get(string(ContextUserID))
		agencyID, ok2 := c.Get(string(ContextAgencyID))

		if !ok1 || !ok2 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "missing auth context",
			})
			c.Abort()
			return
		}

		req := EnforceRequest{
			UserID:   userID.(string),
			AgencyID: agencyID.(string),
			Resource: resource,
			Action:   action,
		}

		allowed, err := service.Enforce(req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": err.Error(),
			})
			c.Abort()
			return
		}

		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "forbidden",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
