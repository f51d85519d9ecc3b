package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/meta — без авторизации: liveness + витрина типов полей.
func MetaHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":    "construktor",
			"fieldTypes": len(hub.FieldTypes.Types()),
		})
	}
}
