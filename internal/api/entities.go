package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/field-types
func FieldTypesHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"types": hub.FieldTypes.Types()})
	}
}

// GET /api/entities
func ListEntitiesHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		list, err := ws.Catalog.LoadAll(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// POST /api/entities
func CreateEntityHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name string `json:"name"`
			Icon string `json:"icon"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badJSON(c)
			return
		}

		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		id, err := ws.Catalog.Create(c.Request.Context(), req.Name, req.Icon)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": id, "name": req.Name, "icon": req.Icon})
	}
}

// DELETE /api/entities/:entityId
// Удаляет сущность из каталога и каскадно все её размещения в модулях.
func DeleteEntityHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		if err := ws.Catalog.Delete(c.Request.Context(), c.Param("entityId")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
