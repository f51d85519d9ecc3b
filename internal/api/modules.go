package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"construktor/internal/apperr"
)

// GET /api/modules
func ListModulesHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		list, err := ws.Modules.LoadModules(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"modules": list, "order": ws.Modules.Order()})
	}
}

// POST /api/modules
func CreateModuleHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name string `json:"name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badJSON(c)
			return
		}

		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		id, err := ws.Modules.CreateModule(c.Request.Context(), req.Name)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": id, "name": req.Name})
	}
}

// DELETE /api/modules/:moduleId
func DeleteModuleHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		if err := ws.Modules.DeleteModule(c.Request.Context(), c.Param("moduleId")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// PUT /api/modules/order
func SaveModuleOrderHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Order []string `json:"order"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badJSON(c)
			return
		}

		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		if err := ws.Modules.SaveOrder(c.Request.Context(), req.Order); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": ws.Modules.Order()})
	}
}

// GET /api/modules/:moduleId/entities/:entityId/schema
func GetSchemaHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		sch, err := ws.Repo.LoadEntitySchema(c.Request.Context(), c.Param("moduleId"), c.Param("entityId"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, sch)
	}
}

// POST /api/modules/:moduleId/entities
// Размещает каталожную сущность в модуле; повторное размещение — no-op.
func PlaceEntityHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			EntityID string `json:"entityId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badJSON(c)
			return
		}

		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		ctx := c.Request.Context()
		if _, err := ws.Catalog.LoadAll(ctx); err != nil {
			fail(c, err)
			return
		}
		ent, ok := ws.Catalog.Find(req.EntityID)
		if !ok {
			fail(c, apperr.Validation("entityId", "entity not found in the catalog"))
			return
		}

		created, err := ws.Modules.SaveEntityToModule(ctx, c.Param("moduleId"), ent.ID, ent.Name)
		if err != nil {
			fail(c, err)
			return
		}
		if !created {
			c.JSON(http.StatusOK, gin.H{"created": false})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"created": true})
	}
}

// DELETE /api/modules/:moduleId/entities/:entityId
func RemoveEntityHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		err := ws.Modules.DeleteEntityFromModule(c.Request.Context(), c.Param("moduleId"), c.Param("entityId"))
		if err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
