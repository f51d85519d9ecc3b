package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// POST /api/data/:moduleId/:entityId
func CreateRecordHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var fields map[string]any
		if err := c.ShouldBindJSON(&fields); err != nil {
			badJSON(c)
			return
		}

		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		id, err := ws.Records.Create(c.Request.Context(), c.Param("moduleId"), c.Param("entityId"), fields)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": id})
	}
}

// GET /api/data/:moduleId/:entityId
func ListRecordsHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		list, err := ws.Records.List(c.Request.Context(), c.Param("moduleId"), c.Param("entityId"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// PATCH /api/data/:moduleId/:entityId/:id
func UpdateRecordHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var fields map[string]any
		if err := c.ShouldBindJSON(&fields); err != nil {
			badJSON(c)
			return
		}

		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		err := ws.Records.Update(c.Request.Context(), c.Param("moduleId"), c.Param("entityId"), c.Param("id"), fields)
		if err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// DELETE /api/data/:moduleId/:entityId/:id
func DeleteRecordHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		err := ws.Records.Delete(c.Request.Context(), c.Param("moduleId"), c.Param("entityId"), c.Param("id"))
		if err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
