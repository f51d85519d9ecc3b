package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/preferences/:key
// ?default= — значение по умолчанию (json), если настройка не сохранена.
func GetPreferenceHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		ws.Prefs.Load(c.Request.Context())

		var def any
		if raw := c.Query("default"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &def); err != nil {
				def = raw // не json — трактуем как строку
			}
		}
		var value any
		if err := ws.Prefs.Get(c.Param("key"), &value, def); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"key": c.Param("key"), "value": value})
	}
}

// PUT /api/preferences/:key
func SavePreferenceHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Value any `json:"value"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badJSON(c)
			return
		}

		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		if err := ws.Prefs.Save(c.Request.Context(), c.Param("key"), req.Value); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
