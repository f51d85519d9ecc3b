package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"construktor/internal/apperr"
	"construktor/internal/editor"
	"construktor/internal/schema"
)

func editorState(ws *Workspace) gin.H {
	if !ws.Editor.IsOpen() {
		return gin.H{"open": false}
	}
	cur := ws.Editor.Current()
	return gin.H{
		"open":        true,
		"title":       cur.Title(),
		"isSubEntity": cur.IsSubEntity,
		"breadcrumb":  ws.Editor.Breadcrumb(),
		"depth":       ws.Editor.Depth(),
		"attributes":  ws.Editor.Attributes(),
	}
}

// POST /api/editor/open
// Открывает редактор структуры сущности, размещённой в модуле.
func EditorOpenHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ModuleID string `json:"moduleId"`
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

		// открытие с корня всегда сбрасывает предыдущую навигацию
		ws.Editor.Close()
		err := ws.Editor.Open(ctx, editor.Context{
			ModuleID:   req.ModuleID,
			EntityID:   ent.ID,
			EntityName: ent.Name,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, editorState(ws))
	}
}

// GET /api/editor
func EditorStateHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()
		c.JSON(http.StatusOK, editorState(ws))
	}
}

// POST /api/editor/fields
// kind: primitive | sub-entity(independent) | relationship.
func EditorAddFieldHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Label          string `json:"label"`
			Type           string `json:"type"`
			SubType        string `json:"subType"`
			TargetEntityID string `json:"targetEntityId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badJSON(c)
			return
		}

		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		var (
			attr schema.Attribute
			err  error
		)
		switch {
		case req.Type == schema.TypeSubEntity && req.SubType == schema.SubRelationship:
			attr, err = ws.Editor.AddRelationship(req.Label, req.TargetEntityID)
		case req.Type == schema.TypeSubEntity:
			attr, err = ws.Editor.AddIndependent(req.Label)
		default:
			attr, err = ws.Editor.AddPrimitive(req.Label, req.Type)
		}
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, attr)
	}
}

// DELETE /api/editor/fields/:fieldId
func EditorRemoveFieldHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		if !ws.Editor.RemoveField(c.Param("fieldId")) {
			fail(c, apperr.Validation("fieldId", "field not found in the current structure"))
			return
		}
		c.JSON(http.StatusOK, editorState(ws))
	}
}

// POST /api/editor/fields/:fieldId/open
func EditorDrillInHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		if err := ws.Editor.DrillIn(c.Request.Context(), c.Param("fieldId")); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, editorState(ws))
	}
}

// POST /api/editor/back
// Возврат без сохранения: правки текущего уровня пропадают.
func EditorBackHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		moved, err := ws.Editor.Back(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		state := editorState(ws)
		state["moved"] = moved
		c.JSON(http.StatusOK, state)
	}
}

// POST /api/editor/save
func EditorSaveHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		if err := ws.Editor.Save(c.Request.Context()); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, editorState(ws))
	}
}

// POST /api/editor/close
func EditorCloseHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws := hub.workspace(currentUser(c))
		ws.mu.Lock()
		defer ws.mu.Unlock()

		ws.Editor.Close()
		c.JSON(http.StatusOK, gin.H{"open": false})
	}
}
