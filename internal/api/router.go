// api/router.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"construktor/internal/auth"
)

const ctxUserKey = "user"

// NewRouter собирает gin-движок со всеми маршрутами. Отдельно, чтобы
// тесты гоняли его через httptest без реального листенера.
func NewRouter(hub *Hub, resolver auth.Resolver) *gin.Engine {
	r := gin.Default()

	r.GET("/api/meta", MetaHandler(hub))

	apiGroup := r.Group("/api")
	apiGroup.Use(requireUser(resolver))
	{
		apiGroup.GET("/field-types", FieldTypesHandler(hub))

		apiGroup.GET("/entities", ListEntitiesHandler(hub))
		apiGroup.POST("/entities", CreateEntityHandler(hub))
		apiGroup.DELETE("/entities/:entityId", DeleteEntityHandler(hub))

		apiGroup.GET("/modules", ListModulesHandler(hub))
		apiGroup.POST("/modules", CreateModuleHandler(hub))
		apiGroup.DELETE("/modules/:moduleId", DeleteModuleHandler(hub))
		apiGroup.PUT("/modules/order", SaveModuleOrderHandler(hub))

		apiGroup.GET("/modules/:moduleId/entities/:entityId/schema", GetSchemaHandler(hub))
		apiGroup.POST("/modules/:moduleId/entities", PlaceEntityHandler(hub))
		apiGroup.DELETE("/modules/:moduleId/entities/:entityId", RemoveEntityHandler(hub))

		// редактор структуры: модальная навигация со стеком
		apiGroup.POST("/editor/open", EditorOpenHandler(hub))
		apiGroup.GET("/editor", EditorStateHandler(hub))
		apiGroup.POST("/editor/fields", EditorAddFieldHandler(hub))
		apiGroup.DELETE("/editor/fields/:fieldId", EditorRemoveFieldHandler(hub))
		apiGroup.POST("/editor/fields/:fieldId/open", EditorDrillInHandler(hub))
		apiGroup.POST("/editor/back", EditorBackHandler(hub))
		apiGroup.POST("/editor/save", EditorSaveHandler(hub))
		apiGroup.POST("/editor/close", EditorCloseHandler(hub))

		apiGroup.POST("/data/:moduleId/:entityId", CreateRecordHandler(hub))
		apiGroup.GET("/data/:moduleId/:entityId", ListRecordsHandler(hub))
		apiGroup.PATCH("/data/:moduleId/:entityId/:id", UpdateRecordHandler(hub))
		apiGroup.DELETE("/data/:moduleId/:entityId/:id", DeleteRecordHandler(hub))

		apiGroup.GET("/preferences/:key", GetPreferenceHandler(hub))
		apiGroup.PUT("/preferences/:key", SavePreferenceHandler(hub))

		apiGroup.POST("/invitations", SendInvitationHandler(hub))
		apiGroup.GET("/invitations/sent", SentInvitationsHandler(hub))
		apiGroup.GET("/invitations/received", ReceivedInvitationsHandler(hub))
		apiGroup.GET("/invitations/pending-count", PendingCountHandler(hub))
		apiGroup.POST("/invitations/:id/accept", AcceptInvitationHandler(hub))
		apiGroup.POST("/invitations/:id/decline", DeclineInvitationHandler(hub))
		apiGroup.POST("/invitations/:id/cancel", CancelInvitationHandler(hub))
	}

	return r
}

// requireUser кладёт личность из заголовков в контекст; без неё — 401.
func requireUser(resolver auth.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := resolver.Resolve(c.Request)
		if !user.Resolved() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"errors": []FieldError{{Code: "unauthenticated", Message: "user identity headers are missing"}},
			})
			return
		}
		c.Set(ctxUserKey, user)
		c.Next()
	}
}

func RunServer(addr string, hub *Hub, resolver auth.Resolver) error {
	return NewRouter(hub, resolver).Run(addr)
}
