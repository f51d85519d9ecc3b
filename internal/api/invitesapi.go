package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// POST /api/invitations
func SendInvitationHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ToEmail      string `json:"toEmail"`
			ResourceID   string `json:"resourceId"`
			ResourceName string `json:"resourceName"`
			Role         string `json:"role"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badJSON(c)
			return
		}

		inv, err := hub.Invites.Send(c.Request.Context(), currentUser(c),
			req.ToEmail, req.ResourceID, req.ResourceName, req.Role)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, inv)
	}
}

// GET /api/invitations/sent
func SentInvitationsHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := hub.Invites.Sent(c.Request.Context(), currentUser(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// GET /api/invitations/received
func ReceivedInvitationsHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := hub.Invites.Received(c.Request.Context(), currentUser(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// GET /api/invitations/pending-count
func PendingCountHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := hub.Invites.PendingCount(c.Request.Context(), currentUser(c))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": n})
	}
}

// POST /api/invitations/:id/accept
func AcceptInvitationHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := hub.Invites.Accept(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// POST /api/invitations/:id/decline
func DeclineInvitationHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := hub.Invites.Decline(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// POST /api/invitations/:id/cancel
func CancelInvitationHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := hub.Invites.Cancel(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
			fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
