package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PresenceServer attaches websocket sessions to the presence hub.
type PresenceServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID uuid.UUID, userName string) error
}

type PresenceHandler struct {
	hub PresenceServer
}

func NewPresenceHandler(hub PresenceServer) *PresenceHandler {
	return &PresenceHandler{hub: hub}
}

// Connect upgrades the request to a presence session for the caller.
func (h *PresenceHandler) Connect(c *gin.Context) {
	caller := callerFrom(c)
	if caller.UserID == uuid.Nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated", "code": "UNAUTHORIZED"})
		return
	}
	// The upgrader has already answered the client when this fails.
	if err := h.hub.ServeWS(c.Writer, c.Request, caller.UserID, caller.Name); err != nil {
		c.Abort()
	}
}
