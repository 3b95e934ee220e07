package handlers

import (
	"net/http"
	"rewear/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type NotificationHandler struct {
	notifications *services.NotificationService
	log           logrus.FieldLogger
}

func NewNotificationHandler(notifications *services.NotificationService, log logrus.FieldLogger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, log: log}
}

// List returns the newest notifications; ?unread=1 limits it to unread ones.
func (h *NotificationHandler) List(c *gin.Context) {
	me := actor(c)
	unreadOnly := c.Query("unread") == "1" || c.Query("unread") == "true"
	list, err := h.notifications.List(c.Request.Context(), me.ID, unreadOnly)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	unread, err := h.notifications.UnreadCount(c.Request.Context(), me.ID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "OK", gin.H{"notifications": list, "unread_count": unread})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), actor(c).ID, id); err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Marked as read", nil)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.notifications.MarkAllRead(c.Request.Context(), actor(c).ID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "All notifications marked as read", gin.H{"updated": n})
}
