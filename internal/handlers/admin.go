package handlers

import (
	"net/http"
	"rewear/internal/models"
	"rewear/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AdminHandler struct {
	moderation *services.ModerationService
	reports    *services.ReportService
	log        logrus.FieldLogger
}

func NewAdminHandler(moderation *services.ModerationService, reports *services.ReportService, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{moderation: moderation, reports: reports, log: log}
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// PendingItems is the moderation queue.
func (h *AdminHandler) PendingItems(c *gin.Context) {
	items, err := h.moderation.PendingItems(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "OK", gin.H{"items": items})
}

func (h *AdminHandler) Approve(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	item, err := h.moderation.Approve(c.Request.Context(), actor(c), id)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Item approved", gin.H{"item": item})
}

// Reject takes an optional {"reason"} body.
func (h *AdminHandler) Reject(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	var req rejectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, h.log, bindError(err))
			return
		}
	}
	item, err := h.moderation.Reject(c.Request.Context(), actor(c), id, req.Reason)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Item rejected", gin.H{"item": item})
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.moderation.Stats(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "OK", gin.H{"stats": stats})
}

// Reports lists reports, filtered by ?status=.
func (h *AdminHandler) Reports(c *gin.Context) {
	reports, err := h.reports.List(c.Request.Context(), actor(c), c.Query("status"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "OK", gin.H{"reports": reports})
}

func (h *AdminHandler) ResolveReport(c *gin.Context) {
	h.closeReport(c, models.ReportResolved, "Report resolved")
}

func (h *AdminHandler) DismissReport(c *gin.Context) {
	h.closeReport(c, models.ReportDismissed, "Report dismissed")
}

func (h *AdminHandler) closeReport(c *gin.Context, status, msg string) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, h.log, err)
		return
	}
	report, err := h.reports.Resolve(c.Request.Context(), actor(c), id, status)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, msg, gin.H{"report": report})
}
