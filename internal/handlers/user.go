package handlers

import (
	"net/http"
	"rewear/internal/services"
	"rewear/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type UserHandler struct {
	users   *services.UserService
	catalog *services.CatalogService
	log     logrus.FieldLogger
}

func NewUserHandler(users *services.UserService, catalog *services.CatalogService, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{users: users, catalog: catalog, log: log}
}

type profileRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=100"`
	Bio      *string `json:"bio" binding:"omitempty,max=1000"`
	Location *string `json:"location" binding:"omitempty,max=100"`
	Avatar   *string `json:"avatar" binding:"omitempty,max=255"`
}

// Profile returns the caller with listing and exchange counts.
func (h *UserHandler) Profile(c *gin.Context) {
	me := actor(c)
	user, err := h.users.Get(c.Request.Context(), me.ID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	stats, err := h.users.Stats(c.Request.Context(), me.ID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "OK", gin.H{"user": user, "stats": stats})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, h.log, bindError(err))
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), actor(c).ID, services.ProfileUpdate{
		Name:     req.Name,
		Bio:      req.Bio,
		Location: req.Location,
		Avatar:   req.Avatar,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Profile updated", gin.H{"user": user})
}

// Points returns the balance and the point log.
func (h *UserHandler) Points(c *gin.Context) {
	me := actor(c)
	user, err := h.users.Get(c.Request.Context(), me.ID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	history, err := h.users.PointHistory(c.Request.Context(), me.ID, utils.StringToInt(c.Query("limit")))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "OK", gin.H{"points": user.Points, "history": history})
}

// Items lists every listing of the caller, whatever its status.
func (h *UserHandler) Items(c *gin.Context) {
	items, err := h.catalog.UserItems(c.Request.Context(), actor(c).ID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "OK", gin.H{"items": items})
}
