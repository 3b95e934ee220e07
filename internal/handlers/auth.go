package handlers

import (
	"net/http"
	"rewear/internal/middleware"
	"rewear/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	users *services.UserService
	log   logrus.FieldLogger
}

func NewAuthHandler(users *services.UserService, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{users: users, log: log}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email,max=120"`
	Password string `json:"password" binding:"required,min=6,max=128"`
	Name     string `json:"name" binding:"required,max=100"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func startSession(c *gin.Context, userID uint) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(middleware.SessionUserKey, userID)
	return session.Save()
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, h.log, bindError(err))
		return
	}

	user, err := h.users.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if err := startSession(c, user.ID); err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "Registration successful", gin.H{"user": user})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, h.log, bindError(err))
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if err := startSession(c, user.ID); err != nil {
		fail(c, h.log, err)
		return
	}
	h.log.WithField("user_id", user.ID).Info("User logged in")
	respond(c, http.StatusOK, "Login successful", gin.H{"user": user})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Logged out", nil)
}

// Me returns the session user. LoadUser already dropped stale sessions.
func (h *AuthHandler) Me(c *gin.Context) {
	respond(c, http.StatusOK, "OK", gin.H{"user": middleware.CurrentIdentity(c).User})
}
