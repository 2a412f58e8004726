package handler

import (
	"net/http"

	"foodgram/internal/microservices/http-api/dto"
	"foodgram/internal/microservices/http-api/middleware"
	"foodgram/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	base
	svc service.AuthService
}

func NewAuthHandler(svc service.AuthService, opts Options) *AuthHandler {
	return &AuthHandler{base: newBase(opts), svc: svc}
}

func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/token/login/", h.Login)
	rg.POST("/token/logout/", middleware.RequireAuth(), h.Logout)
}

// Login exchanges email and password for a token
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := h.context(c)
	defer cancel()

	token, err := h.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TokenResponse{AuthToken: token})
}

// Logout revokes the token the request was made with
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx, cancel := h.context(c)
	defer cancel()

	if err := h.svc.Logout(ctx, middleware.TokenFrom(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
