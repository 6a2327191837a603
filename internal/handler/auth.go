package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kerem-gursoy/uup/internal/apierror"
	"github.com/kerem-gursoy/uup/internal/dto"
	"github.com/kerem-gursoy/uup/internal/middleware"
	"github.com/kerem-gursoy/uup/internal/service"
)

type AuthHandler struct {
	svc          service.AuthService
	cookieSecure bool
}

func NewAuthHandler(svc service.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{svc: svc, cookieSecure: cookieSecure}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.CredentialsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.setSession(c, res.Token)
	c.JSON(http.StatusCreated, dto.AuthResponse{User: res.User})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.CredentialsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.setSession(c, res.Token)
	c.JSON(http.StatusOK, dto.AuthResponse{User: res.User})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", h.cookieSecure, true)
	c.Status(http.StatusNoContent)
}

// Me returns the user behind the session token.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, apierror.New("authentication required"))
		return
	}
	resp, err := h.svc.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AuthResponse{User: *resp})
}

func (h *AuthHandler) setSession(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, token, int(h.svc.TokenTTL().Seconds()), "/", "", h.cookieSecure, true)
}
