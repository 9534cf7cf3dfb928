package api

import (
	"net/http"

	"storefront/internal/service"
	v1 "storefront/pkg/api/v1"
	"storefront/pkg/constraints"
	"storefront/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	svc          *service.AuthService
	secureCookie bool
}

func NewAuthHandler(svc *service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{svc: svc, secureCookie: secureCookie}
}

// setRefreshCookie stores the refresh token HTTP-only so page scripts never
// see it.
func (h *AuthHandler) setRefreshCookie(c *gin.Context, sess *service.Session) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constraints.RefreshCookieName, sess.RefreshToken, int(sess.RefreshTTL.Seconds()), "/", "", h.secureCookie, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constraints.RefreshCookieName, "", -1, "/", "", h.secureCookie, true)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var body v1.LoginRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}

	sess, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		abort(c, err)
		return
	}
	h.setRefreshCookie(c, sess)
	c.JSON(http.StatusOK, sess.Body)
}

// Refresh reads the refresh cookie, rotates it and returns a new access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token, err := c.Cookie(constraints.RefreshCookieName)
	if err != nil || token == "" {
		fail(c, http.StatusUnauthorized, "Refresh token not found")
		return
	}

	sess, err := h.svc.Refresh(c.Request.Context(), token)
	if err != nil {
		h.clearRefreshCookie(c)
		abort(c, err)
		return
	}
	h.setRefreshCookie(c, sess)
	c.JSON(http.StatusOK, sess.Body)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(constraints.RefreshCookieName); err == nil {
		if err := h.svc.RevokeRefreshToken(c.Request.Context(), token); err != nil {
			logger.Error("logout failed", zap.Error(err))
		}
	}
	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, "Logged out successfully")
}

func (h *AuthHandler) Register(c *gin.Context) {
	var body v1.RegisterRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	if _, err := h.svc.Register(c.Request.Context(), body); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, "Registration successful, please check your email to verify your account")
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	if err := h.svc.VerifyEmail(c.Request.Context(), c.Query("token")); err != nil {
		fail(c, http.StatusBadRequest, "Invalid or expired verification link")
		return
	}
	c.JSON(http.StatusOK, "Email verified successfully")
}

func (h *AuthHandler) ResendVerification(c *gin.Context) {
	if err := h.svc.ResendVerification(c.Request.Context(), c.Query("email")); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, "If the address is registered, a new verification email has been sent")
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var body v1.ChangePasswordRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), userID(c), body); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, "Password changed successfully")
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	p, err := h.svc.Profile(c.Request.Context(), userID(c))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var body v1.ProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.svc.UpdateProfile(c.Request.Context(), userID(c), body)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// userID is only valid behind JWTMiddleware.
func userID(c *gin.Context) int64 {
	if id := service.IdentityFrom(c.Request.Context()); id != nil {
		return id.UserID
	}
	return 0
}
