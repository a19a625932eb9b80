package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/linkup-app/backend/internal/auth"
	"github.com/linkup-app/backend/internal/dto"
	apierrors "github.com/linkup-app/backend/internal/errors"
	"github.com/linkup-app/backend/internal/logger"
	"github.com/linkup-app/backend/internal/util"
)

// Register handles POST /api/v1/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	resp, err := h.authService.Register(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			util.RespondConflict(c, "email already registered")
		case errors.Is(err, auth.ErrUsernameExists):
			util.RespondConflict(c, "username already taken")
		default:
			logger.ErrorWithFields("Registration failed", err)
			util.RespondInternalError(c, "registration failed")
		}
		return
	}

	// Welcome email is best effort, never blocks the signup
	go func(email, name string) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.emailSender.SendWelcome(ctx, email, name); err != nil {
			logger.Log.Warn("Failed to send welcome email",
				zap.String("email", email),
				zap.Error(err),
			)
		}
	}(resp.User.Email, resp.User.DisplayName)

	c.JSON(http.StatusCreated, resp)
}

// Login handles POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	resp, err := h.authService.Login(req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			util.RespondUnauthorized(c, "invalid email or password")
		} else {
			logger.ErrorWithFields("Login failed", err)
			util.RespondInternalError(c, "login failed")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me handles GET /api/v1/auth/me
func (h *Handlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// RequestPasswordReset handles POST /api/v1/auth/password-reset.
// Always responds 200 so account existence is not leaked.
func (h *Handlers) RequestPasswordReset(c *gin.Context) {
	var req dto.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	token, err := h.authService.RequestPasswordReset(req.Email)
	if err != nil {
		logger.ErrorWithFields("Password reset request failed", err)
		util.RespondInternalError(c, "password reset request failed")
		return
	}

	if token != nil {
		go func(email, tokenStr string) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := h.emailSender.SendPasswordReset(ctx, email, tokenStr); err != nil {
				logger.Log.Warn("Failed to send password reset email",
					zap.String("email", email),
					zap.Error(err),
				)
			}
		}(req.Email, token.Token)
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "if that email is registered, a reset link has been sent",
	})
}

// ConfirmPasswordReset handles POST /api/v1/auth/password-reset/confirm
func (h *Handlers) ConfirmPasswordReset(c *gin.Context) {
	var req dto.PasswordResetConfirm
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBindError(c, err)
		return
	}

	if err := h.authService.ResetPassword(req.Token, req.NewPassword); err != nil {
		util.RespondWithAPIError(c, apierrors.BadRequest(err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// AuthMiddleware validates the bearer token and loads the user into
// the request context
func (h *Handlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			util.RespondUnauthorized(c, "authorization header required")
			c.Abort()
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			util.RespondUnauthorized(c, "authorization header must be a bearer token")
			c.Abort()
			return
		}

		user, err := h.authService.ValidateToken(tokenString)
		if err != nil {
			util.RespondUnauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

// AdminMiddleware restricts a route group to admin users. Must run
// after AuthMiddleware.
func (h *Handlers) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := util.GetUserFromContext(c)
		if !ok {
			c.Abort()
			return
		}
		if !user.IsAdmin {
			util.RespondForbidden(c, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}
