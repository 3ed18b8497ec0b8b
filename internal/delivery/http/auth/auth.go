package http_auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	http_common "github.com/reeltrack/core/internal/delivery/http/common"
	http_auth_middleware "github.com/reeltrack/core/internal/delivery/http/middleware/auth"
	"github.com/reeltrack/core/internal/model"
	usecase_auth "github.com/reeltrack/core/internal/usecase/auth"
	"github.com/reeltrack/core/internal/validate"
)

type Controller struct {
	usecase    *usecase_auth.Usecase
	middleware *http_auth_middleware.Middleware
	logger     *slog.Logger
}

func New(usecase *usecase_auth.Usecase, middleware *http_auth_middleware.Middleware) *Controller {
	return &Controller{
		usecase:    usecase,
		middleware: middleware,
		logger:     slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", c.register)
		auth.POST("/login", c.login)
		auth.POST("/reset-password-request", c.resetPasswordRequest)
		auth.POST("/reset-password", c.resetPassword)

		protected := auth.Group("", c.middleware.AuthRequired())
		{
			protected.GET("/me", c.me)
			protected.POST("/change-password", c.changePassword)
			protected.POST("/delete-account", c.deleteAccount)
		}
	}
}

type UserDTO struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}

func userToDTO(user model.User) UserDTO {
	dto := UserDTO{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}
	if !user.CreatedAt.IsZero() {
		dto.CreatedAt = user.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

type RegisterRequestDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Controller) register(ctx *gin.Context) {
	var req RegisterRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		http_common.Error(ctx, http.StatusBadRequest, "invalid request format")
		return
	}

	session, err := c.usecase.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, validate.ErrValidation):
			http_common.Error(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, usecase_auth.ErrEmailTaken),
			errors.Is(err, usecase_auth.ErrUsernameTaken):
			http_common.Error(ctx, http.StatusBadRequest, err.Error())
		default:
			c.logger.Error("failed to register", slog.String("error", err.Error()))
			http_common.Error(ctx, http.StatusInternalServerError, "internal error")
		}
		return
	}

	http_common.JSON(ctx, http.StatusCreated, gin.H{
		"message":      "registration successful",
		"access_token": session.Token,
		"user":         userToDTO(session.User),
	})
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Controller) login(ctx *gin.Context) {
	var req LoginRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		http_common.Error(ctx, http.StatusBadRequest, "invalid request format")
		return
	}

	session, err := c.usecase.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, validate.ErrValidation):
			http_common.Error(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, usecase_auth.ErrInvalidCredentials):
			http_common.Error(ctx, http.StatusUnauthorized, "invalid email or password")
		default:
			c.logger.Error("failed to login", slog.String("error", err.Error()))
			http_common.Error(ctx, http.StatusInternalServerError, "internal error")
		}
		return
	}

	http_common.OK(ctx, gin.H{
		"message":      "login successful",
		"access_token": session.Token,
		"user":         userToDTO(session.User),
	})
}

func (c *Controller) me(ctx *gin.Context) {
	userID := http_auth_middleware.UserID(ctx)

	user, err := c.usecase.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, usecase_auth.ErrUserNotFound) {
			http_common.Error(ctx, http.StatusNotFound, "user not found")
			return
		}
		c.logger.Error("failed to load user", slog.String("error", err.Error()))
		http_common.Error(ctx, http.StatusInternalServerError, "internal error")
		return
	}

	http_common.OK(ctx, gin.H{"user": userToDTO(user)})
}

type ChangePasswordRequestDTO struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (c *Controller) changePassword(ctx *gin.Context) {
	var req ChangePasswordRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		http_common.Error(ctx, http.StatusBadRequest, "invalid request format")
		return
	}

	userID := http_auth_middleware.UserID(ctx)

	err := c.usecase.ChangePassword(ctx, userID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, validate.ErrValidation):
			http_common.Error(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, usecase_auth.ErrWrongPassword):
			http_common.Error(ctx, http.StatusForbidden, "current password is incorrect")
		default:
			c.logger.Error("failed to change password", slog.String("error", err.Error()))
			http_common.Error(ctx, http.StatusInternalServerError, "internal error")
		}
		return
	}

	http_common.OK(ctx, gin.H{"message": "password changed"})
}

type ResetPasswordRequestDTO struct {
	Email string `json:"email"`
}

// resetPasswordRequest never reveals whether the email is registered. The
// token comes back in the response because outbound email is not part of
// this service.
func (c *Controller) resetPasswordRequest(ctx *gin.Context) {
	var req ResetPasswordRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		http_common.Error(ctx, http.StatusBadRequest, "invalid request format")
		return
	}

	token, err := c.usecase.RequestPasswordReset(ctx, req.Email)
	if err != nil {
		if errors.Is(err, validate.ErrValidation) {
			http_common.Error(ctx, http.StatusBadRequest, err.Error())
			return
		}
		c.logger.Error("failed to request password reset", slog.String("error", err.Error()))
		http_common.Error(ctx, http.StatusInternalServerError, "internal error")
		return
	}

	payload := gin.H{"message": "if the email is registered, a reset token has been issued"}
	if token != "" {
		payload["reset_token"] = token
	}
	http_common.OK(ctx, payload)
}

type ResetPasswordDTO struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (c *Controller) resetPassword(ctx *gin.Context) {
	var req ResetPasswordDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		http_common.Error(ctx, http.StatusBadRequest, "invalid request format")
		return
	}

	err := c.usecase.ResetPassword(ctx, req.Token, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, validate.ErrValidation):
			http_common.Error(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, usecase_auth.ErrInvalidResetToken):
			http_common.Error(ctx, http.StatusBadRequest, "invalid or expired reset token")
		default:
			c.logger.Error("failed to reset password", slog.String("error", err.Error()))
			http_common.Error(ctx, http.StatusInternalServerError, "internal error")
		}
		return
	}

	http_common.OK(ctx, gin.H{"message": "password reset"})
}

func (c *Controller) deleteAccount(ctx *gin.Context) {
	userID := http_auth_middleware.UserID(ctx)

	if err := c.usecase.DeleteAccount(ctx, userID); err != nil {
		if errors.Is(err, usecase_auth.ErrUserNotFound) {
			http_common.Error(ctx, http.StatusNotFound, "user not found")
			return
		}
		c.logger.Error("failed to delete account", slog.String("error", err.Error()))
		http_common.Error(ctx, http.StatusInternalServerError, "internal error")
		return
	}

	http_common.OK(ctx, gin.H{"message": "account deleted"})
}
