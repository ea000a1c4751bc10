package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopswift/storefront/middleware"
	"github.com/shopswift/storefront/models"
	"github.com/shopswift/storefront/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserController handles profile reads and registration of the gateway
// asserted identity.
type UserController struct {
	users  repository.UserRepository
	logger *zap.Logger
}

// NewUserController creates a new UserController.
func NewUserController(users repository.UserRepository, logger *zap.Logger) *UserController {
	return &UserController{users: users, logger: logger}
}

type registerUserRequest struct {
	Name  string `json:"name" binding:"required,min=2,max=255"`
	Email string `json:"email" binding:"required,email"`
}

// Register handles POST /users, creating the profile row for the
// authenticated identity.
func (uc *UserController) Register(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	var req registerUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	user := &models.User{
		ID:     userUUID,
		Name:   req.Name,
		Email:  strings.ToLower(req.Email),
		Role:   models.UserRoleCustomer,
		Active: true,
	}
	if err := uc.users.Create(ctx.Request.Context(), user); err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			ctx.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
			return
		}
		uc.logger.Error("Failed to create user", zap.String("user_id", userID), zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"user": user})
}

// GetProfile handles GET /users/me.
func (uc *UserController) GetProfile(ctx *gin.Context) {
	userID, err := middleware.GetUserID(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	user, repoErr := uc.users.FindByID(ctx.Request.Context(), userUUID)
	if repoErr != nil {
		if errors.Is(repoErr, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		uc.logger.Error("Failed to fetch user", zap.String("user_id", userID), zap.Error(repoErr))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": user})
}
