package http

import (
	"net/http"

	"chronofeed/pkg/logger"
	"chronofeed/services/social/internal/entity"
	"chronofeed/services/social/internal/usecase"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	profileUseCase usecase.ProfileUseCase
	uploadMaxBytes int64
	logger         *logger.Logger
}

func NewUserHandler(profileUseCase usecase.ProfileUseCase, uploadMaxBytes int64, logger *logger.Logger) *UserHandler {
	return &UserHandler{
		profileUseCase: profileUseCase,
		uploadMaxBytes: uploadMaxBytes,
		logger:         logger,
	}
}

type CreateProfileRequest struct {
	Username string `json:"username" binding:"required"`
	Bio      string `json:"bio"`
}

type FollowRequest struct {
	Action         string `json:"action" binding:"required,oneof=follow unfollow"`
	TargetUsername string `json:"targetUsername" binding:"required"`
}

// GetUser godoc
// @Summary      Get a profile
// @Description  Looks the profile up by username, falling back to email. Settings are returned only to the owner.
// @Tags         users
// @Produce      json
// @Param        username query string false "Username"
// @Param        email query string false "Email"
// @Success      200  {object}  entity.ProfileView
// @Failure      400  {object}  apperror.ErrorResponse
// @Failure      404  {object}  apperror.ErrorResponse
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /user [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	view, err := h.profileUseCase.GetProfile(c.Request.Context(), c.Query("username"), c.Query("email"), viewerEmail(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CreateUser godoc
// @Summary      Create the caller's profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateProfileRequest true "Profile"
// @Success      201  {object}  entity.UserProfile
// @Failure      400  {object}  apperror.ErrorResponse
// @Failure      401  {object}  apperror.ErrorResponse
// @Failure      409  {object}  apperror.ErrorResponse
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /user [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Username is required")
		return
	}

	profile, err := h.profileUseCase.CreateProfile(c.Request.Context(), viewerEmail(c), req.Username, req.Bio)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

// UpdateUser godoc
// @Summary      Update the caller's profile and settings
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body entity.ProfilePatch true "Fields to change"
// @Success      200  {object}  entity.ProfileView
// @Failure      400  {object}  apperror.ErrorResponse
// @Failure      401  {object}  apperror.ErrorResponse
// @Failure      404  {object}  apperror.ErrorResponse
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /user [patch]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var patch entity.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	view, err := h.profileUseCase.UpdateProfile(c.Request.Context(), viewerEmail(c), patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// FollowUser godoc
// @Summary      Follow or unfollow a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body FollowRequest true "Action and target"
// @Success      200  {object}  map[string]bool
// @Failure      400  {object}  apperror.ErrorResponse
// @Failure      401  {object}  apperror.ErrorResponse
// @Failure      404  {object}  apperror.ErrorResponse
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /user [put]
func (h *UserHandler) FollowUser(c *gin.Context) {
	var req FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "action must be follow or unfollow and targetUsername is required")
		return
	}

	ctx := c.Request.Context()
	var err error
	if req.Action == "follow" {
		err = h.profileUseCase.Follow(ctx, viewerEmail(c), req.TargetUsername)
	} else {
		err = h.profileUseCase.Unfollow(ctx, viewerEmail(c), req.TargetUsername)
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UploadAvatar godoc
// @Summary      Replace the caller's profile picture
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "Image (jpeg, png, gif or webp)"
// @Success      200  {object}  entity.UserProfile
// @Failure      400  {object}  apperror.ErrorResponse
// @Failure      401  {object}  apperror.ErrorResponse
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /user/avatar [post]
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	upload, err := readUpload(c, "file", h.uploadMaxBytes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	profile, err := h.profileUseCase.UploadAvatar(c.Request.Context(), viewerEmail(c), upload)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetFollowing godoc
// @Summary      List who a user follows
// @Tags         users
// @Produce      json
// @Param        username query string true "Username"
// @Success      200  {object}  map[string][]entity.UserProfile
// @Failure      400  {object}  apperror.ErrorResponse
// @Failure      404  {object}  apperror.ErrorResponse
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /user/following [get]
func (h *UserHandler) GetFollowing(c *gin.Context) {
	profiles, err := h.profileUseCase.ListFollowing(c.Request.Context(), c.Query("username"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": profiles})
}

// GetFollowers godoc
// @Summary      List a user's followers
// @Tags         users
// @Produce      json
// @Param        username query string true "Username"
// @Success      200  {object}  map[string][]entity.UserProfile
// @Failure      400  {object}  apperror.ErrorResponse
// @Failure      404  {object}  apperror.ErrorResponse
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /user/followers [get]
func (h *UserHandler) GetFollowers(c *gin.Context) {
	profiles, err := h.profileUseCase.ListFollowers(c.Request.Context(), c.Query("username"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"followers": profiles})
}
