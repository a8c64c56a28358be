package http

import (
	"net/http"

	"chronofeed/pkg/logger"
	"chronofeed/services/social/internal/entity"
	"chronofeed/services/social/internal/usecase"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	postUseCase    usecase.PostUseCase
	paging         Paging
	uploadMaxBytes int64
	logger         *logger.Logger
}

func NewPostHandler(postUseCase usecase.PostUseCase, paging Paging, uploadMaxBytes int64, logger *logger.Logger) *PostHandler {
	return &PostHandler{
		postUseCase:    postUseCase,
		paging:         paging,
		uploadMaxBytes: uploadMaxBytes,
		logger:         logger,
	}
}

type CreateTextPostRequest struct {
	Content string `json:"content"`
}

// GetPosts godoc
// @Summary      Get a post or a user's posts
// @Description  With id, returns one post. With username, returns that user's posts newest first; hidden posts are included only for their owner.
// @Tags         posts
// @Produce      json
// @Param        id query string false "Post ID"
// @Param        username query string false "Author username"
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Page size" default(20)
// @Success      200  {object}  entity.FeedPage
// @Failure      400  {object}  apperror.ErrorResponse
// @Failure      404  {object}  apperror.ErrorResponse
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /posts [get]
func (h *PostHandler) GetPosts(c *gin.Context) {
	ctx := c.Request.Context()

	if id := c.Query("id"); id != "" {
		post, err := h.postUseCase.GetPost(ctx, id, viewerEmail(c))
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, post)
		return
	}

	username := c.Query("username")
	if username == "" {
		badRequest(c, "Post ID or username is required")
		return
	}
	page, limit := h.paging.parse(c)

	posts, err := h.postUseCase.ListUserPosts(ctx, username, viewerEmail(c), page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// CreatePost godoc
// @Summary      Create a text post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateTextPostRequest true "Post content"
// @Success      201  {object}  entity.Post
// @Failure      400  {object}  apperror.ErrorResponse
// @Failure      401  {object}  apperror.ErrorResponse
// @Failure      404  {object}  apperror.ErrorResponse
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /posts [post]
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req CreateTextPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	post, err := h.postUseCase.CreateTextPost(c.Request.Context(), viewerEmail(c), req.Content)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// UploadImage godoc
// @Summary      Create an image post
// @Description  The image is re-encoded without metadata; the EXIF capture date is kept on the post.
// @Tags         posts
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "Image (jpeg, png, gif or webp)"
// @Param        caption formData string false "Caption"
// @Success      201  {object}  entity.Post
// @Failure      400  {object}  apperror.ErrorResponse
// @Failure      401  {object}  apperror.ErrorResponse
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /upload [post]
func (h *PostHandler) UploadImage(c *gin.Context) {
	upload, err := readUpload(c, "file", h.uploadMaxBytes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	post, err := h.postUseCase.CreateImagePost(c.Request.Context(), viewerEmail(c), upload, c.PostForm("caption"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// UpdatePost godoc
// @Summary      Update a post
// @Description  Owner only. Caption applies to image posts, content to text posts.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id query string true "Post ID"
// @Param        request body entity.PostPatch true "Fields to change"
// @Success      200  {object}  entity.Post
// @Failure      400  {object}  apperror.ErrorResponse
// @Failure      403  {object}  apperror.ErrorResponse
// @Failure      404  {object}  apperror.ErrorResponse
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /posts [patch]
func (h *PostHandler) UpdatePost(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		badRequest(c, "Post ID is required")
		return
	}

	var patch entity.PostPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	post, err := h.postUseCase.UpdatePost(c.Request.Context(), id, viewerEmail(c), patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost godoc
// @Summary      Delete a post
// @Description  Owner only. Removes the image, every comment and the post.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id query string true "Post ID"
// @Success      200  {object}  map[string]bool
// @Failure      400  {object}  apperror.ErrorResponse
// @Failure      403  {object}  apperror.ErrorResponse
// @Failure      404  {object}  apperror.ErrorResponse
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /posts [delete]
func (h *PostHandler) DeletePost(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		badRequest(c, "Post ID is required")
		return
	}

	if err := h.postUseCase.DeletePost(c.Request.Context(), id, viewerEmail(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
