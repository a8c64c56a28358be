package http

import (
	"net/http"

	"chronofeed/pkg/logger"
	"chronofeed/services/social/internal/usecase"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentUseCase usecase.CommentUseCase
	logger         *logger.Logger
}

func NewCommentHandler(commentUseCase usecase.CommentUseCase, logger *logger.Logger) *CommentHandler {
	return &CommentHandler{
		commentUseCase: commentUseCase,
		logger:         logger,
	}
}

type CreateCommentRequest struct {
	PostID  string `json:"postId" binding:"required"`
	Content string `json:"content"`
}

// GetComments godoc
// @Summary      List a post's comments
// @Tags         comments
// @Produce      json
// @Param        postId query string true "Post ID"
// @Success      200  {array}   entity.Comment
// @Failure      400  {object}  apperror.ErrorResponse
// @Failure      404  {object}  apperror.ErrorResponse
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /comments [get]
func (h *CommentHandler) GetComments(c *gin.Context) {
	postID := c.Query("postId")
	if postID == "" {
		badRequest(c, "Post ID is required")
		return
	}

	comments, err := h.commentUseCase.ListComments(c.Request.Context(), postID, viewerEmail(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// CreateComment godoc
// @Summary      Comment on a post
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateCommentRequest true "Comment"
// @Success      201  {object}  entity.Comment
// @Failure      400  {object}  apperror.ErrorResponse
// @Failure      401  {object}  apperror.ErrorResponse
// @Failure      404  {object}  apperror.ErrorResponse
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /comments [post]
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Post ID and content are required")
		return
	}

	comment, err := h.commentUseCase.CreateComment(c.Request.Context(), viewerEmail(c), req.PostID, req.Content)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// DeleteComment godoc
// @Summary      Delete a comment
// @Description  Only the comment's author may delete it.
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        id query string true "Comment ID"
// @Success      200  {object}  map[string]bool
// @Failure      400  {object}  apperror.ErrorResponse
// @Failure      403  {object}  apperror.ErrorResponse
// @Failure      404  {object}  apperror.ErrorResponse
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /comments [delete]
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		badRequest(c, "Comment ID is required")
		return
	}

	if err := h.commentUseCase.DeleteComment(c.Request.Context(), id, viewerEmail(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
