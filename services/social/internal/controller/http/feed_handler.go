package http

import (
	"net/http"

	"chronofeed/pkg/logger"
	"chronofeed/services/social/internal/usecase"

	"github.com/gin-gonic/gin"
)

type FeedHandler struct {
	feedUseCase usecase.FeedUseCase
	paging      Paging
	logger      *logger.Logger
}

func NewFeedHandler(feedUseCase usecase.FeedUseCase, paging Paging, logger *logger.Logger) *FeedHandler {
	return &FeedHandler{
		feedUseCase: feedUseCase,
		paging:      paging,
		logger:      logger,
	}
}

// GetFeed godoc
// @Summary      Get a user's feed
// @Description  Posts of the user and everyone they follow, newest first. Hidden posts are never included.
// @Tags         feed
// @Produce      json
// @Security     BearerAuth
// @Param        username query string true "Whose feed to assemble"
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Page size" default(20)
// @Success      200  {object}  entity.FeedPage
// @Failure      400  {object}  apperror.ErrorResponse
// @Failure      401  {object}  apperror.ErrorResponse
// @Failure      404  {object}  apperror.ErrorResponse
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /feed [get]
func (h *FeedHandler) GetFeed(c *gin.Context) {
	username := c.Query("username")
	if username == "" {
		badRequest(c, "Username is required")
		return
	}
	page, limit := h.paging.parse(c)

	feed, err := h.feedUseCase.GetFeed(c.Request.Context(), username, page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, feed)
}

// GetLatestPosts godoc
// @Summary      Get the global timeline
// @Description  Posts of every registered user, newest first
// @Tags         feed
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "Page number" default(1)
// @Param        limit query int false "Page size" default(20)
// @Success      200  {object}  entity.FeedPage
// @Failure      401  {object}  apperror.ErrorResponse
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /latest-posts [get]
func (h *FeedHandler) GetLatestPosts(c *gin.Context) {
	page, limit := h.paging.parse(c)

	feed, err := h.feedUseCase.GetLatestPosts(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, feed)
}
