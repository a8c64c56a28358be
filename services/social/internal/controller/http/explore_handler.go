package http

import (
	"net/http"
	"strconv"

	"chronofeed/pkg/logger"
	"chronofeed/services/social/internal/usecase"

	"github.com/gin-gonic/gin"
)

const maxExploreLimit = 100

type ExploreHandler struct {
	exploreUseCase usecase.ExploreUseCase
	logger         *logger.Logger
}

func NewExploreHandler(exploreUseCase usecase.ExploreUseCase, logger *logger.Logger) *ExploreHandler {
	return &ExploreHandler{exploreUseCase: exploreUseCase, logger: logger}
}

func exploreLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit < 1 || limit > maxExploreLimit {
		return usecase.DefaultListLimit
	}
	return limit
}

// GetStats godoc
// @Summary      Site statistics
// @Description  Total users, total posts and the five most followed accounts
// @Tags         explore
// @Produce      json
// @Success      200  {object}  entity.SiteStats
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /stats [get]
func (h *ExploreHandler) GetStats(c *gin.Context) {
	stats, err := h.exploreUseCase.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetLeaderboard godoc
// @Summary      Most followed users
// @Tags         explore
// @Produce      json
// @Param        limit query int false "Number of users" default(50)
// @Success      200  {object}  map[string][]entity.UserStat
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /leaderboard [get]
func (h *ExploreHandler) GetLeaderboard(c *gin.Context) {
	users, err := h.exploreUseCase.Leaderboard(c.Request.Context(), exploreLimit(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// GetLatestSignups godoc
// @Summary      Newest users
// @Tags         explore
// @Produce      json
// @Param        limit query int false "Number of users" default(50)
// @Success      200  {object}  map[string][]entity.UserStat
// @Failure      500  {object}  apperror.ErrorResponse
// @Router       /latest-signups [get]
func (h *ExploreHandler) GetLatestSignups(c *gin.Context) {
	users, err := h.exploreUseCase.LatestSignups(c.Request.Context(), exploreLimit(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
