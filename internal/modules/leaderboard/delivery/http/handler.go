package http

import (
	"net/http"
	"strconv"

	leaderboardService "anoa.com/moodquest/internal/modules/leaderboard/service"
	"anoa.com/moodquest/pkg/response"
	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	service leaderboardService.LeaderboardService
}

func NewLeaderboardHandler(service leaderboardService.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	timeframe := c.Query("timeframe") // "all_time", "monthly", "weekly"
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(leaderboardService.DefaultLimit)))
	if err != nil {
		limit = leaderboardService.DefaultLimit
	}

	leaderboard, err := h.service.GetLeaderboard(c.Request.Context(), limit, timeframe)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": leaderboard})
}
