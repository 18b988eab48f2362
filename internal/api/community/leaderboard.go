package community

import (
	"community-feed-backend/internal/errors"

	"github.com/gin-gonic/gin"
)

// GetLeaderboard 过去 24 小时 karma 前 5 名
func (h *CommunityHandler) GetLeaderboard(c *gin.Context) {
	entries, err := h.leaderboardService.GetLeaderboard(c.Request.Context())
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, entries, "")
}
