package community

import (
	"community-feed-backend/internal/errors"
	"community-feed-backend/internal/middleware"
	"community-feed-backend/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

type CommunityHandler struct {
	communityService   service.CommunityServiceInterface
	leaderboardService service.LeaderboardServiceInterface
	identity           *IdentityResolver
}

func NewCommunityHandler(
	communityService service.CommunityServiceInterface,
	leaderboardService service.LeaderboardServiceInterface,
	identity *IdentityResolver,
) *CommunityHandler {
	return &CommunityHandler{
		communityService:   communityService,
		leaderboardService: leaderboardService,
		identity:           identity,
	}
}

// RegisterRoutes 注册社区相关路由，optionalAuth 允许匿名访问，requireAuth 必须登录
func (h *CommunityHandler) RegisterRoutes(api *gin.RouterGroup, optionalAuth, requireAuth gin.HandlerFunc) {
	api.GET("/posts", optionalAuth, h.ListPosts)
	api.GET("/posts/:id", optionalAuth, h.GetPost)
	api.POST("/posts", optionalAuth, h.CreatePost)
	api.PUT("/posts/:id", requireAuth, h.UpdatePost)
	api.DELETE("/posts/:id", requireAuth, h.DeletePost)
	api.POST("/posts/:id/like", optionalAuth, h.LikePost)
	api.POST("/posts/:id/unlike", optionalAuth, h.UnlikePost)

	api.POST("/comments", optionalAuth, h.CreateComment)
	api.GET("/comments/:id", h.GetComment)
	api.DELETE("/comments/:id", requireAuth, h.DeleteComment)
	api.POST("/comments/:id/like", optionalAuth, h.LikeComment)
	api.POST("/comments/:id/unlike", optionalAuth, h.UnlikeComment)

	api.GET("/leaderboard", h.GetLeaderboard)
}

func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "无效的"+name))
		return 0, false
	}
	return id, true
}

// viewerID 读请求只对已登录用户做个性化
func viewerID(c *gin.Context) int {
	id, _ := middleware.CurrentUserID(c)
	return id
}
