package community

import (
	"community-feed-backend/internal/errors"
	"community-feed-backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type postRequest struct {
	Content string `json:"content" binding:"required,notblank"`
}

// ListPosts 分页获取帖子列表
func (h *CommunityHandler) ListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	posts, total, err := h.communityService.ListPosts(c.Request.Context(), page, pageSize, viewerID(c))
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"posts": posts,
		"total": total,
		"page":  page,
	}, "")
}

// GetPost 获取帖子详情及完整评论树
func (h *CommunityHandler) GetPost(c *gin.Context) {
	postID, ok := paramID(c, "帖子ID")
	if !ok {
		return
	}

	detail, err := h.communityService.GetPostWithComments(c.Request.Context(), postID, viewerID(c))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, detail, "")
}

// CreatePost 创建帖子
func (h *CommunityHandler) CreatePost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "内容不能为空", err))
		return
	}

	userID, err := h.identity.Actor(c)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	post, err := h.communityService.CreatePost(c.Request.Context(), userID, req.Content)
	if err != nil {
		util.Logger.Error("创建帖子失败", zap.Error(err), zap.Int("user_id", userID))
		errors.HandleError(c, err)
		return
	}
	errors.HandleCreated(c, post, "帖子创建成功")
}

// UpdatePost 修改帖子内容
func (h *CommunityHandler) UpdatePost(c *gin.Context) {
	postID, ok := paramID(c, "帖子ID")
	if !ok {
		return
	}
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "内容不能为空", err))
		return
	}

	post, err := h.communityService.UpdatePost(c.Request.Context(), viewerID(c), postID, req.Content)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, post, "帖子更新成功")
}

// DeletePost 删除帖子
func (h *CommunityHandler) DeletePost(c *gin.Context) {
	postID, ok := paramID(c, "帖子ID")
	if !ok {
		return
	}
	if err := h.communityService.DeletePost(c.Request.Context(), viewerID(c), postID); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, nil, "帖子删除成功")
}
