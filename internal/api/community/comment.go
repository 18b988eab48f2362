package community

import (
	"community-feed-backend/internal/errors"

	"github.com/gin-gonic/gin"
)

type commentRequest struct {
	Post    int    `json:"post" binding:"required,gt=0"`
	Parent  *int   `json:"parent" binding:"omitempty,gt=0"`
	Content string `json:"content" binding:"required,notblank"`
}

// CreateComment 创建评论，parent 为空时是顶级评论
func (h *CommunityHandler) CreateComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	userID, err := h.identity.Actor(c)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	comment, err := h.communityService.CreateComment(c.Request.Context(), userID, req.Post, req.Parent, req.Content)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleCreated(c, comment, "评论创建成功")
}

// GetComment 获取单条评论
func (h *CommunityHandler) GetComment(c *gin.Context) {
	commentID, ok := paramID(c, "评论ID")
	if !ok {
		return
	}
	comment, err := h.communityService.GetComment(c.Request.Context(), commentID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, comment, "")
}

// DeleteComment 删除评论及其所有回复
func (h *CommunityHandler) DeleteComment(c *gin.Context) {
	commentID, ok := paramID(c, "评论ID")
	if !ok {
		return
	}
	if err := h.communityService.DeleteComment(c.Request.Context(), viewerID(c), commentID); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, nil, "评论删除成功")
}
