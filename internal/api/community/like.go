package community

import (
	"community-feed-backend/internal/errors"
	"community-feed-backend/internal/model"
	"community-feed-backend/internal/service"
	"context"

	"github.com/gin-gonic/gin"
)

type likeFunc func(ctx context.Context, userID, targetID int) (model.LikeOutcome, error)
type unlikeFunc func(ctx context.Context, userID, targetID int) (model.UnlikeOutcome, error)

func (h *CommunityHandler) like(c *gin.Context, name string, karma int, fn likeFunc) {
	targetID, ok := paramID(c, name)
	if !ok {
		return
	}
	userID, err := h.identity.Actor(c)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	outcome, err := fn(c.Request.Context(), userID, targetID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	if outcome == model.LikeAlreadyExists {
		errors.HandleError(c, errors.New(errors.ErrAlreadyLiked, "Already liked"))
		return
	}

	errors.HandleSuccess(c, gin.H{
		"status":        outcome.String(),
		"karma_awarded": karma,
	}, "点赞成功")
}

func (h *CommunityHandler) unlike(c *gin.Context, name string, fn unlikeFunc) {
	targetID, ok := paramID(c, name)
	if !ok {
		return
	}
	userID, err := h.identity.ExistingActor(c)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	// 匿名账号尚未创建时 userID 为 0，不会删除任何记录，但仍会校验目标是否存在
	outcome, err := fn(c.Request.Context(), userID, targetID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	if outcome == model.UnlikeNotFound {
		errors.HandleError(c, errors.New(errors.ErrNotLiked, "Not liked yet"))
		return
	}

	errors.HandleSuccess(c, gin.H{"status": "unliked"}, "取消点赞成功")
}

// LikePost 点赞帖子，作者获得 5 点 karma
func (h *CommunityHandler) LikePost(c *gin.Context) {
	h.like(c, "帖子ID", service.PostLikeKarma, h.communityService.LikePost)
}

func (h *CommunityHandler) UnlikePost(c *gin.Context) {
	h.unlike(c, "帖子ID", h.communityService.UnlikePost)
}

// LikeComment 点赞评论，作者获得 1 点 karma
func (h *CommunityHandler) LikeComment(c *gin.Context) {
	h.like(c, "评论ID", service.CommentLikeKarma, h.communityService.LikeComment)
}

func (h *CommunityHandler) UnlikeComment(c *gin.Context) {
	h.unlike(c, "评论ID", h.communityService.UnlikeComment)
}
