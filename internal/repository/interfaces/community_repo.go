package interfaces

import (
	"community-feed-backend/internal/model"
	"context"
	"time"
)

// CommunityRepository 定义了帖子、评论和点赞的数据库操作接口
type CommunityRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPostByID(ctx context.Context, id int) (*model.Post, error)
	UpdatePost(ctx context.Context, post *model.Post) error
	DeletePost(ctx context.Context, id int) error
	ListPosts(ctx context.Context, page, pageSize int) ([]*model.Post, int, error)

	CreateComment(ctx context.Context, comment *model.Comment) error
	GetCommentByID(ctx context.Context, id int) (*model.Comment, error)
	DeleteComment(ctx context.Context, id int) error
	// GetCommentsByPostID 一次查询取出帖子下全部评论，按创建时间升序
	GetCommentsByPostID(ctx context.Context, postID int) ([]*model.Comment, error)

	CreatePostLike(ctx context.Context, like *model.PostLike) error
	DeletePostLike(ctx context.Context, userID, postID int) (bool, error)
	CreateCommentLike(ctx context.Context, like *model.CommentLike) error
	DeleteCommentLike(ctx context.Context, userID, commentID int) (bool, error)
	GetLikedPostIDs(ctx context.Context, userID int, postIDs []int) ([]int, error)
	GetLikedCommentIDs(ctx context.Context, userID, postID int) ([]int, error)
}

// KarmaRepository 按时间窗口聚合点赞事件
type KarmaRepository interface {
	PostLikesByAuthorSince(ctx context.Context, since time.Time) ([]model.AuthorLikes, error)
	CommentLikesByAuthorSince(ctx context.Context, since time.Time) ([]model.AuthorLikes, error)
}
