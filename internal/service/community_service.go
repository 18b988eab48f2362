package service

import (
	"community-feed-backend/internal/errors"
	"community-feed-backend/internal/model"
	"community-feed-backend/internal/repository/interfaces"
	"community-feed-backend/internal/util"
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// 每种点赞给作者带来的 karma
const (
	PostLikeKarma    = 5
	CommentLikeKarma = 1
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// LikeLocker 按 (类型, 用户, 目标) 加咨询锁。存储层已有唯一约束时可以为 nil
type LikeLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type CommunityService struct {
	repo   interfaces.CommunityRepository
	locker LikeLocker
	now    func() time.Time
}

func NewCommunityService(repo interfaces.CommunityRepository, locker LikeLocker) *CommunityService {
	return &CommunityService{
		repo:   repo,
		locker: locker,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock 替换时钟，测试和数据填充使用
func (s *CommunityService) WithClock(now func() time.Time) *CommunityService {
	s.now = now
	return s
}

// mapRepoError 把仓库层哨兵错误转换成应用错误
func mapRepoError(err error, notFound errors.ErrorCode, message string) error {
	var appErr *errors.AppError
	switch {
	case stderrors.As(err, &appErr):
		return err
	case stderrors.Is(err, interfaces.ErrNotFound):
		return errors.Wrap(notFound, message, err)
	case stderrors.Is(err, interfaces.ErrInvalidParent):
		return errors.Wrap(errors.ErrInvalidParent, "父评论不存在或不属于该帖子", err)
	default:
		return errors.Wrap(errors.ErrDatabase, "数据库操作失败", err)
	}
}

func validateContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", errors.New(errors.ErrValidation, "内容不能为空")
	}
	return content, nil
}

func validateID(id int, name string) error {
	if id <= 0 {
		return errors.New(errors.ErrValidation, "无效的"+name)
	}
	return nil
}

// CreatePost 创建帖子并返回带作者信息的帖子
func (s *CommunityService) CreatePost(ctx context.Context, userID int, content string) (*model.Post, error) {
	if err := validateID(userID, "用户ID"); err != nil {
		return nil, err
	}
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}

	post := &model.Post{UserID: userID, Content: content, CreatedAt: s.now()}
	if err := s.repo.CreatePost(ctx, post); err != nil {
		return nil, mapRepoError(err, errors.ErrUserNotFound, "用户不存在")
	}
	return s.getPost(ctx, post.ID)
}

func (s *CommunityService) getPost(ctx context.Context, postID int) (*model.Post, error) {
	post, err := s.repo.GetPostByID(ctx, postID)
	if err != nil {
		return nil, mapRepoError(err, errors.ErrPostNotFound, "帖子不存在")
	}
	return post, nil
}

// GetPostWithComments 返回帖子及完整评论树。
// 整个帖子的评论只查询一次，与树的深度无关；viewerID 为 0 表示匿名访问，不做个性化标注
func (s *CommunityService) GetPostWithComments(ctx context.Context, postID, viewerID int) (*model.PostDetail, error) {
	if err := validateID(postID, "帖子ID"); err != nil {
		return nil, err
	}

	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	comments, err := s.repo.GetCommentsByPostID(ctx, postID)
	if err != nil {
		return nil, mapRepoError(err, errors.ErrPostNotFound, "帖子不存在")
	}
	forest := BuildCommentForest(comments)

	var liked map[int]bool
	if viewerID > 0 {
		likedPosts, err := s.repo.GetLikedPostIDs(ctx, viewerID, []int{postID})
		if err != nil {
			return nil, mapRepoError(err, errors.ErrPostNotFound, "帖子不存在")
		}
		post.UserHasLiked = len(likedPosts) > 0

		likedComments, err := s.repo.GetLikedCommentIDs(ctx, viewerID, postID)
		if err != nil {
			return nil, mapRepoError(err, errors.ErrPostNotFound, "帖子不存在")
		}
		liked = make(map[int]bool, len(likedComments))
		for _, id := range likedComments {
			liked[id] = true
		}
	}

	util.Logger.Debug("评论树构建完成",
		zap.Int("post_id", postID),
		zap.Int("comment_count", forest.Len()))

	return &model.PostDetail{
		Post:     post,
		Comments: RenderCommentTree(forest, liked),
	}, nil
}

// ListPosts 分页获取帖子，按创建时间倒序
func (s *CommunityService) ListPosts(ctx context.Context, page, pageSize, viewerID int) ([]*model.Post, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	posts, total, err := s.repo.ListPosts(ctx, page, pageSize)
	if err != nil {
		return nil, 0, mapRepoError(err, errors.ErrPostNotFound, "帖子不存在")
	}

	if viewerID > 0 && len(posts) > 0 {
		ids := make([]int, len(posts))
		for i, post := range posts {
			ids[i] = post.ID
		}
		likedIDs, err := s.repo.GetLikedPostIDs(ctx, viewerID, ids)
		if err != nil {
			return nil, 0, mapRepoError(err, errors.ErrPostNotFound, "帖子不存在")
		}
		liked := make(map[int]bool, len(likedIDs))
		for _, id := range likedIDs {
			liked[id] = true
		}
		for _, post := range posts {
			post.UserHasLiked = liked[post.ID]
		}
	}

	return posts, total, nil
}

// UpdatePost 只有作者可以修改内容
func (s *CommunityService) UpdatePost(ctx context.Context, userID, postID int, content string) (*model.Post, error) {
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, errors.New(errors.ErrNotOwner, "只能修改自己的帖子")
	}

	post.Content = content
	if err := s.repo.UpdatePost(ctx, post); err != nil {
		return nil, mapRepoError(err, errors.ErrPostNotFound, "帖子不存在")
	}
	return post, nil
}

// DeletePost 只有作者可以删除，评论和点赞级联删除
func (s *CommunityService) DeletePost(ctx context.Context, userID, postID int) error {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return errors.New(errors.ErrNotOwner, "只能删除自己的帖子")
	}
	if err := s.repo.DeletePost(ctx, postID); err != nil {
		return mapRepoError(err, errors.ErrPostNotFound, "帖子不存在")
	}
	return nil
}

// CreateComment 创建评论或回复，父评论必须已存在且属于同一帖子
func (s *CommunityService) CreateComment(ctx context.Context, userID, postID int, parentID *int, content string) (*model.Comment, error) {
	if err := validateID(postID, "帖子ID"); err != nil {
		return nil, err
	}
	if parentID != nil {
		if err := validateID(*parentID, "父评论ID"); err != nil {
			return nil, err
		}
	}
	content, err := validateContent(content)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		PostID:    postID,
		UserID:    userID,
		ParentID:  parentID,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, mapRepoError(err, errors.ErrPostNotFound, "帖子不存在")
	}
	return s.GetComment(ctx, comment.ID)
}

func (s *CommunityService) GetComment(ctx context.Context, commentID int) (*model.Comment, error) {
	comment, err := s.repo.GetCommentByID(ctx, commentID)
	if err != nil {
		return nil, mapRepoError(err, errors.ErrCommentNotFound, "评论不存在")
	}
	return comment, nil
}

// DeleteComment 只有作者可以删除，回复级联删除
func (s *CommunityService) DeleteComment(ctx context.Context, userID, commentID int) error {
	comment, err := s.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return errors.New(errors.ErrNotOwner, "只能删除自己的评论")
	}
	if err := s.repo.DeleteComment(ctx, commentID); err != nil {
		return mapRepoError(err, errors.ErrCommentNotFound, "评论不存在")
	}
	return nil
}

// withLikeLock 配置了咨询锁时，在锁内执行插入
func (s *CommunityService) withLikeLock(ctx context.Context, kind string, userID, targetID int, fn func() error) error {
	if s.locker == nil {
		return fn()
	}
	unlock, err := s.locker.Lock(ctx, fmt.Sprintf("like:%s:%d:%d", kind, userID, targetID))
	if err != nil {
		return errors.Wrap(errors.ErrInternal, "获取点赞锁失败", err)
	}
	defer unlock()
	return fn()
}

// likeOutcome 唯一约束冲突是正常结果，不是错误
func likeOutcome(err error, notFound errors.ErrorCode, message string) (model.LikeOutcome, error) {
	if err == nil {
		return model.LikeCreated, nil
	}
	if stderrors.Is(err, interfaces.ErrDuplicate) {
		return model.LikeAlreadyExists, nil
	}
	return model.LikeAlreadyExists, mapRepoError(err, notFound, message)
}

// LikePost 点赞帖子，同一用户对同一帖子只会成功一次
func (s *CommunityService) LikePost(ctx context.Context, userID, postID int) (model.LikeOutcome, error) {
	if err := validateID(userID, "用户ID"); err != nil {
		return model.LikeAlreadyExists, err
	}
	if err := validateID(postID, "帖子ID"); err != nil {
		return model.LikeAlreadyExists, err
	}

	err := s.withLikeLock(ctx, "post", userID, postID, func() error {
		return s.repo.CreatePostLike(ctx, &model.PostLike{UserID: userID, PostID: postID, CreatedAt: s.now()})
	})
	outcome, err := likeOutcome(err, errors.ErrPostNotFound, "帖子不存在")
	if err == nil {
		util.Logger.Info("帖子点赞",
			zap.Int("user_id", userID),
			zap.Int("post_id", postID),
			zap.Stringer("outcome", outcome))
	}
	return outcome, err
}

// UnlikePost 取消帖子点赞，未点赞时返回 UnlikeNotFound 且不修改数据，帖子不存在时返回 ErrPostNotFound
func (s *CommunityService) UnlikePost(ctx context.Context, userID, postID int) (model.UnlikeOutcome, error) {
	if err := validateID(postID, "帖子ID"); err != nil {
		return model.UnlikeNotFound, err
	}
	removed, err := s.repo.DeletePostLike(ctx, userID, postID)
	if err != nil {
		return model.UnlikeNotFound, mapRepoError(err, errors.ErrPostNotFound, "帖子不存在")
	}
	if !removed {
		return model.UnlikeNotFound, nil
	}
	return model.UnlikeRemoved, nil
}

// LikeComment 点赞评论，同一用户对同一评论只会成功一次
func (s *CommunityService) LikeComment(ctx context.Context, userID, commentID int) (model.LikeOutcome, error) {
	if err := validateID(userID, "用户ID"); err != nil {
		return model.LikeAlreadyExists, err
	}
	if err := validateID(commentID, "评论ID"); err != nil {
		return model.LikeAlreadyExists, err
	}

	err := s.withLikeLock(ctx, "comment", userID, commentID, func() error {
		return s.repo.CreateCommentLike(ctx, &model.CommentLike{UserID: userID, CommentID: commentID, CreatedAt: s.now()})
	})
	outcome, err := likeOutcome(err, errors.ErrCommentNotFound, "评论不存在")
	if err == nil {
		util.Logger.Info("评论点赞",
			zap.Int("user_id", userID),
			zap.Int("comment_id", commentID),
			zap.Stringer("outcome", outcome))
	}
	return outcome, err
}

// UnlikeComment 取消评论点赞
func (s *CommunityService) UnlikeComment(ctx context.Context, userID, commentID int) (model.UnlikeOutcome, error) {
	if err := validateID(commentID, "评论ID"); err != nil {
		return model.UnlikeNotFound, err
	}
	removed, err := s.repo.DeleteCommentLike(ctx, userID, commentID)
	if err != nil {
		return model.UnlikeNotFound, mapRepoError(err, errors.ErrCommentNotFound, "评论不存在")
	}
	if !removed {
		return model.UnlikeNotFound, nil
	}
	return model.UnlikeRemoved, nil
}

type CommunityServiceInterface interface {
	CreatePost(ctx context.Context, userID int, content string) (*model.Post, error)
	GetPostWithComments(ctx context.Context, postID, viewerID int) (*model.PostDetail, error)
	ListPosts(ctx context.Context, page, pageSize, viewerID int) ([]*model.Post, int, error)
	UpdatePost(ctx context.Context, userID, postID int, content string) (*model.Post, error)
	DeletePost(ctx context.Context, userID, postID int) error
	CreateComment(ctx context.Context, userID, postID int, parentID *int, content string) (*model.Comment, error)
	GetComment(ctx context.Context, commentID int) (*model.Comment, error)
	DeleteComment(ctx context.Context, userID, commentID int) error
	LikePost(ctx context.Context, userID, postID int) (model.LikeOutcome, error)
	UnlikePost(ctx context.Context, userID, postID int) (model.UnlikeOutcome, error)
	LikeComment(ctx context.Context, userID, commentID int) (model.LikeOutcome, error)
	UnlikeComment(ctx context.Context, userID, commentID int) (model.UnlikeOutcome, error)
}

var _ CommunityServiceInterface = (*CommunityService)(nil)
