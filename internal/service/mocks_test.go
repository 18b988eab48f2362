package service

import (
	"community-feed-backend/internal/model"
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository 是 UserRepository 接口的模拟实现
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, ids []int) ([]*model.User, error) {
	args := m.Called(ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

// MockCommunityRepository 是 CommunityRepository 接口的模拟实现
type MockCommunityRepository struct {
	mock.Mock
}

func (m *MockCommunityRepository) CreatePost(ctx context.Context, post *model.Post) error {
	return m.Called(post).Error(0)
}

func (m *MockCommunityRepository) GetPostByID(ctx context.Context, id int) (*model.Post, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockCommunityRepository) UpdatePost(ctx context.Context, post *model.Post) error {
	return m.Called(post).Error(0)
}

func (m *MockCommunityRepository) DeletePost(ctx context.Context, id int) error {
	return m.Called(id).Error(0)
}

func (m *MockCommunityRepository) ListPosts(ctx context.Context, page, pageSize int) ([]*model.Post, int, error) {
	args := m.Called(page, pageSize)
	return args.Get(0).([]*model.Post), args.Int(1), args.Error(2)
}

func (m *MockCommunityRepository) CreateComment(ctx context.Context, comment *model.Comment) error {
	return m.Called(comment).Error(0)
}

func (m *MockCommunityRepository) GetCommentByID(ctx context.Context, id int) (*model.Comment, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *MockCommunityRepository) DeleteComment(ctx context.Context, id int) error {
	return m.Called(id).Error(0)
}

func (m *MockCommunityRepository) GetCommentsByPostID(ctx context.Context, postID int) ([]*model.Comment, error) {
	args := m.Called(postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Comment), args.Error(1)
}

func (m *MockCommunityRepository) CreatePostLike(ctx context.Context, like *model.PostLike) error {
	return m.Called(like).Error(0)
}

func (m *MockCommunityRepository) DeletePostLike(ctx context.Context, userID, postID int) (bool, error) {
	args := m.Called(userID, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCommunityRepository) CreateCommentLike(ctx context.Context, like *model.CommentLike) error {
	return m.Called(like).Error(0)
}

func (m *MockCommunityRepository) DeleteCommentLike(ctx context.Context, userID, commentID int) (bool, error) {
	args := m.Called(userID, commentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCommunityRepository) GetLikedPostIDs(ctx context.Context, userID int, postIDs []int) ([]int, error) {
	args := m.Called(userID, postIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockCommunityRepository) GetLikedCommentIDs(ctx context.Context, userID, postID int) ([]int, error) {
	args := m.Called(userID, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

// MockKarmaRepository 是 KarmaRepository 接口的模拟实现
type MockKarmaRepository struct {
	mock.Mock
}

func (m *MockKarmaRepository) PostLikesByAuthorSince(ctx context.Context, since time.Time) ([]model.AuthorLikes, error) {
	args := m.Called(since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuthorLikes), args.Error(1)
}

func (m *MockKarmaRepository) CommentLikesByAuthorSince(ctx context.Context, since time.Time) ([]model.AuthorLikes, error) {
	args := m.Called(since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AuthorLikes), args.Error(1)
}
