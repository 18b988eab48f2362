package service

import (
	"community-feed-backend/internal/errors"
	"community-feed-backend/internal/model"
	"community-feed-backend/internal/repository/interfaces"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newCommunityService(repo *MockCommunityRepository, locker LikeLocker) *CommunityService {
	return NewCommunityService(repo, locker).WithClock(func() time.Time { return fixedNow })
}

func TestGetPostWithCommentsFetchesOnce(t *testing.T) {
	repo := new(MockCommunityRepository)
	s := newCommunityService(repo, nil)

	post := &model.Post{ID: 10, UserID: 1, Content: "hello"}
	comments := []*model.Comment{
		comment(1, nil),
		comment(2, nil),
		comment(3, intPtr(1)),
		comment(4, intPtr(3)),
	}
	repo.On("GetPostByID", 10).Return(post, nil)
	repo.On("GetCommentsByPostID", 10).Return(comments, nil)
	repo.On("GetLikedPostIDs", 7, []int{10}).Return([]int{10}, nil)
	repo.On("GetLikedCommentIDs", 7, 10).Return([]int{3}, nil)

	detail, err := s.GetPostWithComments(context.Background(), 10, 7)
	require.NoError(t, err)

	repo.AssertNumberOfCalls(t, "GetCommentsByPostID", 1)
	repo.AssertNumberOfCalls(t, "GetLikedCommentIDs", 1)
	assert.True(t, detail.UserHasLiked)
	require.Len(t, detail.Comments, 2)
	c := detail.Comments[0].Replies[0]
	assert.Equal(t, 3, c.ID)
	assert.True(t, c.UserHasLiked)
	assert.Equal(t, 4, c.Replies[0].ID)
}

func TestGetPostWithCommentsAnonymous(t *testing.T) {
	repo := new(MockCommunityRepository)
	s := newCommunityService(repo, nil)

	repo.On("GetPostByID", 10).Return(&model.Post{ID: 10}, nil)
	repo.On("GetCommentsByPostID", 10).Return([]*model.Comment{}, nil)

	detail, err := s.GetPostWithComments(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.NotNil(t, detail.Comments)
	assert.Empty(t, detail.Comments)
	assert.False(t, detail.UserHasLiked)
	repo.AssertNotCalled(t, "GetLikedCommentIDs", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "GetLikedPostIDs", mock.Anything, mock.Anything)
}

func TestGetPostWithCommentsNotFound(t *testing.T) {
	repo := new(MockCommunityRepository)
	s := newCommunityService(repo, nil)

	repo.On("GetPostByID", 99).Return(nil, pkgerrors.Wrap(interfaces.ErrNotFound, "post 99"))

	_, err := s.GetPostWithComments(context.Background(), 99, 0)
	assert.Equal(t, errors.ErrPostNotFound, errors.CodeOf(err))
	repo.AssertNotCalled(t, "GetCommentsByPostID", mock.Anything)
}

func TestLikePostOutcomes(t *testing.T) {
	repo := new(MockCommunityRepository)
	s := newCommunityService(repo, nil)
	ctx := context.Background()

	matchLike := mock.MatchedBy(func(l *model.PostLike) bool {
		return l.UserID == 3 && l.PostID == 10 && l.CreatedAt.Equal(fixedNow)
	})
	repo.On("CreatePostLike", matchLike).Return(nil).Once()
	repo.On("CreatePostLike", matchLike).Return(pkgerrors.Wrap(interfaces.ErrDuplicate, "post_likes")).Once()

	outcome, err := s.LikePost(ctx, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, model.LikeCreated, outcome)

	outcome, err = s.LikePost(ctx, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, model.LikeAlreadyExists, outcome)
	repo.AssertExpectations(t)
}

func TestLikeMissingTarget(t *testing.T) {
	repo := new(MockCommunityRepository)
	s := newCommunityService(repo, nil)

	repo.On("CreateCommentLike", mock.Anything).Return(pkgerrors.Wrap(interfaces.ErrNotFound, "comments 5"))

	_, err := s.LikeComment(context.Background(), 3, 5)
	assert.Equal(t, errors.ErrCommentNotFound, errors.CodeOf(err))
}

func TestLikeValidation(t *testing.T) {
	repo := new(MockCommunityRepository)
	s := newCommunityService(repo, nil)

	_, err := s.LikePost(context.Background(), 3, 0)
	assert.Equal(t, errors.ErrValidation, errors.CodeOf(err))
	_, err = s.LikeComment(context.Background(), 0, 5)
	assert.Equal(t, errors.ErrValidation, errors.CodeOf(err))
	repo.AssertNotCalled(t, "CreatePostLike", mock.Anything)
	repo.AssertNotCalled(t, "CreateCommentLike", mock.Anything)
}

func TestUnlikeOutcomes(t *testing.T) {
	repo := new(MockCommunityRepository)
	s := newCommunityService(repo, nil)
	ctx := context.Background()

	repo.On("DeleteCommentLike", 3, 5).Return(true, nil).Once()
	repo.On("DeleteCommentLike", 3, 5).Return(false, nil).Once()

	outcome, err := s.UnlikeComment(ctx, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, model.UnlikeRemoved, outcome)

	outcome, err = s.UnlikeComment(ctx, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, model.UnlikeNotFound, outcome)
}

func TestUnlikeMissingTarget(t *testing.T) {
	repo := new(MockCommunityRepository)
	s := newCommunityService(repo, nil)
	ctx := context.Background()

	repo.On("DeletePostLike", 3, 9999).Return(false, pkgerrors.Wrap(interfaces.ErrNotFound, "posts 9999"))
	repo.On("DeleteCommentLike", 3, 9999).Return(false, pkgerrors.Wrap(interfaces.ErrNotFound, "comments 9999"))

	outcome, err := s.UnlikePost(ctx, 3, 9999)
	assert.Equal(t, model.UnlikeNotFound, outcome)
	assert.Equal(t, errors.ErrPostNotFound, errors.CodeOf(err))

	outcome, err = s.UnlikeComment(ctx, 3, 9999)
	assert.Equal(t, model.UnlikeNotFound, outcome)
	assert.Equal(t, errors.ErrCommentNotFound, errors.CodeOf(err))
}

type recordingLocker struct {
	mu   sync.Mutex
	keys []string
}

func (l *recordingLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	l.keys = append(l.keys, key)
	l.mu.Unlock()
	return func() {}, nil
}

type failingLocker struct{}

func (failingLocker) Lock(ctx context.Context, key string) (func(), error) {
	return nil, fmt.Errorf("redis unavailable")
}

func TestLikeUsesLocker(t *testing.T) {
	repo := new(MockCommunityRepository)
	locker := &recordingLocker{}
	s := newCommunityService(repo, locker)

	repo.On("CreatePostLike", mock.Anything).Return(nil)
	repo.On("CreateCommentLike", mock.Anything).Return(nil)

	_, err := s.LikePost(context.Background(), 3, 10)
	require.NoError(t, err)
	_, err = s.LikeComment(context.Background(), 3, 5)
	require.NoError(t, err)

	assert.Equal(t, []string{"like:post:3:10", "like:comment:3:5"}, locker.keys)
}

func TestLikeLockFailureDoesNotInsert(t *testing.T) {
	repo := new(MockCommunityRepository)
	s := newCommunityService(repo, failingLocker{})

	_, err := s.LikePost(context.Background(), 3, 10)
	assert.Equal(t, errors.ErrInternal, errors.CodeOf(err))
	repo.AssertNotCalled(t, "CreatePostLike", mock.Anything)
}

func TestCreateCommentInvalidParent(t *testing.T) {
	repo := new(MockCommunityRepository)
	s := newCommunityService(repo, nil)

	repo.On("CreateComment", mock.Anything).Return(pkgerrors.Wrap(interfaces.ErrInvalidParent, "parent 4"))

	_, err := s.CreateComment(context.Background(), 1, 10, intPtr(4), "reply")
	assert.Equal(t, errors.ErrInvalidParent, errors.CodeOf(err))
}

func TestCreateCommentRejectsBlank(t *testing.T) {
	repo := new(MockCommunityRepository)
	s := newCommunityService(repo, nil)

	_, err := s.CreateComment(context.Background(), 1, 10, nil, "  \n ")
	assert.Equal(t, errors.ErrValidation, errors.CodeOf(err))
	repo.AssertNotCalled(t, "CreateComment", mock.Anything)
}

func TestDeletePostRequiresOwner(t *testing.T) {
	repo := new(MockCommunityRepository)
	s := newCommunityService(repo, nil)

	repo.On("GetPostByID", 10).Return(&model.Post{ID: 10, UserID: 1}, nil)
	repo.On("DeletePost", 10).Return(nil)

	err := s.DeletePost(context.Background(), 2, 10)
	assert.Equal(t, errors.ErrNotOwner, errors.CodeOf(err))
	repo.AssertNotCalled(t, "DeletePost", mock.Anything)

	assert.NoError(t, s.DeletePost(context.Background(), 1, 10))
}

func TestListPostsMarksLiked(t *testing.T) {
	repo := new(MockCommunityRepository)
	s := newCommunityService(repo, nil)

	posts := []*model.Post{{ID: 3}, {ID: 2}, {ID: 1}}
	repo.On("ListPosts", 1, maxPageSize).Return(posts, 3, nil)
	repo.On("GetLikedPostIDs", 7, []int{3, 2, 1}).Return([]int{2}, nil)

	got, total, err := s.ListPosts(context.Background(), 0, 1000, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.False(t, got[0].UserHasLiked)
	assert.True(t, got[1].UserHasLiked)
	assert.False(t, got[2].UserHasLiked)
}
