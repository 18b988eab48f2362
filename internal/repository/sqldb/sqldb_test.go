package sqldb

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"community-feed-backend/config"
	"community-feed-backend/internal/model"
	"community-feed-backend/internal/repository/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db        *DB
	users     *userRepository
	community *communityRepository
	karma     *karmaRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := Open(string(SQLite), config.SQLiteDSN(filepath.Join(t.TempDir(), "feed.db")), 0)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	return &fixture{
		db:        db,
		users:     NewUserRepository(db),
		community: NewCommunityRepository(db),
		karma:     NewKarmaRepository(db),
	}
}

func (f *fixture) user(t *testing.T, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) post(t *testing.T, author *model.User) *model.Post {
	t.Helper()
	p := &model.Post{UserID: author.ID, Content: "post by " + author.Username}
	require.NoError(t, f.community.CreatePost(context.Background(), p))
	return p
}

func (f *fixture) comment(t *testing.T, author *model.User, post *model.Post, parent *model.Comment, at time.Time) *model.Comment {
	t.Helper()
	c := &model.Comment{PostID: post.ID, UserID: author.ID, Content: "comment", CreatedAt: at}
	if parent != nil {
		c.ParentID = &parent.ID
	}
	require.NoError(t, f.community.CreateComment(context.Background(), c))
	return c
}

func TestUsernameUnique(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice")

	err := f.users.Create(context.Background(), &model.User{Username: "alice"})
	assert.ErrorIs(t, err, interfaces.ErrDuplicate)

	_, err = f.users.FindByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestFindByIDsSkipsMissing(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	users, err := f.users.FindByIDs(context.Background(), []int{alice.ID, bob.ID, 9999})
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestPostCountsAndPersonalization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	post := f.post(t, alice)
	f.comment(t, bob, post, nil, time.Time{})

	require.NoError(t, f.community.CreatePostLike(ctx, &model.PostLike{UserID: bob.ID, PostID: post.ID}))

	got, err := f.community.GetPostByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikeCount)
	assert.Equal(t, 1, got.CommentCount)
	assert.Equal(t, "alice", got.Author.Username)

	liked, err := f.community.GetLikedPostIDs(ctx, bob.ID, []int{post.ID})
	require.NoError(t, err)
	assert.Equal(t, []int{post.ID}, liked)

	liked, err = f.community.GetLikedPostIDs(ctx, alice.ID, []int{post.ID})
	require.NoError(t, err)
	assert.Empty(t, liked)
}

func TestListPostsNewestFirst(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	first := f.post(t, alice)
	second := f.post(t, alice)
	third := f.post(t, alice)

	posts, total, err := f.community.ListPosts(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, posts, 2)
	assert.Equal(t, third.ID, posts[0].ID)
	assert.Equal(t, second.ID, posts[1].ID)

	posts, _, err = f.community.ListPosts(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, first.ID, posts[0].ID)
}

func TestCommentsSingleQueryOrdering(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	post := f.post(t, alice)
	base := time.Now().UTC().Add(-time.Hour)

	a := f.comment(t, alice, post, nil, base)
	c := f.comment(t, alice, post, a, base.Add(2*time.Minute))
	b := f.comment(t, alice, post, nil, base.Add(time.Minute))
	d := f.comment(t, alice, post, c, base.Add(3*time.Minute))

	comments, err := f.community.GetCommentsByPostID(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 4)

	ids := make([]int, len(comments))
	for i, comment := range comments {
		ids[i] = comment.ID
	}
	assert.Equal(t, []int{a.ID, b.ID, c.ID, d.ID}, ids)
	assert.Nil(t, comments[0].ParentID)
	assert.Equal(t, c.ID, *comments[3].ParentID)
}

func TestCreateCommentRejectsForeignParent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	post := f.post(t, alice)
	other := f.post(t, alice)
	parent := f.comment(t, alice, other, nil, time.Time{})

	err := f.community.CreateComment(ctx, &model.Comment{PostID: post.ID, UserID: alice.ID, ParentID: &parent.ID, Content: "x"})
	assert.ErrorIs(t, err, interfaces.ErrInvalidParent)

	missing := 9999
	err = f.community.CreateComment(ctx, &model.Comment{PostID: post.ID, UserID: alice.ID, ParentID: &missing, Content: "x"})
	assert.ErrorIs(t, err, interfaces.ErrInvalidParent)

	err = f.community.CreateComment(ctx, &model.Comment{PostID: 9999, UserID: alice.ID, Content: "x"})
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestDeleteCommentCascadesToReplies(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	post := f.post(t, alice)
	root := f.comment(t, alice, post, nil, time.Time{})
	reply := f.comment(t, alice, post, root, time.Time{})
	require.NoError(t, f.community.CreateCommentLike(ctx, &model.CommentLike{UserID: alice.ID, CommentID: reply.ID}))

	require.NoError(t, f.community.DeleteComment(ctx, root.ID))

	comments, err := f.community.GetCommentsByPostID(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	var likes int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM comment_likes`).Scan(&likes))
	assert.Zero(t, likes)

	assert.ErrorIs(t, f.community.DeleteComment(ctx, root.ID), interfaces.ErrNotFound)
}

func TestLikeUniqueness(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	post := f.post(t, alice)

	require.NoError(t, f.community.CreatePostLike(ctx, &model.PostLike{UserID: bob.ID, PostID: post.ID}))
	err := f.community.CreatePostLike(ctx, &model.PostLike{UserID: bob.ID, PostID: post.ID})
	assert.ErrorIs(t, err, interfaces.ErrDuplicate)

	removed, err := f.community.DeletePostLike(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = f.community.DeletePostLike(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	// 取消后可以重新点赞
	require.NoError(t, f.community.CreatePostLike(ctx, &model.PostLike{UserID: bob.ID, PostID: post.ID}))

	err = f.community.CreatePostLike(ctx, &model.PostLike{UserID: bob.ID, PostID: 9999})
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}

func TestUnlikeMissingTarget(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	post := f.post(t, alice)
	comment := f.comment(t, alice, post, nil, time.Now().UTC())

	removed, err := f.community.DeletePostLike(ctx, alice.ID, 9999)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
	assert.False(t, removed)

	removed, err = f.community.DeleteCommentLike(ctx, alice.ID, 9999)
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
	assert.False(t, removed)

	// 目标存在但未点赞
	removed, err = f.community.DeletePostLike(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = f.community.DeleteCommentLike(ctx, 0, comment.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestConcurrentLikesStoreOneRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	post := f.post(t, alice)
	comment := f.comment(t, alice, post, nil, time.Time{})

	const workers = 16
	var (
		wg                      sync.WaitGroup
		mu                      sync.Mutex
		postOK, commentOK, dups int
		unexpected              []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			err := f.community.CreatePostLike(ctx, &model.PostLike{UserID: bob.ID, PostID: post.ID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				postOK++
			case isDuplicate(err):
				dups++
			default:
				unexpected = append(unexpected, err)
			}
		}()
		go func() {
			defer wg.Done()
			err := f.community.CreateCommentLike(ctx, &model.CommentLike{UserID: bob.ID, CommentID: comment.ID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				commentOK++
			case isDuplicate(err):
				dups++
			default:
				unexpected = append(unexpected, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, unexpected)
	assert.Equal(t, 1, postOK)
	assert.Equal(t, 1, commentOK)
	assert.Equal(t, 2*(workers-1), dups)

	var rows int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM post_likes`).Scan(&rows))
	assert.Equal(t, 1, rows)
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM comment_likes`).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func isDuplicate(err error) bool {
	return stderrors.Is(err, interfaces.ErrDuplicate)
}

func TestKarmaWindowCountsLikeTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")
	now := time.Now().UTC()

	post := f.post(t, alice)
	comment := f.comment(t, bob, post, nil, time.Time{})

	require.NoError(t, f.community.CreatePostLike(ctx, &model.PostLike{UserID: bob.ID, PostID: post.ID, CreatedAt: now.Add(-23 * time.Hour)}))
	require.NoError(t, f.community.CreatePostLike(ctx, &model.PostLike{UserID: carol.ID, PostID: post.ID, CreatedAt: now.Add(-25 * time.Hour)}))
	require.NoError(t, f.community.CreateCommentLike(ctx, &model.CommentLike{UserID: alice.ID, CommentID: comment.ID, CreatedAt: now.Add(-time.Minute)}))
	require.NoError(t, f.community.CreateCommentLike(ctx, &model.CommentLike{UserID: carol.ID, CommentID: comment.ID, CreatedAt: now}))

	since := now.Add(-24 * time.Hour)
	postLikes, err := f.karma.PostLikesByAuthorSince(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, []model.AuthorLikes{{UserID: alice.ID, Likes: 1}}, postLikes)

	commentLikes, err := f.karma.CommentLikesByAuthorSince(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, []model.AuthorLikes{{UserID: bob.ID, Likes: 2}}, commentLikes)
}

func TestRebind(t *testing.T) {
	q := `SELECT * FROM t WHERE a = ? AND b IN (?, ?)`
	assert.Equal(t, q, MySQL.Rebind(q))
	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, `SELECT * FROM t WHERE a = $1 AND b IN ($2, $3)`, Postgres.Rebind(q))
}
