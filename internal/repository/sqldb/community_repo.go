package sqldb

import (
	"context"
	"database/sql"
	"time"

	"community-feed-backend/internal/model"
	"community-feed-backend/internal/repository/interfaces"
	"community-feed-backend/internal/util"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type communityRepository struct {
	db *DB
}

func NewCommunityRepository(db *DB) *communityRepository {
	return &communityRepository{db: db}
}

// 点赞计数和评论计数都由子查询实时算出，不存字段
const postSelect = `
        SELECT p.id, p.user_id, p.content, p.created_at, p.updated_at, u.username,
               (SELECT COUNT(*) FROM post_likes pl WHERE pl.post_id = p.id) AS like_count,
               (SELECT COUNT(*) FROM comments cc WHERE cc.post_id = p.id) AS comment_count
        FROM posts p
        JOIN users u ON p.user_id = u.id`

const commentSelect = `
        SELECT c.id, c.post_id, c.user_id, c.parent_id, c.content, c.created_at, c.updated_at,
               u.username,
               (SELECT COUNT(*) FROM comment_likes cl WHERE cl.comment_id = c.id) AS like_count
        FROM comments c
        JOIN users u ON c.user_id = u.id`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(s scanner) (*model.Post, error) {
	var post model.Post
	var author model.Author
	err := s.Scan(
		&post.ID, &post.UserID, &post.Content, &post.CreatedAt, &post.UpdatedAt,
		&author.Username, &post.LikeCount, &post.CommentCount,
	)
	if err != nil {
		return nil, err
	}
	author.ID = post.UserID
	post.Author = &author
	return &post, nil
}

func scanComment(s scanner) (*model.Comment, error) {
	var comment model.Comment
	var author model.Author
	err := s.Scan(
		&comment.ID, &comment.PostID, &comment.UserID, &comment.ParentID,
		&comment.Content, &comment.CreatedAt, &comment.UpdatedAt,
		&author.Username, &comment.LikeCount,
	)
	if err != nil {
		return nil, err
	}
	author.ID = comment.UserID
	comment.Author = &author
	return &comment, nil
}

func (r *communityRepository) CreatePost(ctx context.Context, post *model.Post) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	post.UpdatedAt = post.CreatedAt

	query := `INSERT INTO posts (user_id, content, created_at, updated_at) VALUES (?, ?, ?, ?)`
	id, err := r.db.insertID(ctx, r.db, query, post.UserID, post.Content, post.CreatedAt.UTC(), post.UpdatedAt.UTC())
	if err != nil {
		util.Logger.Error("创建帖子失败", zap.Error(err), zap.Int("user_id", post.UserID))
		return errors.Wrap(err, "insert post")
	}
	post.ID = id

	util.Logger.Info("帖子创建成功", zap.Int("post_id", post.ID))
	return nil
}

func (r *communityRepository) GetPostByID(ctx context.Context, id int) (*model.Post, error) {
	post, err := scanPost(r.db.queryRow(ctx, r.db, postSelect+` WHERE p.id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Wrapf(interfaces.ErrNotFound, "post %d", id)
		}
		return nil, errors.Wrap(err, "select post")
	}
	return post, nil
}

func (r *communityRepository) UpdatePost(ctx context.Context, post *model.Post) error {
	post.UpdatedAt = time.Now().UTC()
	query := `UPDATE posts SET content = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.exec(ctx, r.db, query, post.Content, post.UpdatedAt, post.ID)
	if err != nil {
		util.Logger.Error("更新帖子失败", zap.Error(err), zap.Int("post_id", post.ID))
		return errors.Wrap(err, "update post")
	}
	ok, err := affected(result)
	if err != nil {
		return errors.Wrap(err, "update post")
	}
	if !ok {
		return errors.Wrapf(interfaces.ErrNotFound, "post %d", post.ID)
	}
	return nil
}

// DeletePost 删除帖子，评论和点赞由外键级联删除
func (r *communityRepository) DeletePost(ctx context.Context, id int) error {
	util.Logger.Info("开始删除帖子", zap.Int("post_id", id))

	result, err := r.db.exec(ctx, r.db, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		util.Logger.Error("删除帖子失败", zap.Error(err), zap.Int("post_id", id))
		return errors.Wrap(err, "delete post")
	}
	ok, err := affected(result)
	if err != nil {
		return errors.Wrap(err, "delete post")
	}
	if !ok {
		return errors.Wrapf(interfaces.ErrNotFound, "post %d", id)
	}

	util.Logger.Info("帖子删除成功", zap.Int("post_id", id))
	return nil
}

func (r *communityRepository) ListPosts(ctx context.Context, page, pageSize int) ([]*model.Post, int, error) {
	// 首先取总数
	var total int
	if err := r.db.queryRow(ctx, r.db, `SELECT COUNT(*) FROM posts`).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count posts")
	}

	offset := (page - 1) * pageSize
	query := postSelect + `
        ORDER BY p.created_at DESC, p.id DESC
        LIMIT ? OFFSET ?`

	rows, err := r.db.query(ctx, r.db, query, pageSize, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list posts")
	}
	defer rows.Close()

	posts := make([]*model.Post, 0, pageSize)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "scan post")
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, "iterate posts")
	}

	return posts, total, nil
}

// CreateComment 在事务中校验帖子存在、父评论属于同一帖子后再插入，
// 父评论必须先于子评论存在，所以评论树不会成环
func (r *communityRepository) CreateComment(ctx context.Context, comment *model.Comment) error {
	util.Logger.Info("开始创建评论",
		zap.Int("user_id", comment.UserID),
		zap.Int("post_id", comment.PostID),
		zap.Any("parent_id", comment.ParentID))

	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	comment.UpdatedAt = comment.CreatedAt

	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		var postCount int
		if err := r.db.queryRow(ctx, tx, `SELECT COUNT(*) FROM posts WHERE id = ?`, comment.PostID).Scan(&postCount); err != nil {
			return errors.Wrap(err, "check post")
		}
		if postCount == 0 {
			return errors.Wrapf(interfaces.ErrNotFound, "post %d", comment.PostID)
		}

		if comment.ParentID != nil {
			var parentPostID int
			err := r.db.queryRow(ctx, tx, `SELECT post_id FROM comments WHERE id = ?`, *comment.ParentID).Scan(&parentPostID)
			if err == sql.ErrNoRows {
				return errors.Wrapf(interfaces.ErrInvalidParent, "parent %d not found", *comment.ParentID)
			}
			if err != nil {
				return errors.Wrap(err, "check parent comment")
			}
			if parentPostID != comment.PostID {
				return errors.Wrapf(interfaces.ErrInvalidParent, "parent %d belongs to post %d", *comment.ParentID, parentPostID)
			}
		}

		query := `INSERT INTO comments (post_id, user_id, parent_id, content, created_at, updated_at)
                  VALUES (?, ?, ?, ?, ?, ?)`
		id, err := r.db.insertID(ctx, tx, query,
			comment.PostID, comment.UserID, comment.ParentID, comment.Content,
			comment.CreatedAt.UTC(), comment.UpdatedAt.UTC())
		if err != nil {
			return errors.Wrap(err, "insert comment")
		}
		comment.ID = id
		return nil
	})
	if err != nil {
		util.Logger.Error("创建评论失败", zap.Error(err), zap.Int("post_id", comment.PostID))
		return err
	}

	util.Logger.Info("评论创建成功",
		zap.Int("comment_id", comment.ID),
		zap.Any("parent_id", comment.ParentID))
	return nil
}

func (r *communityRepository) GetCommentByID(ctx context.Context, id int) (*model.Comment, error) {
	comment, err := scanComment(r.db.queryRow(ctx, r.db, commentSelect+` WHERE c.id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Wrapf(interfaces.ErrNotFound, "comment %d", id)
		}
		return nil, errors.Wrap(err, "select comment")
	}
	return comment, nil
}

// DeleteComment 删除评论，回复和点赞由外键级联删除
func (r *communityRepository) DeleteComment(ctx context.Context, id int) error {
	util.Logger.Info("开始删除评论", zap.Int("comment_id", id))

	result, err := r.db.exec(ctx, r.db, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		util.Logger.Error("删除评论失败", zap.Error(err), zap.Int("comment_id", id))
		return errors.Wrap(err, "delete comment")
	}
	ok, err := affected(result)
	if err != nil {
		return errors.Wrap(err, "delete comment")
	}
	if !ok {
		return errors.Wrapf(interfaces.ErrNotFound, "comment %d", id)
	}

	util.Logger.Info("评论删除成功", zap.Int("comment_id", id))
	return nil
}

// GetCommentsByPostID 一次查询取出整棵评论树的扁平列表，树在内存中构建
func (r *communityRepository) GetCommentsByPostID(ctx context.Context, postID int) ([]*model.Comment, error) {
	query := commentSelect + `
        WHERE c.post_id = ?
        ORDER BY c.created_at ASC, c.id ASC`

	rows, err := r.db.query(ctx, r.db, query, postID)
	if err != nil {
		util.Logger.Error("查询帖子评论失败", zap.Error(err), zap.Int("post_id", postID))
		return nil, errors.Wrap(err, "list comments")
	}
	defer rows.Close()

	var comments []*model.Comment
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan comment")
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate comments")
	}

	util.Logger.Debug("成功获取帖子评论",
		zap.Int("post_id", postID),
		zap.Int("comment_count", len(comments)))
	return comments, nil
}

// likeTable 描述一种点赞表及其目标表
type likeTable struct {
	table        string
	targetColumn string
	targetTable  string
}

var (
	postLikeTable    = likeTable{table: "post_likes", targetColumn: "post_id", targetTable: "posts"}
	commentLikeTable = likeTable{table: "comment_likes", targetColumn: "comment_id", targetTable: "comments"}
)

// createLike 在事务中插入点赞记录。是否重复完全由唯一约束判定，
// 没有先查后插，所以并发的重复请求只有一个能提交
func (r *communityRepository) createLike(ctx context.Context, t likeTable, userID, targetID int, at time.Time) (int, error) {
	var id int
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		if err := r.requireTarget(ctx, tx, t, targetID); err != nil {
			return err
		}

		query := `INSERT INTO ` + t.table + ` (user_id, ` + t.targetColumn + `, created_at) VALUES (?, ?, ?)`
		var err error
		id, err = r.db.insertID(ctx, tx, query, userID, targetID, at.UTC())
		if err != nil {
			if r.db.dialect.IsUniqueViolation(err) {
				return errors.Wrapf(interfaces.ErrDuplicate, "%s user=%d target=%d", t.table, userID, targetID)
			}
			return errors.Wrapf(err, "insert %s", t.table)
		}
		return nil
	})
	return id, err
}

// requireTarget 目标帖子或评论不存在时返回 ErrNotFound
func (r *communityRepository) requireTarget(ctx context.Context, q querier, t likeTable, targetID int) error {
	var exists int
	err := r.db.queryRow(ctx, q, `SELECT COUNT(*) FROM `+t.targetTable+` WHERE id = ?`, targetID).Scan(&exists)
	if err != nil {
		return errors.Wrapf(err, "check %s", t.targetTable)
	}
	if exists == 0 {
		return errors.Wrapf(interfaces.ErrNotFound, "%s %d", t.targetTable, targetID)
	}
	return nil
}

// deleteLike 删除点赞记录。没有删除任何行时再确认目标是否存在，
// 以区分"未点赞"和"目标不存在"
func (r *communityRepository) deleteLike(ctx context.Context, t likeTable, userID, targetID int) (bool, error) {
	query := `DELETE FROM ` + t.table + ` WHERE user_id = ? AND ` + t.targetColumn + ` = ?`
	result, err := r.db.exec(ctx, r.db, query, userID, targetID)
	if err != nil {
		return false, errors.Wrapf(err, "delete %s", t.table)
	}
	removed, err := affected(result)
	if err != nil || removed {
		return removed, err
	}
	if err := r.requireTarget(ctx, r.db, t, targetID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *communityRepository) CreatePostLike(ctx context.Context, like *model.PostLike) error {
	if like.CreatedAt.IsZero() {
		like.CreatedAt = time.Now().UTC()
	}
	id, err := r.createLike(ctx, postLikeTable, like.UserID, like.PostID, like.CreatedAt)
	if err != nil {
		return err
	}
	like.ID = id
	return nil
}

func (r *communityRepository) DeletePostLike(ctx context.Context, userID, postID int) (bool, error) {
	return r.deleteLike(ctx, postLikeTable, userID, postID)
}

func (r *communityRepository) CreateCommentLike(ctx context.Context, like *model.CommentLike) error {
	if like.CreatedAt.IsZero() {
		like.CreatedAt = time.Now().UTC()
	}
	id, err := r.createLike(ctx, commentLikeTable, like.UserID, like.CommentID, like.CreatedAt)
	if err != nil {
		return err
	}
	like.ID = id
	return nil
}

func (r *communityRepository) DeleteCommentLike(ctx context.Context, userID, commentID int) (bool, error) {
	return r.deleteLike(ctx, commentLikeTable, userID, commentID)
}

// GetLikedPostIDs 返回 postIDs 中用户点过赞的帖子
func (r *communityRepository) GetLikedPostIDs(ctx context.Context, userID int, postIDs []int) ([]int, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	query := `SELECT post_id FROM post_likes WHERE user_id = ? AND post_id IN (` + placeholders(len(postIDs)) + `)`
	args := append([]interface{}{userID}, intArgs(postIDs)...)
	return r.queryIDs(ctx, query, args...)
}

// GetLikedCommentIDs 一次查询返回用户在该帖子下点过赞的评论
func (r *communityRepository) GetLikedCommentIDs(ctx context.Context, userID, postID int) ([]int, error) {
	query := `
        SELECT cl.comment_id
        FROM comment_likes cl
        JOIN comments c ON cl.comment_id = c.id
        WHERE cl.user_id = ? AND c.post_id = ?`
	return r.queryIDs(ctx, query, userID, postID)
}

func (r *communityRepository) queryIDs(ctx context.Context, query string, args ...interface{}) ([]int, error) {
	rows, err := r.db.query(ctx, r.db, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query ids")
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan id")
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(rows.Err(), "iterate ids")
}
