package sqldb

import (
	"context"
	"time"

	"community-feed-backend/internal/model"

	"github.com/pkg/errors"
)

type karmaRepository struct {
	db *DB
}

func NewKarmaRepository(db *DB) *karmaRepository {
	return &karmaRepository{db: db}
}

// PostLikesByAuthorSince 统计 since 之后每个帖子作者收到的帖子点赞数
func (r *karmaRepository) PostLikesByAuthorSince(ctx context.Context, since time.Time) ([]model.AuthorLikes, error) {
	query := `
        SELECT p.user_id, COUNT(*)
        FROM post_likes pl
        JOIN posts p ON pl.post_id = p.id
        WHERE pl.created_at >= ?
        GROUP BY p.user_id`
	return r.aggregate(ctx, query, since)
}

// CommentLikesByAuthorSince 统计 since 之后每个评论作者收到的评论点赞数
func (r *karmaRepository) CommentLikesByAuthorSince(ctx context.Context, since time.Time) ([]model.AuthorLikes, error) {
	query := `
        SELECT c.user_id, COUNT(*)
        FROM comment_likes cl
        JOIN comments c ON cl.comment_id = c.id
        WHERE cl.created_at >= ?
        GROUP BY c.user_id`
	return r.aggregate(ctx, query, since)
}

func (r *karmaRepository) aggregate(ctx context.Context, query string, since time.Time) ([]model.AuthorLikes, error) {
	rows, err := r.db.query(ctx, r.db, query, since.UTC())
	if err != nil {
		return nil, errors.Wrap(err, "aggregate likes")
	}
	defer rows.Close()

	var result []model.AuthorLikes
	for rows.Next() {
		var entry model.AuthorLikes
		if err := rows.Scan(&entry.UserID, &entry.Likes); err != nil {
			return nil, errors.Wrap(err, "scan author likes")
		}
		result = append(result, entry)
	}
	return result, errors.Wrap(rows.Err(), "iterate author likes")
}
