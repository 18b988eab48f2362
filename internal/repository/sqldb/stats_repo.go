package sqldb

import (
	"context"

	"community-feed-backend/internal/model"

	"github.com/pkg/errors"
)

type statsRepository struct {
	db *DB
}

func NewStatsRepository(db *DB) *statsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// GetSystemStats 汇总各表行数
func (r *statsRepository) GetSystemStats(ctx context.Context) (*model.SystemStats, error) {
	query := `
        SELECT
            (SELECT COUNT(*) FROM users),
            (SELECT COUNT(*) FROM posts),
            (SELECT COUNT(*) FROM comments),
            (SELECT COUNT(*) FROM post_likes) + (SELECT COUNT(*) FROM comment_likes)`

	var stats model.SystemStats
	err := r.db.queryRow(ctx, r.db, query).Scan(
		&stats.TotalUsers, &stats.TotalPosts, &stats.TotalComments, &stats.TotalLikes)
	if err != nil {
		return nil, errors.Wrap(err, "select system stats")
	}
	return &stats, nil
}
