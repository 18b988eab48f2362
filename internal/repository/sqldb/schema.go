package sqldb

import (
	"context"

	"community-feed-backend/internal/util"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// 每条语句单独执行，MySQL 驱动默认不允许多语句
var schemas = map[Dialect][]string{
	MySQL: {
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(150) NOT NULL,
			email VARCHAR(255) NOT NULL DEFAULT '',
			password_hash VARCHAR(255) NOT NULL DEFAULT '',
			created_at DATETIME(6) NOT NULL,
			UNIQUE KEY unique_username (username)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS posts (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			KEY idx_posts_created_at (created_at),
			CONSTRAINT fk_posts_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS comments (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			post_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			parent_id BIGINT NULL,
			content TEXT NOT NULL,
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			KEY idx_comments_post_created (post_id, created_at),
			CONSTRAINT fk_comments_post FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE,
			CONSTRAINT fk_comments_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
			CONSTRAINT fk_comments_parent FOREIGN KEY (parent_id) REFERENCES comments (id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS post_likes (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			post_id BIGINT NOT NULL,
			created_at DATETIME(6) NOT NULL,
			UNIQUE KEY unique_post_like (user_id, post_id),
			KEY idx_post_likes_created_at (created_at),
			CONSTRAINT fk_post_likes_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
			CONSTRAINT fk_post_likes_post FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS comment_likes (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			comment_id BIGINT NOT NULL,
			created_at DATETIME(6) NOT NULL,
			UNIQUE KEY unique_comment_like (user_id, comment_id),
			KEY idx_comment_likes_created_at (created_at),
			CONSTRAINT fk_comment_likes_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
			CONSTRAINT fk_comment_likes_comment FOREIGN KEY (comment_id) REFERENCES comments (id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	SQLite: {
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts (created_at)`,
		`CREATE TABLE IF NOT EXISTS comments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			post_id INTEGER NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
			user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			parent_id INTEGER NULL REFERENCES comments (id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments (post_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS post_likes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			post_id INTEGER NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL,
			CONSTRAINT unique_post_like UNIQUE (user_id, post_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_post_likes_created_at ON post_likes (created_at)`,
		`CREATE TABLE IF NOT EXISTS comment_likes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			comment_id INTEGER NOT NULL REFERENCES comments (id) ON DELETE CASCADE,
			created_at DATETIME NOT NULL,
			CONSTRAINT unique_comment_like UNIQUE (user_id, comment_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comment_likes_created_at ON comment_likes (created_at)`,
	},
	Postgres: {
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username VARCHAR(150) NOT NULL UNIQUE,
			email VARCHAR(255) NOT NULL DEFAULT '',
			password_hash VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts (created_at)`,
		`CREATE TABLE IF NOT EXISTS comments (
			id BIGSERIAL PRIMARY KEY,
			post_id BIGINT NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
			user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			parent_id BIGINT NULL REFERENCES comments (id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments (post_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS post_likes (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			post_id BIGINT NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL,
			CONSTRAINT unique_post_like UNIQUE (user_id, post_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_post_likes_created_at ON post_likes (created_at)`,
		`CREATE TABLE IF NOT EXISTS comment_likes (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
			comment_id BIGINT NOT NULL REFERENCES comments (id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL,
			CONSTRAINT unique_comment_like UNIQUE (user_id, comment_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comment_likes_created_at ON comment_likes (created_at)`,
	},
}

// Migrate 建表，可重复执行
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schemas[db.dialect] {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			util.Logger.Error("执行建表语句失败", zap.Error(err), zap.Int("statement", i))
			return errors.Wrapf(err, "migrate statement %d", i)
		}
	}
	util.Logger.Info("数据库表结构已就绪", zap.String("dialect", string(db.dialect)))
	return nil
}
