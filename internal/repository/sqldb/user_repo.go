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

// userRepository 实现了 UserRepository 接口
type userRepository struct {
	db *DB
}

// NewUserRepository 创建一个新的 userRepository 实例
func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db}
}

const userSelect = `SELECT id, username, email, password_hash, created_at FROM users`

func scanUser(s scanner) (*model.User, error) {
	var user model.User
	if err := s.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt); err != nil {
		return nil, err
	}
	return &user, nil
}

// Create 创建一个新用户，用户名重复时返回 ErrDuplicate
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`
	id, err := r.db.insertID(ctx, r.db, query, user.Username, user.Email, user.PasswordHash, user.CreatedAt.UTC())
	if err != nil {
		if r.db.dialect.IsUniqueViolation(err) {
			return errors.Wrapf(interfaces.ErrDuplicate, "username %q", user.Username)
		}
		util.Logger.Error("创建用户失败", zap.Error(err), zap.String("username", user.Username))
		return errors.Wrap(err, "insert user")
	}
	user.ID = id
	util.Logger.Info("用户创建成功", zap.Int("user_id", user.ID))
	return nil
}

// FindByID 通过ID查找用户
func (r *userRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	user, err := scanUser(r.db.queryRow(ctx, r.db, userSelect+` WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Wrapf(interfaces.ErrNotFound, "user %d", id)
		}
		return nil, errors.Wrap(err, "select user")
	}
	return user, nil
}

// FindByUsername 通过用户名查找用户
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := scanUser(r.db.queryRow(ctx, r.db, userSelect+` WHERE username = ?`, username))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.Wrapf(interfaces.ErrNotFound, "user %q", username)
		}
		return nil, errors.Wrap(err, "select user")
	}
	return user, nil
}

// FindByIDs 批量查找用户，不存在的ID直接忽略
func (r *userRepository) FindByIDs(ctx context.Context, ids []int) ([]*model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.query(ctx, r.db, userSelect+` WHERE id IN (`+placeholders(len(ids))+`)`, intArgs(ids)...)
	if err != nil {
		return nil, errors.Wrap(err, "select users")
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		users = append(users, user)
	}
	return users, errors.Wrap(rows.Err(), "iterate users")
}
