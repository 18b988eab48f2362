package service

import (
	"community-feed-backend/internal/errors"
	"community-feed-backend/internal/model"
	"community-feed-backend/internal/repository/interfaces"
	"community-feed-backend/internal/util"
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"golang.org/x/crypto/bcrypt"
)

// UserService 处理与用户相关的业务逻辑
type UserService struct {
	userRepo       interfaces.UserRepository
	tokenBlacklist map[string]time.Time
	blacklistMutex sync.RWMutex
}

// NewUserService 创建一个新的 UserService 实例
func NewUserService(userRepo interfaces.UserRepository) *UserService {
	return &UserService{
		userRepo:       userRepo,
		tokenBlacklist: make(map[string]time.Time),
	}
}

// Register 注册新用户，用户名唯一性由数据库约束保证
func (s *UserService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.New(errors.ErrValidation, "username and password are required")
	}
	if username == model.AnonymousUsername {
		return nil, errors.New(errors.ErrUserExists, "username already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "生成密码哈希失败", err)
	}

	user := &model.User{
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if stderrors.Is(err, interfaces.ErrDuplicate) {
			return nil, errors.New(errors.ErrUserExists, "username already exists")
		}
		return nil, errors.Wrap(errors.ErrDatabase, "创建用户失败", err)
	}
	return user, nil
}

// Login 用户登录
func (s *UserService) Login(ctx context.Context, username, password string) (*model.User, error) {
	util.Logger.Info("尝试用户登录", zap.String("username", username))

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if stderrors.Is(err, interfaces.ErrNotFound) {
			util.Logger.Info("用户登录失败，未找到用户", zap.String("username", username))
			return nil, errors.New(errors.ErrInvalidCredentials, "invalid username or password")
		}
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}

	// 匿名账号没有密码，不能登录
	if user.PasswordHash == "" {
		return nil, errors.New(errors.ErrInvalidCredentials, "invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		util.Logger.Info("用户登录失败，密码不正确", zap.Int("user_id", user.ID))
		return nil, errors.New(errors.ErrInvalidCredentials, "invalid username or password")
	}

	util.Logger.Info("用户登录成功", zap.Int("user_id", user.ID))
	return user, nil
}

// GetUserByID 通过ID获取用户信息
func (s *UserService) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, interfaces.ErrNotFound) {
			return nil, errors.New(errors.ErrUserNotFound, "user not found")
		}
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	return user, nil
}

// ResolveAnonymous 获取匿名账号，不存在时创建。并发创建时读取已存在的记录
func (s *UserService) ResolveAnonymous(ctx context.Context) (*model.User, error) {
	user, err := s.FindAnonymous(ctx)
	if err != nil || user != nil {
		return user, err
	}

	user = &model.User{Username: model.AnonymousUsername}
	err = s.userRepo.Create(ctx, user)
	if err == nil {
		util.Logger.Info("匿名账号已创建", zap.Int("user_id", user.ID))
		return user, nil
	}
	if !stderrors.Is(err, interfaces.ErrDuplicate) {
		return nil, errors.Wrap(errors.ErrDatabase, "创建匿名账号失败", err)
	}

	user, err = s.userRepo.FindByUsername(ctx, model.AnonymousUsername)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询匿名账号失败", err)
	}
	return user, nil
}

// FindAnonymous 只查询匿名账号，不存在时返回 nil
func (s *UserService) FindAnonymous(ctx context.Context) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, model.AnonymousUsername)
	if err != nil {
		if stderrors.Is(err, interfaces.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(errors.ErrDatabase, "查询匿名账号失败", err)
	}
	return user, nil
}

// Logout 把令牌加入黑名单，直到其过期
func (s *UserService) Logout(token string, expiresAt time.Time) {
	s.blacklistMutex.Lock()
	s.tokenBlacklist[token] = expiresAt
	s.blacklistMutex.Unlock()
	util.Logger.Info("用户注销，令牌已加入黑名单")
}

func (s *UserService) IsTokenBlacklisted(token string) bool {
	s.blacklistMutex.RLock()
	expiry, exists := s.tokenBlacklist[token]
	s.blacklistMutex.RUnlock()
	if !exists {
		return false
	}
	if time.Now().After(expiry) {
		s.blacklistMutex.Lock()
		delete(s.tokenBlacklist, token)
		s.blacklistMutex.Unlock()
		return false
	}
	return true
}

type UserServiceInterface interface {
	Register(ctx context.Context, username, email, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (*model.User, error)
	GetUserByID(ctx context.Context, id int) (*model.User, error)
	ResolveAnonymous(ctx context.Context) (*model.User, error)
	FindAnonymous(ctx context.Context) (*model.User, error)
	Logout(token string, expiresAt time.Time)
	IsTokenBlacklisted(token string) bool
}

// 确保 UserService 实现了 UserServiceInterface
var _ UserServiceInterface = (*UserService)(nil)
