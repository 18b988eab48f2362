package middleware

import (
	"community-feed-backend/internal/errors"
	"community-feed-backend/internal/service"
	"community-feed-backend/internal/util"
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// ContextUserID 认证成功后写入 gin 上下文的用户ID
	ContextUserID = "user_id"
	// ContextToken 认证成功后写入 gin 上下文的原始令牌
	ContextToken = "token"
)

// bearerToken 解析 Authorization 头，没有该头时 present 为 false
func bearerToken(c *gin.Context) (token string, present bool, err error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false, nil
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		return "", true, errors.New(errors.ErrUnauthorized, "无效的认证格式")
	}
	return parts[1], true, nil
}

func authenticate(c *gin.Context, userService service.UserServiceInterface, token string) bool {
	if userService.IsTokenBlacklisted(token) {
		errors.HandleError(c, errors.New(errors.ErrUnauthorized, "令牌已被撤销"))
		c.Abort()
		return false
	}

	userID, err := util.ValidateToken(token)
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrInvalidToken, "无效或过期的令牌", err))
		c.Abort()
		return false
	}

	c.Set(ContextUserID, userID)
	c.Set(ContextToken, token)
	return true
}

// AuthMiddleware 要求请求携带有效令牌
func AuthMiddleware(userService service.UserServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		util.Logger.Debug("进入认证中间件",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method))

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		token, present, err := bearerToken(c)
		if err != nil {
			errors.HandleError(c, err)
			c.Abort()
			return
		}
		if !present {
			errors.HandleError(c, errors.New(errors.ErrUnauthorized, "需要认证"))
			c.Abort()
			return
		}

		if !authenticate(c, userService, token) {
			return
		}

		select {
		case <-ctx.Done():
			errors.HandleError(c, errors.New(errors.ErrTimeout, "请求超时"))
			c.Abort()
			return
		default:
			c.Next()
		}
	}
}

// OptionalAuth 没有 Authorization 头时按匿名请求放行，头存在但无效时拒绝
func OptionalAuth(userService service.UserServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present, err := bearerToken(c)
		if err != nil {
			errors.HandleError(c, err)
			c.Abort()
			return
		}
		if present && !authenticate(c, userService, token) {
			return
		}
		c.Next()
	}
}

// CurrentUserID 返回已认证用户ID，匿名请求返回 false
func CurrentUserID(c *gin.Context) (int, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok && id > 0
}
