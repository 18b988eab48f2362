package middleware

import (
	"community-feed-backend/internal/errors"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryMiddleware 捕获 panic 并返回统一的 500 响应，日志带上 request id 和当前用户
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			fields := []zap.Field{
				zap.Any("error", r),
				zap.String("request_id", c.GetString(ContextRequestID)),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("stack", string(debug.Stack())),
			}
			if userID, ok := CurrentUserID(c); ok {
				fields = append(fields, zap.Int("user_id", userID))
			}
			zap.L().Error("发生panic", fields...)

			// 响应头已经写出时只能中断
			if c.Writer.Written() {
				c.Abort()
				return
			}
			errors.HandleError(c, errors.New(errors.ErrInternal, "系统内部错误"))
			c.Abort()
		}()
		c.Next()
	}
}
