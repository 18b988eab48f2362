package community

import (
	"community-feed-backend/internal/errors"
	"community-feed-backend/internal/middleware"
	"community-feed-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// IdentityResolver 决定写请求的操作用户。未登录且允许匿名时回退到共享的匿名账号
type IdentityResolver struct {
	userService    service.UserServiceInterface
	allowAnonymous bool
}

func NewIdentityResolver(userService service.UserServiceInterface, allowAnonymous bool) *IdentityResolver {
	return &IdentityResolver{userService: userService, allowAnonymous: allowAnonymous}
}

// Actor 返回写操作的用户ID，必要时创建匿名账号
func (r *IdentityResolver) Actor(c *gin.Context) (int, error) {
	if id, ok := middleware.CurrentUserID(c); ok {
		return id, nil
	}
	if !r.allowAnonymous {
		return 0, errors.New(errors.ErrUnauthorized, "需要认证")
	}
	user, err := r.userService.ResolveAnonymous(c.Request.Context())
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// ExistingActor 与 Actor 相同，但匿名账号不存在时返回 0 而不创建
func (r *IdentityResolver) ExistingActor(c *gin.Context) (int, error) {
	if id, ok := middleware.CurrentUserID(c); ok {
		return id, nil
	}
	if !r.allowAnonymous {
		return 0, errors.New(errors.ErrUnauthorized, "需要认证")
	}
	user, err := r.userService.FindAnonymous(c.Request.Context())
	if err != nil || user == nil {
		return 0, err
	}
	return user.ID, nil
}
