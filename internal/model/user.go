package model

import "time"

// AnonymousUsername 未登录请求回退使用的账号
const AnonymousUsername = "demo_user"

// User 结构体表示用户模型
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"` // 密码哈希不应在JSON中暴露
	CreatedAt    time.Time `json:"created_at"`
}

// Summary 返回可公开的作者信息
func (u *User) Summary() *Author {
	return &Author{ID: u.ID, Username: u.Username}
}
