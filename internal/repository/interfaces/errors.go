package interfaces

import "errors"

// 仓库层统一返回的哨兵错误，上层用 errors.Is 判断
var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicate     = errors.New("duplicate record")
	ErrInvalidParent = errors.New("parent comment missing or on another post")
)
