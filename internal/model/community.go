package model

import "time"

// Author 帖子/评论作者的公开信息
type Author struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

type Post struct {
	ID           int       `json:"id"`
	UserID       int       `json:"-"`
	Author       *Author   `json:"author"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	UserHasLiked bool      `json:"user_has_liked"`
}

type Comment struct {
	ID        int       `json:"id"`
	PostID    int       `json:"post"`
	UserID    int       `json:"-"`
	ParentID  *int      `json:"parent"`
	Author    *Author   `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	LikeCount int       `json:"like_count"`
}

// CommentNode 渲染后的评论节点，Replies 按创建时间升序
type CommentNode struct {
	*Comment
	UserHasLiked bool           `json:"user_has_liked"`
	Replies      []*CommentNode `json:"replies"`
}

// PostDetail 帖子详情及完整评论树
type PostDetail struct {
	*Post
	Comments []*CommentNode `json:"comments"`
}

type PostLike struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	PostID    int       `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

type CommentLike struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	CommentID int       `json:"comment_id"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthorLikes 某作者在时间窗口内收到的点赞数
type AuthorLikes struct {
	UserID int
	Likes  int
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	UserID   int    `json:"id"`
	Username string `json:"username"`
	Karma    int    `json:"karma_24h"`
}

// LikeOutcome 点赞结果
type LikeOutcome int

const (
	LikeCreated LikeOutcome = iota
	LikeAlreadyExists
)

func (o LikeOutcome) String() string {
	if o == LikeCreated {
		return "liked"
	}
	return "already_liked"
}

// UnlikeOutcome 取消点赞结果
type UnlikeOutcome int

const (
	UnlikeRemoved UnlikeOutcome = iota
	UnlikeNotFound
)

func (o UnlikeOutcome) String() string {
	if o == UnlikeRemoved {
		return "removed"
	}
	return "not_liked"
}
