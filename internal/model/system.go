package model

// SystemStats 系统统计数据
type SystemStats struct {
	TotalUsers    int `json:"total_users"`
	TotalPosts    int `json:"total_posts"`
	TotalComments int `json:"total_comments"`
	TotalLikes    int `json:"total_likes"`
}

// HealthStatus 健康检查结果
type HealthStatus struct {
	Status      string         `json:"status"`
	Database    string         `json:"database"`
	Redis       string         `json:"redis,omitempty"`
	Stats       *SystemStats   `json:"stats,omitempty"`
	ErrorCounts map[string]int `json:"error_counts"`
}
