package interfaces

import (
	"community-feed-backend/internal/model"
	"context"
)

type StatsRepository interface {
	Ping(ctx context.Context) error
	GetSystemStats(ctx context.Context) (*model.SystemStats, error)
}
