package system

import (
	"community-feed-backend/internal/errors"
	"community-feed-backend/internal/middleware"
	"community-feed-backend/internal/model"
	"community-feed-backend/internal/repository/interfaces"
	"community-feed-backend/internal/util"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PingFunc 检查外部依赖是否可用
type PingFunc func(ctx context.Context) error

type HealthHandler struct {
	stats     interfaces.StatsRepository
	monitor   *middleware.ErrorMonitor
	redisPing PingFunc
}

// NewHealthHandler redisPing 为 nil 表示未配置 Redis
func NewHealthHandler(stats interfaces.StatsRepository, monitor *middleware.ErrorMonitor, redisPing PingFunc) *HealthHandler {
	return &HealthHandler{stats: stats, monitor: monitor, redisPing: redisPing}
}

// Health 返回数据库与 Redis 状态、数据统计和错误计数
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := &model.HealthStatus{
		Status:      "ok",
		Database:    "ok",
		ErrorCounts: make(map[string]int),
	}

	if err := h.stats.Ping(ctx); err != nil {
		util.Logger.Error("数据库健康检查失败", zap.Error(err))
		status.Status = "degraded"
		status.Database = "unavailable"
	} else if stats, err := h.stats.GetSystemStats(ctx); err == nil {
		status.Stats = stats
	} else {
		util.Logger.Warn("获取系统统计失败", zap.Error(err))
	}

	if h.redisPing != nil {
		status.Redis = "ok"
		if err := h.redisPing(ctx); err != nil {
			util.Logger.Error("Redis 健康检查失败", zap.Error(err))
			status.Status = "degraded"
			status.Redis = "unavailable"
		}
	}

	for code, count := range h.monitor.GetErrorCounts() {
		status.ErrorCounts[strconv.Itoa(int(code))] = count
	}

	if status.Status != "ok" {
		c.JSON(http.StatusServiceUnavailable, errors.SuccessResponse{
			Code: http.StatusServiceUnavailable,
			Data: status,
		})
		return
	}
	errors.HandleSuccess(c, status, "")
}
