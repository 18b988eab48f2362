package main

import (
	"community-feed-backend/config"
	"community-feed-backend/internal/api/community"
	"community-feed-backend/internal/api/system"
	"community-feed-backend/internal/api/user"
	"community-feed-backend/internal/common"
	"community-feed-backend/internal/lock"
	"community-feed-backend/internal/middleware"
	"community-feed-backend/internal/repository/sqldb"
	"community-feed-backend/internal/service"
	"community-feed-backend/internal/util"
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			util.Logger.Error("程序发生严重错误", zap.Any("error", r))
		}
	}()

	// 初始化配置
	config.Init()

	// 初始化日志
	util.InitLogger(config.AppConfig.LogLevel)
	defer util.Logger.Sync()

	util.Logger.Info("应用程序启动", zap.String("driver", config.AppConfig.DBDriver))

	dsn, err := config.AppConfig.DSN()
	if err != nil {
		util.Logger.Fatal("数据库配置无效", zap.Error(err))
	}

	// 连接数据库
	db, err := sqldb.Open(config.AppConfig.DBDriver, dsn, config.AppConfig.DBMaxOpenConns)
	if err != nil {
		util.Logger.Fatal("连接数据库失败", zap.Error(err))
	}
	defer db.Close()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), time.Minute)
	defer cancelStartup()

	// 数据库容器可能晚于应用启动，连接测试带重试
	if err := common.WithRetry(startupCtx, db.PingContext, 5); err != nil {
		util.Logger.Fatal("数据库连接测试失败", zap.Error(err))
	}
	util.Logger.Info("数据库连接成功")

	if err := db.Migrate(startupCtx); err != nil {
		util.Logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 可选的 Redis 分布式锁
	var likeLocker service.LikeLocker
	var redisPing system.PingFunc
	if config.AppConfig.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
		})
		defer redisClient.Close()

		if err := lock.Ping(startupCtx, redisClient); err != nil {
			util.Logger.Fatal("连接 Redis 失败", zap.Error(err), zap.String("addr", config.AppConfig.RedisAddr))
		}
		likeLocker = lock.NewRedisLocker(redisClient)
		redisPing = func(ctx context.Context) error { return lock.Ping(ctx, redisClient) }
		util.Logger.Info("已启用 Redis 点赞锁", zap.String("addr", config.AppConfig.RedisAddr))
	}

	// 注册自定义验证器
	util.RegisterValidators()

	// 初始化存储库、服务和处理器
	userRepo := sqldb.NewUserRepository(db)
	communityRepo := sqldb.NewCommunityRepository(db)
	karmaRepo := sqldb.NewKarmaRepository(db)
	statsRepo := sqldb.NewStatsRepository(db)

	userService := service.NewUserService(userRepo)
	communityService := service.NewCommunityService(communityRepo, likeLocker)
	leaderboardService := service.NewLeaderboardService(karmaRepo, userRepo)

	authHandler := user.NewAuthHandler(userService)
	identity := community.NewIdentityResolver(userService, config.AppConfig.AllowAnonymous)
	communityHandler := community.NewCommunityHandler(communityService, leaderboardService, identity)

	// 初始化错误监控
	errorMonitor := middleware.NewErrorMonitor()
	healthHandler := system.NewHealthHandler(statsRepo, errorMonitor, redisPing)

	// 设置 Gin 路由
	r := gin.New()

	// 添加中间件
	r.Use(middleware.RequestLogger())
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.ErrorMonitorMiddleware(errorMonitor))

	// 配置 CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{config.AppConfig.FrontendURL}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
		middleware.RequestIDHeader,
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length",
		"Content-Type",
		middleware.RequestIDHeader,
	}
	r.Use(cors.New(corsConfig))

	requireAuth := middleware.AuthMiddleware(userService)
	optionalAuth := middleware.OptionalAuth(userService)

	// 定义 API 路由
	api := r.Group("/api")
	{
		api.GET("/health", healthHandler.Health)

		// 用户相关路由
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
		api.GET("/auth/me", requireAuth, authHandler.Me)
		api.POST("/auth/logout", requireAuth, authHandler.Logout)

		// 社区相关路由
		communityHandler.RegisterRoutes(api, optionalAuth, requireAuth)
	}

	srv := &http.Server{
		Addr:              config.AppConfig.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 在一个新的 goroutine 中启动服务器
	go func() {
		util.Logger.Info("服务器正在启动", zap.String("addr", config.AppConfig.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Logger.Fatal("启动服务器失败", zap.Error(err))
		}
	}()

	if config.AppConfig.Debug {
		util.Logger.Info("已注册的路由列表：")
		for _, route := range r.Routes() {
			util.Logger.Info("路由",
				zap.String("method", route.Method),
				zap.String("path", route.Path),
				zap.String("handler", route.Handler))
		}
	}

	// 等待中断信号以优雅地关闭服务器（设置 5 秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	util.Logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		util.Logger.Fatal("服务器强制关闭", zap.Error(err))
	}

	util.Logger.Info("服务器已优雅关闭")
}
