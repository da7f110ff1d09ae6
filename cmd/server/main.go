package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/cache"
	"github.com/habitlog/internal/config"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/handler"
	"github.com/habitlog/internal/logger"
	"github.com/habitlog/internal/router"
	"github.com/habitlog/internal/service"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env 不存在时静默跳过
	_ = godotenv.Load()

	cfg := config.Load()

	zlog, err := logger.New(cfg.GinMode)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync(zlog)

	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}

	// 确保管理员账号存在（由环境变量提供）
	if err := db.EnsureAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		zlog.Fatal("failed to ensure admin user", zap.Error(err))
	}

	// 面板缓存：惰性过期 + 后台定时清理
	// 缓存时长优先取后台保存的系统设置，环境变量作为兜底
	cacheTTL := service.NewSystemSettingService(db.DB).
		CacheTTL(time.Duration(cfg.CacheTTLSeconds) * time.Second)
	store := cache.New(cacheTTL)
	stop := make(chan struct{})
	defer close(stop)
	store.StartSweeper(time.Minute, stop)

	api := handler.NewAPI(db.DB, store)
	r := router.SetupRouter(api, cfg.SessionSecret, "web/template/*.html")

	zlog.Info("habitlog listening",
		zap.String("addr", cfg.ListenAddr),
		zap.String("database", cfg.DatabasePath),
		zap.Duration("cache_ttl", cacheTTL),
	)

	if err := r.Run(cfg.ListenAddr); err != nil {
		zlog.Fatal("failed to run server", zap.Error(err))
	}
}
