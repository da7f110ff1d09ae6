package handler

import (
	"github.com/habitlog/internal/cache"
	"github.com/habitlog/internal/service"
	"gorm.io/gorm"
)

// API 聚合 HTTP 处理器共享的服务依赖
type API struct {
	store     *cache.Cache
	habits    *service.HabitService
	logs      *service.LogService
	dashboard *service.DashboardService
	system    *service.SystemSettingService
}

// NewAPI 构造处理器集合，各服务共享同一个数据库连接与缓存
func NewAPI(gdb *gorm.DB, store *cache.Cache) *API {
	habits := service.NewHabitService(gdb)
	logs := service.NewLogService(gdb)

	return &API{
		store:     store,
		habits:    habits,
		logs:      logs,
		dashboard: service.NewDashboardService(gdb, habits, logs, store),
		system:    service.NewSystemSettingService(gdb),
	}
}
