package router

import (
	"html/template"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由
// templatePattern 为空时跳过模板加载，纯 API 模式（测试用）
func SetupRouter(api *handler.API, sessionSecret, templatePattern string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("habitlog_session", store))

	// 加载模板并添加自定义函数
	r.SetFuncMap(template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"pct": func(v float64) int {
			return int(v)
		},
	})
	if templatePattern != "" {
		r.LoadHTMLGlob(templatePattern)
	}

	// 静态文件服务
	r.Static("/static", "./web/static")

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// 公开只读路由
	if templatePattern != "" {
		r.GET("/", api.ShowPublicDashboard)
		r.GET("/archive", api.ShowArchive)
	}
	public := r.Group("/api")
	{
		public.GET("/dashboard", api.GetPublicDashboard)
		public.GET("/heatmap", api.GetYearHeatmap)
		public.GET("/archive", api.GetArchive)
	}

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.GET("/login", handler.ShowLoginPage)
		admin.POST("/login", handler.Login)
		admin.GET("/logout", handler.Logout)

		// 需要认证的后台路由
		auth := admin.Group("")
		auth.Use(handler.AuthRequired())
		{
			if templatePattern != "" {
				auth.GET("/tracking", api.ShowTracking)
				auth.GET("/habits", api.ShowHabitManager)
				auth.GET("/settings", api.ShowSettings)
			}

			// API路由
			apiGroup := auth.Group("/api")
			{
				apiGroup.GET("/habits", api.ListHabits)
				apiGroup.GET("/habits/:id", api.GetHabit)
				apiGroup.POST("/habits", api.CreateHabit)
				apiGroup.PUT("/habits/:id", api.UpdateHabit)
				apiGroup.DELETE("/habits/:id", api.DeleteHabit)
				apiGroup.POST("/habits/reorder", api.ReorderHabits)
				apiGroup.GET("/habits/:id/history", api.GetHabitHistory)
				apiGroup.DELETE("/habits/:id/logs", api.DeleteLog)

				apiGroup.GET("/tracking", api.GetTracking)
				apiGroup.POST("/logs", api.SaveDayLogs)

				apiGroup.GET("/settings", api.GetSettings)
				apiGroup.PUT("/settings", api.UpdateSettings)
			}
		}
	}

	return r
}
