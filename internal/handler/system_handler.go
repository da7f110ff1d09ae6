package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/service"
)

type settingsPayload struct {
	SiteName        string `json:"site_name"`
	DashboardIntro  string `json:"dashboard_intro"`
	CacheTTLSeconds int    `json:"cache_ttl_seconds"`
}

// ShowSettings 渲染系统设置页面
func (a *API) ShowSettings(c *gin.Context) {
	settings, err := a.system.GetSettings()
	if err != nil {
		c.HTML(http.StatusInternalServerError, "settings.html", gin.H{
			"title": "系统设置",
			"error": "加载系统设置失败",
		})
		return
	}

	c.HTML(http.StatusOK, "settings.html", gin.H{
		"title":    "系统设置",
		"settings": settings,
	})
}

// GetSettings 返回系统设置 JSON
func (a *API) GetSettings(c *gin.Context) {
	settings, err := a.system.GetSettings()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "加载系统设置失败")
		return
	}

	c.JSON(http.StatusOK, settingsToPayload(settings))
}

// UpdateSettings 更新系统设置并失效公开面板缓存
func (a *API) UpdateSettings(c *gin.Context) {
	var payload settingsPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	settings, err := a.system.UpdateSettings(service.SystemSettingsInput{
		SiteName:        payload.SiteName,
		DashboardIntro:  payload.DashboardIntro,
		CacheTTLSeconds: payload.CacheTTLSeconds,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "保存系统设置失败")
		return
	}

	// 介绍文案出现在公开页面上，设置变更后同步失效
	a.dashboard.InvalidateCache()

	// 新的缓存时长对后续写入立即生效，无需重启
	if a.store != nil {
		a.store.SetDefaultTTL(time.Duration(settings.CacheTTLSeconds) * time.Second)
	}

	c.JSON(http.StatusOK, settingsToPayload(settings))
}

func settingsToPayload(settings service.SystemSettings) gin.H {
	return gin.H{
		"site_name":         settings.SiteName,
		"dashboard_intro":   settings.DashboardIntro,
		"cache_ttl_seconds": settings.CacheTTLSeconds,
	}
}
