package handler

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

const (
	visitorCookieName   = "hl_visitor_id"
	visitorCookieMaxAge = 365 * 24 * 60 * 60

	defaultDashboardDays = 30
	maxDashboardDays     = 365
)

// ShowPublicDashboard 渲染匿名公开面板页面
func (a *API) ShowPublicDashboard(c *gin.Context) {
	ensureVisitorCookie(c)

	settings, err := a.system.GetSettings()
	if err != nil {
		c.Error(err)
	}

	days := clampDashboardDays(parsePositiveIntQuery(c, "days", defaultDashboardDays))
	view, err := a.dashboard.PublicDashboard(days, time.Now().In(time.Local))
	if err != nil {
		c.HTML(http.StatusInternalServerError, "dashboard.html", gin.H{
			"title": settings.SiteName,
			"error": "加载面板数据失败",
		})
		return
	}

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"title":     settings.SiteName,
		"intro":     renderMarkdown(settings.DashboardIntro),
		"dashboard": view,
	})
}

// GetPublicDashboard 返回公开面板 JSON，仅包含公开习惯
func (a *API) GetPublicDashboard(c *gin.Context) {
	days := clampDashboardDays(parsePositiveIntQuery(c, "days", defaultDashboardDays))

	view, err := a.dashboard.PublicDashboard(days, time.Now().In(time.Local))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "加载面板数据失败")
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetYearHeatmap 返回指定年份的热力图 JSON
func (a *API) GetYearHeatmap(c *gin.Context) {
	year := parsePositiveIntQuery(c, "year", time.Now().In(time.Local).Year())

	heatmap, err := a.dashboard.YearlyHeatmap(year)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "加载热力图失败")
		return
	}

	c.JSON(http.StatusOK, heatmap)
}

// GetArchive 返回归档公开习惯的终身统计 JSON
func (a *API) GetArchive(c *gin.Context) {
	archived, err := a.dashboard.ArchivedHabits()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "加载归档数据失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"habits": archived})
}

// ShowArchive 渲染归档习惯页面
func (a *API) ShowArchive(c *gin.Context) {
	ensureVisitorCookie(c)

	settings, err := a.system.GetSettings()
	if err != nil {
		c.Error(err)
	}

	archived, err := a.dashboard.ArchivedHabits()
	if err != nil {
		c.HTML(http.StatusInternalServerError, "archive.html", gin.H{
			"title": settings.SiteName,
			"error": "加载归档数据失败",
		})
		return
	}

	c.HTML(http.StatusOK, "archive.html", gin.H{
		"title":   settings.SiteName,
		"archive": archived,
	})
}

// ensureVisitorCookie 为匿名访客下发标识 Cookie，仅用于区分独立访客
func ensureVisitorCookie(c *gin.Context) {
	if _, err := c.Cookie(visitorCookieName); err == nil {
		return
	}
	c.SetCookie(visitorCookieName, uuid.NewString(), visitorCookieMaxAge, "/", "", false, true)
}

// renderMarkdown 渲染并消毒 Markdown 文案
func renderMarkdown(content string) template.HTML {
	if content == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(content))
	}

	return template.HTML(sanitizer.SanitizeBytes(buf.Bytes()))
}

func clampDashboardDays(days int) int {
	if days > maxDashboardDays {
		return maxDashboardDays
	}
	return days
}
