package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/service"
	"golang.org/x/crypto/bcrypt"
)

// ShowLoginPage 渲染登录页面
func ShowLoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"title": "管理员登录",
	})
}

// Login 处理管理员登录请求
func Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	// 查找用户
	var user db.User
	if err := db.DB.Where("username = ?", username).First(&user).Error; err != nil {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{"error": "用户名或密码错误"})
		return
	}

	// 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{"error": "用户名或密码错误"})
		return
	}

	// 设置会话
	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Set("username", user.Username)
	if err := session.Save(); err != nil {
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{"error": "会话保存失败"})
		return
	}

	c.Redirect(http.StatusFound, "/admin/tracking")
}

// Logout 处理用户登出
func Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return
	}
	c.Redirect(http.StatusFound, "/admin/login")
}

// AuthRequired 是一个简单的认证中间件
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get("user_id")
		if userID == nil {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// ShowTracking 渲染后台打卡页面
func (a *API) ShowTracking(c *gin.Context) {
	session := sessions.Default(c)
	username := session.Get("username")

	date, err := parseDateQuery(c, "date")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的日期")
		return
	}

	view, err := a.dashboard.AdminTracking(date)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "tracking.html", gin.H{
			"title": "每日打卡",
			"error": "加载打卡数据失败",
		})
		return
	}

	c.HTML(http.StatusOK, "tracking.html", gin.H{
		"title":    "每日打卡",
		"username": username,
		"tracking": view,
	})
}

// ShowHabitManager 渲染习惯管理页面
func (a *API) ShowHabitManager(c *gin.Context) {
	habits, err := a.habits.List(service.HabitFilter{})
	if err != nil {
		c.HTML(http.StatusInternalServerError, "habit_list.html", gin.H{
			"title": "习惯管理",
			"error": "获取习惯列表失败",
		})
		return
	}

	c.HTML(http.StatusOK, "habit_list.html", gin.H{
		"title":  "习惯管理",
		"habits": habits,
	})
}
