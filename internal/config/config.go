package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr      string
	Port            string
	DatabasePath    string
	SessionSecret   string
	GinMode         string
	AdminUsername   string
	AdminPassword   string
	CacheTTLSeconds int
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
// SESSION_SECRET 缺失时会生成一次性的随机密钥，重启后旧会话自然失效。
func Load() AppConfig {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(os.Getenv("LISTEN_ADDR"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	databasePath := strings.TrimSpace(os.Getenv("DATABASE_PATH"))
	if databasePath == "" {
		databasePath = "habitlog.db"
	}

	sessionSecret := strings.TrimSpace(os.Getenv("SESSION_SECRET"))
	if sessionSecret == "" {
		sessionSecret = uuid.NewString()
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))
	if ginMode == "" {
		ginMode = "release"
	}

	cacheTTL := 300
	if raw := strings.TrimSpace(os.Getenv("CACHE_TTL_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			cacheTTL = parsed
		}
	}

	adminUsername := strings.TrimSpace(os.Getenv("ADMIN_USERNAME"))
	adminPassword := strings.TrimSpace(os.Getenv("ADMIN_PASSWORD"))

	return AppConfig{
		ListenAddr:      listenAddr,
		Port:            port,
		DatabasePath:    databasePath,
		SessionSecret:   sessionSecret,
		GinMode:         ginMode,
		AdminUsername:   adminUsername,
		AdminPassword:   adminPassword,
		CacheTTLSeconds: cacheTTL,
	}
}
