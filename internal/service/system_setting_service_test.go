package service

import (
	"testing"
	"time"

	"github.com/habitlog/internal/db"
)

func TestSystemSettingDefaults(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewSystemSettingService(db.DB)

	settings, err := svc.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings returned error: %v", err)
	}

	if settings.SiteName != "HabitLog" {
		t.Fatalf("unexpected default site name: %s", settings.SiteName)
	}
	if settings.CacheTTLSeconds != defaultCacheTTLSeconds {
		t.Fatalf("unexpected default cache ttl: %d", settings.CacheTTLSeconds)
	}
	if settings.DashboardIntro != "" {
		t.Fatalf("expected empty intro, got %q", settings.DashboardIntro)
	}
}

func TestSystemSettingUpdateRoundtrip(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewSystemSettingService(db.DB)

	updated, err := svc.UpdateSettings(SystemSettingsInput{
		SiteName:        "我的习惯",
		DashboardIntro:  "**坚持** 是一种习惯",
		CacheTTLSeconds: 60,
	})
	if err != nil {
		t.Fatalf("UpdateSettings returned error: %v", err)
	}

	if updated.SiteName != "我的习惯" || updated.CacheTTLSeconds != 60 {
		t.Fatalf("unexpected settings: %+v", updated)
	}
	if updated.DashboardIntro != "**坚持** 是一种习惯" {
		t.Fatalf("unexpected intro: %q", updated.DashboardIntro)
	}

	// 再次更新覆盖旧值而不是新增记录
	if _, err := svc.UpdateSettings(SystemSettingsInput{SiteName: "HabitLog"}); err != nil {
		t.Fatalf("second UpdateSettings returned error: %v", err)
	}

	var count int64
	db.DB.Model(&db.SystemSetting{}).Where("key = ?", db.SettingKeySiteName).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 record per key, got %d", count)
	}
}

func TestCacheTTLPrefersSavedSetting(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewSystemSettingService(db.DB)
	fallback := 45 * time.Second

	// 没有记录时使用兜底值
	if got := svc.CacheTTL(fallback); got != fallback {
		t.Fatalf("expected fallback ttl %v, got %v", fallback, got)
	}

	if _, err := svc.UpdateSettings(SystemSettingsInput{CacheTTLSeconds: 120}); err != nil {
		t.Fatalf("UpdateSettings returned error: %v", err)
	}

	// 保存过的设置优先于兜底值
	if got := svc.CacheTTL(fallback); got != 120*time.Second {
		t.Fatalf("expected saved ttl 120s, got %v", got)
	}
}
