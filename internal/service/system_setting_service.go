package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/habitlog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultCacheTTLSeconds = 300

// SystemSettings 描述后台可配置的系统信息。
type SystemSettings struct {
	SiteName        string
	DashboardIntro  string
	CacheTTLSeconds int
}

// SystemSettingsInput 用于更新系统设置。
type SystemSettingsInput struct {
	SiteName        string
	DashboardIntro  string
	CacheTTLSeconds int
}

// SystemSettingService 提供系统设置的读取与更新能力。
type SystemSettingService struct {
	db *gorm.DB
}

// NewSystemSettingService 构造 SystemSettingService。
func NewSystemSettingService(gdb *gorm.DB) *SystemSettingService {
	return &SystemSettingService{db: gdb}
}

var settingKeys = []string{
	db.SettingKeySiteName,
	db.SettingKeyDashboardIntro,
	db.SettingKeyCacheTTLSeconds,
}

// GetSettings 读取系统设置，如未设置将返回默认值。
func (s *SystemSettingService) GetSettings() (SystemSettings, error) {
	result := SystemSettings{SiteName: "HabitLog", CacheTTLSeconds: defaultCacheTTLSeconds}

	var records []db.SystemSetting
	if err := s.db.Where("key IN ?", settingKeys).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load system settings: %w", err)
	}

	for _, record := range records {
		value := strings.TrimSpace(record.Value)
		switch record.Key {
		case db.SettingKeySiteName:
			if value != "" {
				result.SiteName = value
			}
		case db.SettingKeyDashboardIntro:
			result.DashboardIntro = record.Value
		case db.SettingKeyCacheTTLSeconds:
			if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
				result.CacheTTLSeconds = parsed
			}
		}
	}

	return result, nil
}

// CacheTTL 返回生效的面板缓存时长：后台保存过的设置优先，没有记录时回退到
// fallback（通常来自环境变量）。
func (s *SystemSettingService) CacheTTL(fallback time.Duration) time.Duration {
	var record db.SystemSetting
	if err := s.db.Where("key = ?", db.SettingKeyCacheTTLSeconds).First(&record).Error; err != nil {
		return fallback
	}

	if parsed, err := strconv.Atoi(strings.TrimSpace(record.Value)); err == nil && parsed > 0 {
		return time.Duration(parsed) * time.Second
	}
	return fallback
}

// UpdateSettings 覆盖写入系统设置。
func (s *SystemSettingService) UpdateSettings(input SystemSettingsInput) (SystemSettings, error) {
	ttl := input.CacheTTLSeconds
	if ttl <= 0 {
		ttl = defaultCacheTTLSeconds
	}

	values := map[string]string{
		db.SettingKeySiteName:        strings.TrimSpace(input.SiteName),
		db.SettingKeyDashboardIntro:  input.DashboardIntro,
		db.SettingKeyCacheTTLSeconds: strconv.Itoa(ttl),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for key, value := range values {
			record := db.SystemSetting{Key: key, Value: value}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&record).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SystemSettings{}, fmt.Errorf("update system settings: %w", err)
	}

	return s.GetSettings()
}
