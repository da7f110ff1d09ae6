package db

import "gorm.io/gorm"

// SystemSetting 存储后台可配置的系统级键值对。
type SystemSetting struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (SystemSetting) TableName() string {
	return "system_settings"
}

const (
	// SettingKeySiteName 表示站点名称。
	SettingKeySiteName = "site_name"
	// SettingKeyDashboardIntro 表示公开面板顶部的 Markdown 介绍文案。
	SettingKeyDashboardIntro = "dashboard_intro"
	// SettingKeyCacheTTLSeconds 表示面板缓存的默认过期秒数。
	SettingKeyCacheTTLSeconds = "cache_ttl_seconds"
)
