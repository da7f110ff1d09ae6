package db

import (
	"time"

	"gorm.io/gorm"
)

const (
	// ValueAggregationAbsolute 表示按日直接展示数值
	ValueAggregationAbsolute = "absolute"
	// ValueAggregationCumulative 表示在时间窗口内对数值求和
	ValueAggregationCumulative = "cumulative"
)

// Habit 定义了习惯模型
// IsPublic 控制是否出现在匿名公开面板；IsActive=false 表示归档（软删除），历史日志保留
// OrderIndex 创建时从 0 连续追加，拖拽排序时整体重写
// TracksValue 开启后 ValueUnit/ValueAggregationType 才有意义
type Habit struct {
	gorm.Model
	Name                 string `gorm:"size:100;not null"`
	IsActive             bool   `gorm:"not null;default:true"`
	IsPublic             bool   `gorm:"not null;default:true"`
	OrderIndex           int    `gorm:"not null;default:0;index"`
	TracksValue          bool   `gorm:"not null;default:false"`
	ValueUnit            string `gorm:"size:50"`
	ValueAggregationType string `gorm:"size:20;not null;default:absolute"`
}

// HabitLog 记录某个习惯单日的打卡结果
// HabitID + LogDate 采用唯一索引，写入走 upsert 保证幂等
// Value 允许在 Status=false 时单独存在（只记数、未标记完成）
type HabitLog struct {
	gorm.Model
	HabitID uint      `gorm:"index;index:idx_habit_log_unique,unique"`
	Habit   Habit     `gorm:"constraint:OnDelete:CASCADE"`
	LogDate time.Time `gorm:"index:idx_habit_log_unique,unique"`
	Status  bool      `gorm:"not null;default:false"`
	Value   *float64
}

// TableName 重写确保唯一索引作用到 habit_id + log_date
func (HabitLog) TableName() string {
	return "habit_logs"
}
