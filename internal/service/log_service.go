package service

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/habitlog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrInvalidWindow 当统计窗口天数小于等于 0 时返回
	ErrInvalidWindow = errors.New("window days must be positive")
	// ErrLogHabitRequired 当操作缺少习惯 ID 时返回
	ErrLogHabitRequired = errors.New("habit id is required")
)

// LogService 负责打卡记录的写入与连胜/完成率统计
type LogService struct {
	db *gorm.DB
}

// LogInput 定义打卡时的输入对象
// Value 为 nil 表示本次不记录数值；Status=false 且 Value 非空是合法组合
type LogInput struct {
	HabitID uint
	Date    time.Time
	Status  bool
	Value   *float64
}

// DayLogEntry 表示批量保存时单个习惯的当日结果
type DayLogEntry struct {
	Status bool
	Value  *float64
}

// StreakInfo 描述当前连胜
type StreakInfo struct {
	CurrentStreak     int
	LastCompletedDate *time.Time
}

// CompletionStats 汇总窗口内的完成情况
type CompletionStats struct {
	TotalDays      int
	CompletedDays  int
	CompletionRate float64
}

// ValueStats 汇总窗口内的数值记录
type ValueStats struct {
	Total   float64
	Count   int
	Average float64
}

// NewLogService 构造 LogService
func NewLogService(gdb *gorm.DB) *LogService {
	return &LogService{db: gdb}
}

// Upsert 处理幂等打卡：同一习惯同一天只有一条记录，重复写入覆盖状态与数值
func (s *LogService) Upsert(input LogInput) (*db.HabitLog, error) {
	if input.HabitID == 0 {
		return nil, ErrLogHabitRequired
	}

	logDate := normalizeToDate(input.Date)

	record := db.HabitLog{
		HabitID: input.HabitID,
		LogDate: logDate,
		Status:  input.Status,
		Value:   input.Value,
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "habit_id"}, {Name: "log_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "value", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("upsert habit log: %w", err)
	}

	if err := s.db.Where("habit_id = ? AND log_date = ?", input.HabitID, logDate).First(&record).Error; err != nil {
		return nil, fmt.Errorf("reload habit log: %w", err)
	}

	return &record, nil
}

// Delete 删除指定习惯某一天的打卡记录
func (s *LogService) Delete(habitID uint, date time.Time) error {
	if habitID == 0 {
		return ErrLogHabitRequired
	}

	if err := s.db.Unscoped().
		Where("habit_id = ? AND log_date = ?", habitID, normalizeToDate(date)).
		Delete(&db.HabitLog{}).Error; err != nil {
		return fmt.Errorf("delete habit log: %w", err)
	}
	return nil
}

// SaveDayLogs 批量保存某一天多个习惯的打卡结果，整批一个事务
// 任意一条失败则全部回滚，返回成功写入的条数
func (s *LogService) SaveDayLogs(date time.Time, entries map[uint]DayLogEntry) (int, error) {
	logDate := normalizeToDate(date)
	count := 0

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for habitID, entry := range entries {
			if habitID == 0 {
				return ErrLogHabitRequired
			}

			record := db.HabitLog{
				HabitID: habitID,
				LogDate: logDate,
				Status:  entry.Status,
				Value:   entry.Value,
			}

			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "habit_id"}, {Name: "log_date"}},
				DoUpdates: clause.AssignmentColumns([]string{"status", "value", "updated_at"}),
			}).Create(&record).Error; err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("save day logs: %w", err)
	}

	return count, nil
}

// ListBetween 返回指定区间内的打卡记录，按日期升序
func (s *LogService) ListBetween(habitID uint, start, end time.Time) ([]db.HabitLog, error) {
	if habitID == 0 {
		return nil, ErrLogHabitRequired
	}

	var logs []db.HabitLog
	if err := s.db.Where("habit_id = ?", habitID).
		Where("log_date BETWEEN ? AND ?", normalizeToDate(start), normalizeToDate(end)).
		Order("log_date ASC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}

	return logs, nil
}

// ListAll 返回习惯的全部打卡记录，按日期升序，用于归档统计
func (s *LogService) ListAll(habitID uint) ([]db.HabitLog, error) {
	if habitID == 0 {
		return nil, ErrLogHabitRequired
	}

	var logs []db.HabitLog
	if err := s.db.Where("habit_id = ?", habitID).
		Order("log_date ASC").
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}

	return logs, nil
}

// ListForDate 返回某一天的全部打卡记录
func (s *LogService) ListForDate(date time.Time) ([]db.HabitLog, error) {
	var logs []db.HabitLog
	if err := s.db.Where("log_date = ?", normalizeToDate(date)).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list logs for date: %w", err)
	}
	return logs, nil
}

// CurrentStreak 计算截止 today 的当前连胜
// today 由调用方传入而非内部取 time.Now，保证函数可测
func (s *LogService) CurrentStreak(habitID uint, today time.Time) (StreakInfo, error) {
	if habitID == 0 {
		return StreakInfo{}, ErrLogHabitRequired
	}

	var logs []db.HabitLog
	if err := s.db.Where("habit_id = ? AND status = ?", habitID, true).
		Order("log_date DESC").
		Find(&logs).Error; err != nil {
		return StreakInfo{}, fmt.Errorf("list completed logs: %w", err)
	}

	dates := make([]time.Time, 0, len(logs))
	for _, log := range logs {
		dates = append(dates, log.LogDate)
	}

	return computeCurrentStreak(dates, today), nil
}

// computeCurrentStreak 在倒序的完成日期上行走：
// 未来日期跳过；第一条有效日期必须是 today 或 today-1 才能起算；
// 之后每条必须恰好比前一条早一天，出现缺口即终止
func computeCurrentStreak(datesDesc []time.Time, today time.Time) StreakInfo {
	today = normalizeToDate(today)

	info := StreakInfo{}
	var expected time.Time

	for _, raw := range datesDesc {
		date := normalizeToDate(raw)

		if info.LastCompletedDate == nil {
			if date.After(today) {
				// 防御未来日期的补录，不能作为连胜起点
				continue
			}

			anchor := date
			info.LastCompletedDate = &anchor

			if date.Equal(today) || date.Equal(today.AddDate(0, 0, -1)) {
				info.CurrentStreak = 1
				expected = date.AddDate(0, 0, -1)
				continue
			}
			break
		}

		if date.Equal(expected) {
			info.CurrentStreak++
			expected = date.AddDate(0, 0, -1)
			continue
		}
		break
	}

	return info
}

// CompletionStats 统计 [endDate-windowDays+1, endDate] 内的完成率
func (s *LogService) CompletionStats(habitID uint, windowDays int, endDate time.Time) (CompletionStats, error) {
	if habitID == 0 {
		return CompletionStats{}, ErrLogHabitRequired
	}
	if windowDays <= 0 {
		return CompletionStats{}, ErrInvalidWindow
	}

	end := normalizeToDate(endDate)
	start := end.AddDate(0, 0, -(windowDays - 1))

	var completed int64
	if err := s.db.Model(&db.HabitLog{}).
		Where("habit_id = ? AND status = ?", habitID, true).
		Where("log_date BETWEEN ? AND ?", start, end).
		Count(&completed).Error; err != nil {
		return CompletionStats{}, fmt.Errorf("count completed logs: %w", err)
	}

	return CompletionStats{
		TotalDays:      windowDays,
		CompletedDays:  int(completed),
		CompletionRate: roundRate(float64(completed) / float64(windowDays) * 100),
	}, nil
}

// ValueStats 汇总窗口内非空数值，无记录时全部为零值
func (s *LogService) ValueStats(habitID uint, windowDays int, endDate time.Time) (ValueStats, error) {
	if habitID == 0 {
		return ValueStats{}, ErrLogHabitRequired
	}
	if windowDays <= 0 {
		return ValueStats{}, ErrInvalidWindow
	}

	end := normalizeToDate(endDate)
	start := end.AddDate(0, 0, -(windowDays - 1))

	var row struct {
		Total float64
		Count int
	}
	if err := s.db.Model(&db.HabitLog{}).
		Select("COALESCE(SUM(value), 0) AS total, COUNT(value) AS count").
		Where("habit_id = ? AND value IS NOT NULL", habitID).
		Where("log_date BETWEEN ? AND ?", start, end).
		Scan(&row).Error; err != nil {
		return ValueStats{}, fmt.Errorf("sum habit values: %w", err)
	}

	stats := ValueStats{Total: row.Total, Count: row.Count}
	if row.Count > 0 {
		stats.Average = roundRate(row.Total / float64(row.Count))
	}

	return stats, nil
}

// CumulativeTotal 计算窗口内数值累计和，供 cumulative 习惯的周/月/年汇总使用
func (s *LogService) CumulativeTotal(habitID uint, windowDays int, endDate time.Time) (float64, error) {
	stats, err := s.ValueStats(habitID, windowDays, endDate)
	if err != nil {
		return 0, err
	}
	return stats.Total, nil
}

// longestStreak 在升序日志上单趟扫描求历史最长连胜
// status=false 的记录既清零当前连胜，也推进相邻性锚点：
// 连胜要求与上一条日志记录（而非上一个完成日）在日历上相邻
func longestStreak(logsAsc []db.HabitLog) int {
	longest := 0
	current := 0
	var prev *time.Time

	for _, log := range logsAsc {
		date := normalizeToDate(log.LogDate)

		if log.Status {
			if prev == nil {
				current = 1
			} else if daysBetween(*prev, date) == 1 {
				current++
			} else {
				current = 1
			}
			if current > longest {
				longest = current
			}
		} else {
			current = 0
		}

		anchor := date
		prev = &anchor
	}

	return longest
}

func normalizeToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func daysBetween(earlier, later time.Time) int {
	return int(math.Round(later.Sub(earlier).Hours() / 24))
}

// roundRate 保留一位小数
func roundRate(value float64) float64 {
	return math.Round(value*10) / 10
}
