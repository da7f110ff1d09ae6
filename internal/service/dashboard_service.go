package service

import (
	"fmt"
	"time"

	"github.com/habitlog/internal/cache"
	"github.com/habitlog/internal/db"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// 面板相关缓存键统一使用 dashboard: 前缀，任何习惯/日志写入都会整体失效
const (
	cacheKeyDashboardPrefix = "dashboard:"
	cacheKeyPublicDashboard = "dashboard:public:%d"
	cacheKeyYearHeatmap     = "dashboard:heatmap:%d"
	cacheKeyArchivedHabits  = "dashboard:archived"
)

// DashboardService 组合 Habit/Log 两个存储与统计引擎，产出面板视图
// 公开视图只允许 is_public 习惯流出，过滤收口在本层
type DashboardService struct {
	db     *gorm.DB
	habits *HabitService
	logs   *LogService
	store  *cache.Cache
}

// DashboardLog 是公开面板中的单条打卡记录
type DashboardLog struct {
	Date   string   `json:"date"`
	Status bool     `json:"status"`
	Value  *float64 `json:"value"`
}

// ValueRollup 是 cumulative 习惯的周/月/年累计
type ValueRollup struct {
	Week  float64 `json:"week"`
	Month float64 `json:"month"`
	Year  float64 `json:"year"`
}

// DashboardHabit 聚合单个习惯在窗口内的全部展示数据
type DashboardHabit struct {
	ID                   uint          `json:"id"`
	Name                 string        `json:"name"`
	CreatedAt            string        `json:"created_at"`
	TracksValue          bool          `json:"tracks_value"`
	ValueUnit            string        `json:"value_unit,omitempty"`
	ValueAggregationType string        `json:"value_aggregation_type"`
	CurrentStreak        int           `json:"current_streak"`
	LastCompletedDate    *string       `json:"last_completed_date"`
	CompletionRate       float64       `json:"completion_rate"`
	CompletedDays        int           `json:"completed_days"`
	TotalDays            int           `json:"total_days"`
	Logs                 []DashboardLog `json:"logs"`
	ValueStats           *ValueStats   `json:"value_stats,omitempty"`
	ValueAggregations    *ValueRollup  `json:"value_aggregations,omitempty"`
}

// DateRange 表示视图覆盖的日期区间
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// PublicDashboardView 是匿名公开面板的完整数据
type PublicDashboardView struct {
	Habits    []DashboardHabit `json:"habits"`
	DateRange DateRange        `json:"date_range"`
}

// TrackingHabit 是后台打卡界面中单个习惯的当日状态
// 没有日志时 IsLogged=false、Status=false、Value=nil
type TrackingHabit struct {
	ID                   uint     `json:"id"`
	Name                 string   `json:"name"`
	IsPublic             bool     `json:"is_public"`
	OrderIndex           int      `json:"order_index"`
	TracksValue          bool     `json:"tracks_value"`
	ValueUnit            string   `json:"value_unit,omitempty"`
	ValueAggregationType string   `json:"value_aggregation_type"`
	IsLogged             bool     `json:"is_logged"`
	Status               bool     `json:"status"`
	Value                *float64 `json:"value"`
}

// TrackingView 是后台单日打卡视图
type TrackingView struct {
	Date   string          `json:"date"`
	Habits []TrackingHabit `json:"habits"`
}

// ArchivedHabit 汇总一个归档习惯的整个生命周期统计
type ArchivedHabit struct {
	ID               uint      `json:"id"`
	Name             string    `json:"name"`
	CreatedAt        string    `json:"created_at"`
	TotalCompletions int       `json:"total_completions"`
	TotalDaysTracked int       `json:"total_days_tracked"`
	CompletionRate   float64   `json:"completion_rate"`
	LongestStreak    int       `json:"longest_streak"`
	DateRange        DateRange `json:"date_range"`
}

// HistoryChart 是单个习惯的按日历史序列，用于后台图表
type HistoryChart struct {
	Labels []string   `json:"labels"`
	Data   []int      `json:"data"`
	Values []*float64 `json:"values"`
}

// NewDashboardService 构造 DashboardService
func NewDashboardService(gdb *gorm.DB, habits *HabitService, logs *LogService, store *cache.Cache) *DashboardService {
	return &DashboardService{db: gdb, habits: habits, logs: logs, store: store}
}

// InvalidateCache 同步失效全部面板缓存，必须在写操作返回成功前调用
func (s *DashboardService) InvalidateCache() {
	if s.store != nil {
		s.store.InvalidatePrefix(cacheKeyDashboardPrefix)
	}
}

// PublicDashboard 聚合匿名面板数据，只包含 is_active 且 is_public 的习惯
func (s *DashboardService) PublicDashboard(windowDays int, today time.Time) (*PublicDashboardView, error) {
	if windowDays <= 0 {
		return nil, ErrInvalidWindow
	}

	cacheKey := fmt.Sprintf(cacheKeyPublicDashboard, windowDays)
	if s.store != nil {
		if cached, ok := s.store.Get(cacheKey); ok {
			if view, ok := cached.(*PublicDashboardView); ok {
				return view, nil
			}
		}
	}

	habits, err := s.habits.List(HabitFilter{ActiveOnly: true, PublicOnly: true})
	if err != nil {
		return nil, err
	}

	end := normalizeToDate(today)
	start := end.AddDate(0, 0, -(windowDays - 1))

	view := &PublicDashboardView{
		Habits: make([]DashboardHabit, 0, len(habits)),
		DateRange: DateRange{
			Start: start.Format(dateLayout),
			End:   end.Format(dateLayout),
		},
	}

	for _, habit := range habits {
		logs, err := s.logs.ListBetween(habit.ID, start, end)
		if err != nil {
			return nil, err
		}

		streak, err := s.logs.CurrentStreak(habit.ID, end)
		if err != nil {
			return nil, err
		}

		stats, err := s.logs.CompletionStats(habit.ID, windowDays, end)
		if err != nil {
			return nil, err
		}

		item := DashboardHabit{
			ID:                   habit.ID,
			Name:                 habit.Name,
			CreatedAt:            habit.CreatedAt.Format(dateLayout),
			TracksValue:          habit.TracksValue,
			ValueUnit:            habit.ValueUnit,
			ValueAggregationType: habit.ValueAggregationType,
			CurrentStreak:        streak.CurrentStreak,
			CompletionRate:       stats.CompletionRate,
			CompletedDays:        stats.CompletedDays,
			TotalDays:            stats.TotalDays,
			Logs:                 make([]DashboardLog, 0, len(logs)),
		}

		if streak.LastCompletedDate != nil {
			formatted := streak.LastCompletedDate.Format(dateLayout)
			item.LastCompletedDate = &formatted
		}

		for _, log := range logs {
			item.Logs = append(item.Logs, DashboardLog{
				Date:   log.LogDate.Format(dateLayout),
				Status: log.Status,
				Value:  log.Value,
			})
		}

		if habit.TracksValue {
			valueStats, err := s.logs.ValueStats(habit.ID, windowDays, end)
			if err != nil {
				return nil, err
			}
			item.ValueStats = &valueStats

			if habit.ValueAggregationType == db.ValueAggregationCumulative {
				rollup, err := s.valueRollup(habit.ID, end)
				if err != nil {
					return nil, err
				}
				item.ValueAggregations = rollup
			}
		}

		view.Habits = append(view.Habits, item)
	}

	if s.store != nil {
		s.store.Set(cacheKey, view, 0)
	}

	return view, nil
}

func (s *DashboardService) valueRollup(habitID uint, end time.Time) (*ValueRollup, error) {
	week, err := s.logs.CumulativeTotal(habitID, 7, end)
	if err != nil {
		return nil, err
	}
	month, err := s.logs.CumulativeTotal(habitID, 30, end)
	if err != nil {
		return nil, err
	}
	year, err := s.logs.CumulativeTotal(habitID, 365, end)
	if err != nil {
		return nil, err
	}
	return &ValueRollup{Week: week, Month: month, Year: year}, nil
}

// AdminTracking 返回后台打卡界面所需的单日视图，包含公开与私有习惯
func (s *DashboardService) AdminTracking(date time.Time) (*TrackingView, error) {
	habits, err := s.habits.List(HabitFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	logs, err := s.logs.ListForDate(date)
	if err != nil {
		return nil, err
	}

	logsByHabit := make(map[uint]db.HabitLog, len(logs))
	for _, log := range logs {
		logsByHabit[log.HabitID] = log
	}

	view := &TrackingView{
		Date:   normalizeToDate(date).Format(dateLayout),
		Habits: make([]TrackingHabit, 0, len(habits)),
	}

	for _, habit := range habits {
		item := TrackingHabit{
			ID:                   habit.ID,
			Name:                 habit.Name,
			IsPublic:             habit.IsPublic,
			OrderIndex:           habit.OrderIndex,
			TracksValue:          habit.TracksValue,
			ValueUnit:            habit.ValueUnit,
			ValueAggregationType: habit.ValueAggregationType,
		}

		if log, ok := logsByHabit[habit.ID]; ok {
			item.IsLogged = true
			item.Status = log.Status
			item.Value = log.Value
		}

		view.Habits = append(view.Habits, item)
	}

	return view, nil
}

// SaveDayLogs 批量保存单日打卡并在返回前失效面板缓存
func (s *DashboardService) SaveDayLogs(date time.Time, entries map[uint]DayLogEntry) (int, error) {
	count, err := s.logs.SaveDayLogs(date, entries)
	if err != nil {
		return 0, err
	}

	s.InvalidateCache()
	return count, nil
}

// ArchivedHabits 返回归档公开习惯的终身统计，没有任何日志的习惯被省略
func (s *DashboardService) ArchivedHabits() ([]ArchivedHabit, error) {
	if s.store != nil {
		if cached, ok := s.store.Get(cacheKeyArchivedHabits); ok {
			if view, ok := cached.([]ArchivedHabit); ok {
				return view, nil
			}
		}
	}

	habits, err := s.habits.ListArchivedPublic()
	if err != nil {
		return nil, err
	}

	result := make([]ArchivedHabit, 0, len(habits))

	for _, habit := range habits {
		logs, err := s.logs.ListAll(habit.ID)
		if err != nil {
			return nil, err
		}
		if len(logs) == 0 {
			continue
		}

		completions := 0
		for _, log := range logs {
			if log.Status {
				completions++
			}
		}

		result = append(result, ArchivedHabit{
			ID:               habit.ID,
			Name:             habit.Name,
			CreatedAt:        habit.CreatedAt.Format(dateLayout),
			TotalCompletions: completions,
			TotalDaysTracked: len(logs),
			CompletionRate:   roundRate(float64(completions) / float64(len(logs)) * 100),
			LongestStreak:    longestStreak(logs),
			DateRange: DateRange{
				Start: logs[0].LogDate.Format(dateLayout),
				End:   logs[len(logs)-1].LogDate.Format(dateLayout),
			},
		})
	}

	if s.store != nil {
		s.store.Set(cacheKeyArchivedHabits, result, 0)
	}

	return result, nil
}

// YearlyHeatmap 重建指定年份的热力图
// 习惯快照包含已归档的公开习惯，保证历史数据完整
func (s *DashboardService) YearlyHeatmap(year int) (*YearHeatmap, error) {
	cacheKey := fmt.Sprintf(cacheKeyYearHeatmap, year)
	if s.store != nil {
		if cached, ok := s.store.Get(cacheKey); ok {
			if view, ok := cached.(*YearHeatmap); ok {
				return view, nil
			}
		}
	}

	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.Local)
	yearEnd := time.Date(year, time.December, 31, 23, 59, 59, 0, time.Local)

	var habits []db.Habit
	if err := s.db.Where("is_public = ? AND created_at <= ?", true, yearEnd).
		Order("created_at ASC").
		Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list heatmap habits: %w", err)
	}

	if len(habits) == 0 {
		empty := buildYearHeatmap(year, nil, nil)
		if s.store != nil {
			s.store.Set(cacheKey, empty, 0)
		}
		return empty, nil
	}

	habitIDs := make([]uint, 0, len(habits))
	for _, habit := range habits {
		habitIDs = append(habitIDs, habit.ID)
	}

	var completedLogs []db.HabitLog
	if err := s.db.Where("habit_id IN ? AND status = ?", habitIDs, true).
		Where("log_date BETWEEN ? AND ?", yearStart, normalizeToDate(yearEnd)).
		Find(&completedLogs).Error; err != nil {
		return nil, fmt.Errorf("list heatmap logs: %w", err)
	}

	completedByDate := make(map[string]map[uint]bool)
	for _, log := range completedLogs {
		key := log.LogDate.Format(dateLayout)
		if completedByDate[key] == nil {
			completedByDate[key] = make(map[uint]bool)
		}
		completedByDate[key][log.HabitID] = true
	}

	// 生效起始日：首条日志日期优先（补录可以提前），否则创建日期
	var firstLogs []struct {
		HabitID      uint
		FirstLogDate time.Time
	}
	if err := s.db.Model(&db.HabitLog{}).
		Select("habit_id, MIN(log_date) AS first_log_date").
		Where("habit_id IN ?", habitIDs).
		Group("habit_id").
		Scan(&firstLogs).Error; err != nil {
		return nil, fmt.Errorf("list first log dates: %w", err)
	}

	firstLogByHabit := make(map[uint]time.Time, len(firstLogs))
	for _, row := range firstLogs {
		firstLogByHabit[row.HabitID] = normalizeToDate(row.FirstLogDate)
	}

	effectiveStarts := make(map[uint]time.Time, len(habits))
	for _, habit := range habits {
		if first, ok := firstLogByHabit[habit.ID]; ok {
			effectiveStarts[habit.ID] = first
		} else {
			effectiveStarts[habit.ID] = normalizeToDate(habit.CreatedAt)
		}
	}

	heatmap := buildYearHeatmap(year, effectiveStarts, completedByDate)

	if s.store != nil {
		s.store.Set(cacheKey, heatmap, 0)
	}

	return heatmap, nil
}

// HabitHistoryChart 产出单个习惯最近 days 天的按日序列，缺日补零
func (s *DashboardService) HabitHistoryChart(habitID uint, days int, today time.Time) (*HistoryChart, error) {
	if days <= 0 {
		return nil, ErrInvalidWindow
	}

	end := normalizeToDate(today)
	start := end.AddDate(0, 0, -(days - 1))

	logs, err := s.logs.ListBetween(habitID, start, end)
	if err != nil {
		return nil, err
	}

	logsByDate := make(map[string]db.HabitLog, len(logs))
	for _, log := range logs {
		logsByDate[log.LogDate.Format(dateLayout)] = log
	}

	chart := &HistoryChart{
		Labels: make([]string, 0, days),
		Data:   make([]int, 0, days),
		Values: make([]*float64, 0, days),
	}

	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		key := date.Format(dateLayout)
		chart.Labels = append(chart.Labels, key)

		if log, ok := logsByDate[key]; ok {
			status := 0
			if log.Status {
				status = 1
			}
			chart.Data = append(chart.Data, status)
			chart.Values = append(chart.Values, log.Value)
		} else {
			chart.Data = append(chart.Data, 0)
			chart.Values = append(chart.Values, nil)
		}
	}

	return chart, nil
}
