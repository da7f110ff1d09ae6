package service

import "time"

// HeatmapDay 表示年度热力图中的单日数据
// TotalCount 是当天已存在的公开习惯数；为 0 表示无数据日（灰格），
// 不参与整体统计，区别于真实的 0% 完成
type HeatmapDay struct {
	Date                 string  `json:"date"`
	DayOfMonth           int     `json:"day_of_month"`
	CompletionPercentage float64 `json:"completion_percentage"`
	CompletedCount       int     `json:"completed_count"`
	TotalCount           int     `json:"total_count"`
}

// HeatmapMonth 表示一个月的格子块
// FirstDayWeekday 以周一为 0，用于日历布局对齐
type HeatmapMonth struct {
	Month           int          `json:"month"`
	MonthName       string       `json:"month_name"`
	FirstDayWeekday int          `json:"first_day_weekday"`
	Days            []HeatmapDay `json:"days"`
}

// HeatmapDayRef 引用整体统计中的最好/最差一天
type HeatmapDayRef struct {
	Date       string  `json:"date"`
	Percentage float64 `json:"percentage"`
}

// HeatmapOverallStats 汇总有数据日的整体表现
type HeatmapOverallStats struct {
	TotalDaysTracked  int            `json:"total_days_tracked"`
	AverageCompletion float64        `json:"average_completion"`
	BestDay           *HeatmapDayRef `json:"best_day"`
	WorstDay          *HeatmapDayRef `json:"worst_day"`
}

// YearHeatmap 是一整年的热力图视图
type YearHeatmap struct {
	Year         int                 `json:"year"`
	IsLeapYear   bool                `json:"is_leap_year"`
	Months       []HeatmapMonth      `json:"months"`
	OverallStats HeatmapOverallStats `json:"overall_stats"`
}

// buildYearHeatmap 基于习惯的生效起始日与按日完成集合重建全年视图
// 关键点：每天的分母只包含当天已经存在的习惯，历史百分比不会因为
// 后来新增习惯而变化；生效起始日取首条日志日期（允许补录提前），
// 没有任何日志时回退到创建日期
func buildYearHeatmap(year int, effectiveStarts map[uint]time.Time, completedByDate map[string]map[uint]bool) *YearHeatmap {
	heatmap := &YearHeatmap{
		Year:       year,
		IsLeapYear: isLeapYear(year),
		Months:     []HeatmapMonth{},
	}

	if len(effectiveStarts) == 0 {
		return heatmap
	}

	trackedDays := 0
	percentageSum := 0.0
	var best, worst *HeatmapDayRef

	for month := time.January; month <= time.December; month++ {
		firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
		daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.Local).Day()

		monthData := HeatmapMonth{
			Month:           int(month),
			MonthName:       month.String(),
			FirstDayWeekday: mondayIndexedWeekday(firstOfMonth),
			Days:            make([]HeatmapDay, 0, daysInMonth),
		}

		for dayNum := 1; dayNum <= daysInMonth; dayNum++ {
			date := time.Date(year, month, dayNum, 0, 0, 0, 0, time.Local)
			dateStr := date.Format(dateLayout)

			totalCount := 0
			for _, start := range effectiveStarts {
				if !start.After(date) {
					totalCount++
				}
			}

			day := HeatmapDay{
				Date:       dateStr,
				DayOfMonth: dayNum,
				TotalCount: totalCount,
			}

			if totalCount > 0 {
				for habitID := range completedByDate[dateStr] {
					start, ok := effectiveStarts[habitID]
					if ok && !start.After(date) {
						day.CompletedCount++
					}
				}
				day.CompletionPercentage = roundRate(float64(day.CompletedCount) / float64(totalCount) * 100)

				trackedDays++
				percentageSum += day.CompletionPercentage
				if best == nil || day.CompletionPercentage > best.Percentage {
					best = &HeatmapDayRef{Date: dateStr, Percentage: day.CompletionPercentage}
				}
				if worst == nil || day.CompletionPercentage < worst.Percentage {
					worst = &HeatmapDayRef{Date: dateStr, Percentage: day.CompletionPercentage}
				}
			}

			monthData.Days = append(monthData.Days, day)
		}

		heatmap.Months = append(heatmap.Months, monthData)
	}

	heatmap.OverallStats.TotalDaysTracked = trackedDays
	if trackedDays > 0 {
		heatmap.OverallStats.AverageCompletion = roundRate(percentageSum / float64(trackedDays))
		heatmap.OverallStats.BestDay = best
		heatmap.OverallStats.WorstDay = worst
	}

	return heatmap
}

// mondayIndexedWeekday 把 Go 的周日=0 换算成周一=0
func mondayIndexedWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func isLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}
