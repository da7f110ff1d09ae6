package service

import (
	"testing"
	"time"
)

func TestBuildYearHeatmapEmpty(t *testing.T) {
	heatmap := buildYearHeatmap(2024, nil, nil)

	if heatmap.Year != 2024 || !heatmap.IsLeapYear {
		t.Fatalf("unexpected year info: %+v", heatmap)
	}
	if len(heatmap.Months) != 0 {
		t.Fatalf("expected empty months, got %d", len(heatmap.Months))
	}
	if heatmap.OverallStats.BestDay != nil || heatmap.OverallStats.WorstDay != nil {
		t.Fatal("expected nil best/worst day")
	}
	if heatmap.OverallStats.TotalDaysTracked != 0 {
		t.Fatalf("expected 0 tracked days, got %d", heatmap.OverallStats.TotalDaysTracked)
	}
}

func TestBuildYearHeatmapEffectiveStart(t *testing.T) {
	// 习惯 6 月 15 日创建且无日志：之前的日子不计入分母
	starts := map[uint]time.Time{1: day(2024, time.June, 15)}

	heatmap := buildYearHeatmap(2024, starts, nil)

	june := heatmap.Months[5]
	if june.Days[13].TotalCount != 0 {
		t.Fatalf("expected no habit on 2024-06-14, got total %d", june.Days[13].TotalCount)
	}
	if june.Days[14].TotalCount != 1 {
		t.Fatalf("expected habit to count from 2024-06-15, got total %d", june.Days[14].TotalCount)
	}

	// 6/15 起到年末每天都有数据
	wantTracked := 0
	for d := day(2024, time.June, 15); d.Year() == 2024; d = d.AddDate(0, 0, 1) {
		wantTracked++
	}
	if heatmap.OverallStats.TotalDaysTracked != wantTracked {
		t.Fatalf("expected %d tracked days, got %d", wantTracked, heatmap.OverallStats.TotalDaysTracked)
	}
}

func TestBuildYearHeatmapBackdatedLog(t *testing.T) {
	// 创建于 6 月，但首条日志补录在 1 月 1 日：生效起始日提前
	starts := map[uint]time.Time{1: day(2024, time.January, 1)}
	completed := map[string]map[uint]bool{
		"2024-01-01": {1: true},
	}

	heatmap := buildYearHeatmap(2024, starts, completed)

	january := heatmap.Months[0]
	if january.Days[0].TotalCount != 1 || january.Days[0].CompletedCount != 1 {
		t.Fatalf("unexpected 2024-01-01 data: %+v", january.Days[0])
	}
	if january.Days[0].CompletionPercentage != 100.0 {
		t.Fatalf("expected 100%% on 2024-01-01, got %v", january.Days[0].CompletionPercentage)
	}

	if heatmap.OverallStats.BestDay == nil || heatmap.OverallStats.BestDay.Date != "2024-01-01" {
		t.Fatalf("unexpected best day: %+v", heatmap.OverallStats.BestDay)
	}
}

func TestBuildYearHeatmapPercentages(t *testing.T) {
	starts := map[uint]time.Time{
		1: day(2024, time.January, 1),
		2: day(2024, time.January, 1),
		3: day(2024, time.July, 1),
	}
	completed := map[string]map[uint]bool{
		"2024-01-02": {1: true},
		"2024-07-01": {1: true, 2: true, 3: true},
		// 生效起始日之前的完成不计入分子
		"2024-06-30": {3: true},
	}

	heatmap := buildYearHeatmap(2024, starts, completed)

	january := heatmap.Months[0]
	if january.Days[1].CompletionPercentage != 50.0 {
		t.Fatalf("expected 50%% on 2024-01-02, got %v", january.Days[1].CompletionPercentage)
	}

	june := heatmap.Months[5]
	if june.Days[29].TotalCount != 2 || june.Days[29].CompletedCount != 0 {
		t.Fatalf("expected backdated completion before start to be ignored, got %+v", june.Days[29])
	}

	july := heatmap.Months[6]
	if july.Days[0].TotalCount != 3 || july.Days[0].CompletionPercentage != 100.0 {
		t.Fatalf("unexpected 2024-07-01 data: %+v", july.Days[0])
	}
}

func TestBuildYearHeatmapFirstOccurrenceWinsTies(t *testing.T) {
	starts := map[uint]time.Time{1: day(2023, time.January, 1)}
	completed := map[string]map[uint]bool{
		"2023-03-05": {1: true},
		"2023-09-10": {1: true},
	}

	heatmap := buildYearHeatmap(2023, starts, completed)

	// 两个 100% 日取先出现的；0% 日同理
	if heatmap.OverallStats.BestDay.Date != "2023-03-05" {
		t.Fatalf("expected first best day 2023-03-05, got %s", heatmap.OverallStats.BestDay.Date)
	}
	if heatmap.OverallStats.WorstDay.Date != "2023-01-01" {
		t.Fatalf("expected first worst day 2023-01-01, got %s", heatmap.OverallStats.WorstDay.Date)
	}
	if heatmap.IsLeapYear {
		t.Fatal("2023 is not a leap year")
	}
}

func TestMondayIndexedWeekday(t *testing.T) {
	// 2024-01-01 是周一，2024-09-01 是周日
	if got := mondayIndexedWeekday(day(2024, time.January, 1)); got != 0 {
		t.Fatalf("expected 0 for Monday, got %d", got)
	}
	if got := mondayIndexedWeekday(day(2024, time.September, 1)); got != 6 {
		t.Fatalf("expected 6 for Sunday, got %d", got)
	}
}

func TestIsLeapYear(t *testing.T) {
	cases := map[int]bool{
		2024: true,
		2023: false,
		2000: true,
		1900: false,
	}
	for year, want := range cases {
		if got := isLeapYear(year); got != want {
			t.Fatalf("isLeapYear(%d) = %v, want %v", year, got, want)
		}
	}
}
