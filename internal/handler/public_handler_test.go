package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/db"
)

func TestGetPublicDashboardFiltersPrivateAndArchived(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	habits := []db.Habit{
		{Name: "公开习惯", IsActive: true, IsPublic: true, ValueAggregationType: db.ValueAggregationAbsolute},
		{Name: "私有习惯", IsActive: true, IsPublic: false, ValueAggregationType: db.ValueAggregationAbsolute},
		{Name: "归档习惯", IsActive: false, IsPublic: true, ValueAggregationType: db.ValueAggregationAbsolute},
	}
	if err := db.DB.Create(&habits).Error; err != nil {
		t.Fatalf("failed to seed habits: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?days=30", nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	api.GetPublicDashboard(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var view struct {
		Habits []struct {
			Name string `json:"name"`
		} `json:"habits"`
		DateRange struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"date_range"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode dashboard: %v", err)
	}
	if len(view.Habits) != 1 || view.Habits[0].Name != "公开习惯" {
		t.Fatalf("expected only the active public habit, got %+v", view.Habits)
	}
	if view.DateRange.Start == "" || view.DateRange.End == "" {
		t.Fatalf("expected a populated date range, got %+v", view.DateRange)
	}
}

func TestGetPublicDashboardClampsWindow(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?days=9999", nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	api.GetPublicDashboard(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var view struct {
		DateRange struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"date_range"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode dashboard: %v", err)
	}

	start, err := time.ParseInLocation(dateFormat, view.DateRange.Start, time.Local)
	if err != nil {
		t.Fatalf("failed to parse start date: %v", err)
	}
	end, err := time.ParseInLocation(dateFormat, view.DateRange.End, time.Local)
	if err != nil {
		t.Fatalf("failed to parse end date: %v", err)
	}
	if got := int(end.Sub(start).Hours()/24) + 1; got != maxDashboardDays {
		t.Fatalf("expected window clamped to %d days, got %d", maxDashboardDays, got)
	}
}

func TestGetYearHeatmapEmptyYear(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/heatmap?year=2024", nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	api.GetYearHeatmap(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var heatmap struct {
		Year       int   `json:"year"`
		IsLeapYear bool  `json:"is_leap_year"`
		Months     []any `json:"months"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &heatmap); err != nil {
		t.Fatalf("failed to decode heatmap: %v", err)
	}
	if heatmap.Year != 2024 || !heatmap.IsLeapYear {
		t.Fatalf("unexpected heatmap header: %+v", heatmap)
	}
	if len(heatmap.Months) != 0 {
		t.Fatalf("expected no months without habits, got %d", len(heatmap.Months))
	}
}

func TestGetArchiveReturnsLifetimeStats(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	habit := db.Habit{Name: "已放弃的习惯", IsActive: false, IsPublic: true, ValueAggregationType: db.ValueAggregationAbsolute}
	if err := db.DB.Create(&habit).Error; err != nil {
		t.Fatalf("failed to seed habit: %v", err)
	}

	base := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.Local)
	for offset := 0; offset < 3; offset++ {
		log := db.HabitLog{HabitID: habit.ID, LogDate: base.AddDate(0, 0, offset), Status: true}
		if err := db.DB.Create(&log).Error; err != nil {
			t.Fatalf("failed to seed log: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/archive", nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	api.GetArchive(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp struct {
		Habits []struct {
			Name          string  `json:"name"`
			LongestStreak int     `json:"longest_streak"`
			Rate          float64 `json:"completion_rate"`
		} `json:"habits"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode archive: %v", err)
	}
	if len(resp.Habits) != 1 {
		t.Fatalf("expected 1 archived habit, got %d", len(resp.Habits))
	}
	if resp.Habits[0].LongestStreak != 3 {
		t.Fatalf("expected longest streak 3, got %d", resp.Habits[0].LongestStreak)
	}
	if resp.Habits[0].Rate != 100.0 {
		t.Fatalf("expected completion rate 100.0, got %v", resp.Habits[0].Rate)
	}
}

func TestRenderMarkdownSanitizesScript(t *testing.T) {
	html := string(renderMarkdown("**加油** <script>alert(1)</script>"))

	if !strings.Contains(html, "<strong>") {
		t.Fatalf("expected markdown emphasis to render, got %q", html)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("expected script tag to be stripped, got %q", html)
	}
}

func TestClampDashboardDays(t *testing.T) {
	if got := clampDashboardDays(30); got != 30 {
		t.Fatalf("expected 30, got %d", got)
	}
	if got := clampDashboardDays(9999); got != maxDashboardDays {
		t.Fatalf("expected clamp to %d, got %d", maxDashboardDays, got)
	}
}
