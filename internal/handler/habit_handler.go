package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/service"
)

type habitPayload struct {
	Name                 string `json:"name"`
	IsPublic             *bool  `json:"is_public"`
	TracksValue          bool   `json:"tracks_value"`
	ValueUnit            string `json:"value_unit"`
	ValueAggregationType string `json:"value_aggregation_type"`
}

type habitUpdatePayload struct {
	Name                 *string `json:"name"`
	IsActive             *bool   `json:"is_active"`
	IsPublic             *bool   `json:"is_public"`
	OrderIndex           *int    `json:"order_index"`
	TracksValue          *bool   `json:"tracks_value"`
	ValueUnit            *string `json:"value_unit"`
	ValueAggregationType *string `json:"value_aggregation_type"`
}

type dayLogPayload struct {
	Status bool     `json:"status"`
	Value  *float64 `json:"value"`
}

type saveLogsPayload struct {
	Date string                   `json:"date"`
	Logs map[string]dayLogPayload `json:"logs"`
}

// ListHabits 返回习惯列表 JSON，默认包含归档与私有习惯
func (a *API) ListHabits(c *gin.Context) {
	filter := service.HabitFilter{
		ActiveOnly: c.Query("active") == "1",
		PublicOnly: c.Query("public") == "1",
	}

	habits, err := a.habits.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取习惯列表失败")
		return
	}

	items := make([]gin.H, 0, len(habits))
	for _, habit := range habits {
		items = append(items, habitToPayload(habit))
	}

	c.JSON(http.StatusOK, gin.H{"habits": items})
}

// GetHabit 返回单个习惯详情
func (a *API) GetHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	habit, err := a.habits.Get(id)
	if err != nil {
		handleHabitError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(*habit)})
}

// CreateHabit 创建习惯，order_index 自动追加
func (a *API) CreateHabit(c *gin.Context) {
	var payload habitPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	isPublic := true
	if payload.IsPublic != nil {
		isPublic = *payload.IsPublic
	}

	habit, err := a.habits.Create(service.HabitInput{
		Name:                 payload.Name,
		IsPublic:             isPublic,
		TracksValue:          payload.TracksValue,
		ValueUnit:            payload.ValueUnit,
		ValueAggregationType: payload.ValueAggregationType,
	})
	if err != nil {
		handleHabitError(c, err)
		return
	}

	a.dashboard.InvalidateCache()
	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(*habit)})
}

// UpdateHabit 部分更新习惯，只写入请求中出现的字段
func (a *API) UpdateHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	var payload habitUpdatePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	habit, err := a.habits.Update(id, service.HabitUpdate{
		Name:                 payload.Name,
		IsActive:             payload.IsActive,
		IsPublic:             payload.IsPublic,
		OrderIndex:           payload.OrderIndex,
		TracksValue:          payload.TracksValue,
		ValueUnit:            payload.ValueUnit,
		ValueAggregationType: payload.ValueAggregationType,
	})
	if err != nil {
		handleHabitError(c, err)
		return
	}

	a.dashboard.InvalidateCache()
	c.JSON(http.StatusOK, gin.H{"habit": habitToPayload(*habit)})
}

// DeleteHabit 默认软删除（归档），?hard=1 时永久删除习惯及日志
func (a *API) DeleteHabit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	if c.Query("hard") == "1" {
		err = a.habits.HardDelete(id)
	} else {
		err = a.habits.Archive(id)
	}
	if err != nil {
		handleHabitError(c, err)
		return
	}

	a.dashboard.InvalidateCache()
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ReorderHabits 按请求顺序重写全部 order_index
func (a *API) ReorderHabits(c *gin.Context) {
	var payload struct {
		HabitIDs []uint `json:"habit_ids"`
	}
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	if len(payload.HabitIDs) == 0 {
		respondError(c, http.StatusBadRequest, "习惯ID列表不能为空")
		return
	}

	updated, err := a.habits.Reorder(payload.HabitIDs)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "排序保存失败")
		return
	}

	a.dashboard.InvalidateCache()
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// GetTracking 返回指定日期的打卡视图 JSON
func (a *API) GetTracking(c *gin.Context) {
	date, err := parseDateQuery(c, "date")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的日期")
		return
	}

	view, err := a.dashboard.AdminTracking(date)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "加载打卡数据失败")
		return
	}

	c.JSON(http.StatusOK, view)
}

// SaveDayLogs 批量保存某一天的打卡结果
func (a *API) SaveDayLogs(c *gin.Context) {
	var payload saveLogsPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	if payload.Date == "" {
		respondError(c, http.StatusBadRequest, "请选择打卡日期")
		return
	}

	date, err := parseDateString(payload.Date)
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的打卡日期")
		return
	}

	entries := make(map[uint]service.DayLogEntry, len(payload.Logs))
	for rawID, entry := range payload.Logs {
		habitID, err := strconv.ParseUint(rawID, 10, 32)
		if err != nil || habitID == 0 {
			respondError(c, http.StatusBadRequest, "无效的习惯ID")
			return
		}
		entries[uint(habitID)] = service.DayLogEntry{Status: entry.Status, Value: entry.Value}
	}

	count, err := a.dashboard.SaveDayLogs(date, entries)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "保存打卡记录失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"saved": count, "date": payload.Date})
}

// DeleteLog 删除指定习惯某一天的打卡记录
func (a *API) DeleteLog(c *gin.Context) {
	habitID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	date, err := parseDateQuery(c, "date")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的日期")
		return
	}

	if err := a.logs.Delete(habitID, date); err != nil {
		respondError(c, http.StatusInternalServerError, "删除打卡记录失败")
		return
	}

	a.dashboard.InvalidateCache()
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// GetHabitHistory 返回习惯最近 N 天的按日序列，供后台图表使用
func (a *API) GetHabitHistory(c *gin.Context) {
	habitID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的习惯ID")
		return
	}

	if _, err := a.habits.Get(habitID); err != nil {
		handleHabitError(c, err)
		return
	}

	days := parsePositiveIntQuery(c, "days", 90)
	today, err := parseDateQuery(c, "end")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的日期")
		return
	}

	chart, err := a.dashboard.HabitHistoryChart(habitID, days, today)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "加载历史数据失败")
		return
	}

	c.JSON(http.StatusOK, chart)
}

func habitToPayload(habit db.Habit) gin.H {
	item := gin.H{
		"id":                     habit.ID,
		"name":                   habit.Name,
		"is_active":              habit.IsActive,
		"is_public":              habit.IsPublic,
		"order_index":            habit.OrderIndex,
		"tracks_value":           habit.TracksValue,
		"value_aggregation_type": habit.ValueAggregationType,
		"created_at":             habit.CreatedAt.Format(dateFormat),
	}

	if habit.ValueUnit != "" {
		item["value_unit"] = habit.ValueUnit
	}

	return item
}

func handleHabitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrHabitNotFound):
		respondError(c, http.StatusNotFound, "习惯不存在")
	case errors.Is(err, service.ErrHabitInvalidName):
		respondError(c, http.StatusBadRequest, "习惯名称无效")
	case errors.Is(err, service.ErrHabitInvalidAggregation):
		respondError(c, http.StatusBadRequest, "数值聚合类型无效")
	case errors.Is(err, service.ErrInvalidWindow):
		respondError(c, http.StatusBadRequest, "统计窗口无效")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
