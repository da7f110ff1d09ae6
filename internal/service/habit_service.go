package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/habitlog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrHabitNotFound 在指定习惯不存在时返回
	ErrHabitNotFound = errors.New("habit not found")
	// ErrHabitInvalidName 当名称为空或超长时返回
	ErrHabitInvalidName = errors.New("invalid habit name")
	// ErrHabitInvalidAggregation 当聚合类型不受支持时返回
	ErrHabitInvalidAggregation = errors.New("invalid value aggregation type")
)

const maxHabitNameLength = 100

// HabitService 负责 Habit 数据的增删改查与排序
// 公开/归档过滤统一在这里收口，避免 handler 各写各的查询条件
type HabitService struct {
	db *gorm.DB
}

// HabitFilter 描述列表过滤条件
// ActiveOnly 只取未归档习惯；PublicOnly 只取公开习惯（匿名面板必须开启）
type HabitFilter struct {
	ActiveOnly bool
	PublicOnly bool
}

// HabitInput 定义创建习惯时可配置字段
type HabitInput struct {
	Name                 string
	IsPublic             bool
	TracksValue          bool
	ValueUnit            string
	ValueAggregationType string
}

// HabitUpdate 描述部分更新，只有非 nil 字段会被写入
// 指针字段即白名单：不在结构体上的列无法被外部请求触碰
type HabitUpdate struct {
	Name                 *string
	IsActive             *bool
	IsPublic             *bool
	OrderIndex           *int
	TracksValue          *bool
	ValueUnit            *string
	ValueAggregationType *string
}

// NewHabitService 构造 HabitService
func NewHabitService(gdb *gorm.DB) *HabitService {
	return &HabitService{db: gdb}
}

// List 返回习惯集合，按 order_index 升序排列
func (s *HabitService) List(filter HabitFilter) ([]db.Habit, error) {
	var habits []db.Habit

	query := s.db.Model(&db.Habit{})
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.PublicOnly {
		query = query.Where("is_public = ?", true)
	}

	if err := query.Order("order_index ASC, created_at ASC").Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	return habits, nil
}

// ListArchivedPublic 返回已归档且公开的习惯，供归档页统计使用
func (s *HabitService) ListArchivedPublic() ([]db.Habit, error) {
	var habits []db.Habit
	if err := s.db.Where("is_active = ? AND is_public = ?", false, true).
		Order("created_at DESC").
		Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list archived habits: %w", err)
	}
	return habits, nil
}

// Get 根据 ID 获取习惯
func (s *HabitService) Get(id uint) (*db.Habit, error) {
	var habit db.Habit
	if err := s.db.First(&habit, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return &habit, nil
}

// Create 新建习惯，order_index 追加到当前最大值之后
func (s *HabitService) Create(input HabitInput) (*db.Habit, error) {
	name := strings.TrimSpace(input.Name)
	if err := validateHabitName(name); err != nil {
		return nil, err
	}

	aggregation, err := normalizeAggregationType(input.ValueAggregationType)
	if err != nil {
		return nil, err
	}

	habit := db.Habit{
		Name:                 name,
		IsActive:             true,
		IsPublic:             input.IsPublic,
		TracksValue:          input.TracksValue,
		ValueUnit:            strings.TrimSpace(input.ValueUnit),
		ValueAggregationType: aggregation,
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		var maxOrder *int
		if err := tx.Model(&db.Habit{}).Select("MAX(order_index)").Scan(&maxOrder).Error; err != nil {
			return err
		}
		if maxOrder == nil {
			habit.OrderIndex = 0
		} else {
			habit.OrderIndex = *maxOrder + 1
		}
		return tx.Create(&habit).Error
	}); err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}

	return &habit, nil
}

// Update 部分更新习惯，未提供的字段保持原值
func (s *HabitService) Update(id uint, update HabitUpdate) (*db.Habit, error) {
	var existing db.Habit
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("find habit: %w", err)
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if err := validateHabitName(name); err != nil {
			return nil, err
		}
		existing.Name = name
	}
	if update.IsActive != nil {
		existing.IsActive = *update.IsActive
	}
	if update.IsPublic != nil {
		existing.IsPublic = *update.IsPublic
	}
	if update.OrderIndex != nil {
		existing.OrderIndex = *update.OrderIndex
	}
	if update.TracksValue != nil {
		existing.TracksValue = *update.TracksValue
	}
	if update.ValueUnit != nil {
		existing.ValueUnit = strings.TrimSpace(*update.ValueUnit)
	}
	if update.ValueAggregationType != nil {
		aggregation, err := normalizeAggregationType(*update.ValueAggregationType)
		if err != nil {
			return nil, err
		}
		existing.ValueAggregationType = aggregation
	}

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update habit: %w", err)
	}
	return &existing, nil
}

// Reorder 按给定顺序重写 order_index，整批在一个事务内完成
func (s *HabitService) Reorder(habitIDs []uint) (int, error) {
	updated := 0

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for index, habitID := range habitIDs {
			result := tx.Model(&db.Habit{}).
				Where("id = ?", habitID).
				Update("order_index", index)
			if result.Error != nil {
				return result.Error
			}
			updated += int(result.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reorder habits: %w", err)
	}

	return updated, nil
}

// Archive 软删除：仅标记 is_active=false，日志保留
func (s *HabitService) Archive(id uint) error {
	result := s.db.Model(&db.Habit{}).Where("id = ?", id).Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("archive habit: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrHabitNotFound
	}
	return nil
}

// HardDelete 永久删除习惯及其全部日志，不可恢复
func (s *HabitService) HardDelete(id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("habit_id = ?", id).Delete(&db.HabitLog{}).Error; err != nil {
			return err
		}

		result := tx.Unscoped().Delete(&db.Habit{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrHabitNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrHabitNotFound) {
			return ErrHabitNotFound
		}
		return fmt.Errorf("hard delete habit: %w", err)
	}
	return nil
}

func validateHabitName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrHabitInvalidName)
	}
	if len([]rune(name)) > maxHabitNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrHabitInvalidName, maxHabitNameLength)
	}
	return nil
}

func normalizeAggregationType(aggregation string) (string, error) {
	normalized := strings.TrimSpace(strings.ToLower(aggregation))
	switch normalized {
	case "", db.ValueAggregationAbsolute:
		return db.ValueAggregationAbsolute, nil
	case db.ValueAggregationCumulative:
		return db.ValueAggregationCumulative, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrHabitInvalidAggregation, aggregation)
	}
}
