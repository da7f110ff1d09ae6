package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/habitlog/internal/config"
	"github.com/habitlog/internal/db"
	"github.com/habitlog/internal/service"
	"golang.org/x/crypto/bcrypt"
)

// 演示数据生成器：创建管理员、习惯和最近 60 天的打卡记录
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成演示数据...")

	createAdmin()
	habits := createHabits()
	createLogs(habits)

	fmt.Println("演示数据生成完成！")
	fmt.Println("管理员: admin (密码: admin123)")
}

func createAdmin() {
	var count int64
	db.DB.Model(&db.User{}).Count(&count)
	if count > 0 {
		fmt.Println("用户已存在，跳过创建")
		return
	}

	hashed, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	db.DB.Create(&db.User{Username: "admin", Password: string(hashed)})
	fmt.Println("管理员创建完成")
}

func createHabits() []*db.Habit {
	var count int64
	db.DB.Model(&db.Habit{}).Count(&count)
	if count > 0 {
		fmt.Println("习惯已存在，跳过创建")
		var existing []*db.Habit
		db.DB.Find(&existing)
		return existing
	}

	svc := service.NewHabitService(db.DB)

	inputs := []service.HabitInput{
		{Name: "晨跑", IsPublic: true, TracksValue: true, ValueUnit: "km", ValueAggregationType: db.ValueAggregationCumulative},
		{Name: "阅读", IsPublic: true},
		{Name: "冥想", IsPublic: true},
		{Name: "俯卧撑", IsPublic: true, TracksValue: true, ValueUnit: "个", ValueAggregationType: db.ValueAggregationCumulative},
		{Name: "记账", IsPublic: false},
	}

	habits := make([]*db.Habit, 0, len(inputs))
	for _, input := range inputs {
		habit, err := svc.Create(input)
		if err != nil {
			log.Fatal("创建习惯失败:", err)
		}
		habits = append(habits, habit)
	}

	fmt.Printf("创建了 %d 个习惯\n", len(habits))
	return habits
}

func createLogs(habits []*db.Habit) {
	logs := service.NewLogService(db.DB)
	rng := rand.New(rand.NewSource(42))

	now := time.Now().In(time.Local)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	created := 0
	for _, habit := range habits {
		for offset := 59; offset >= 0; offset-- {
			// 大约八成的天数有记录
			if rng.Float64() > 0.8 {
				continue
			}

			input := service.LogInput{
				HabitID: habit.ID,
				Date:    today.AddDate(0, 0, -offset),
				Status:  rng.Float64() < 0.75,
			}
			if habit.TracksValue && input.Status {
				value := float64(rng.Intn(20) + 5)
				input.Value = &value
			}

			if _, err := logs.Upsert(input); err != nil {
				log.Fatal("写入打卡记录失败:", err)
			}
			created++
		}
	}

	fmt.Printf("写入了 %d 条打卡记录\n", created)
}
