// 手动触发订阅生命周期巡检脚本
//
// 该功能已集成到主应用的后台定时任务中（默认每 24 小时自动执行一次）。
// 此脚本仅用于手动触发，例如批量导入历史订阅数据后立即刷新状态。
//
// 用法: go run scripts/run_lifecycle.go

package main

import (
	"log"
	"os"

	"online_course_backend/internal/config"
	"online_course_backend/internal/repository"
	"online_course_backend/internal/service"
	"online_course_backend/pkg/database"
	"online_course_backend/pkg/logger"

	"gopkg.in/yaml.v3"
)

func main() {
	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	subRepo := repository.NewSubscriptionRepository(db)
	notifications := service.NewNotificationService(repository.NewNotificationRepository(db))
	lifecycle := service.NewSubscriptionLifecycle(subRepo, notifications)

	log.Println("手动触发订阅巡检...")
	result, err := lifecycle.RunPass()
	if err != nil {
		log.Fatalf("巡检失败: %v", err)
	}
	log.Printf("完成！过期 %d 条，提醒 %d 条", result.ExpiredCount, result.NotifiedCount)
}
