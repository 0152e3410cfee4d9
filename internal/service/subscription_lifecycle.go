package service

import (
	"fmt"
	"math"
	"time"

	"online_course_backend/internal/model"
	"online_course_backend/pkg/logger"
	"online_course_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// 到期前提醒的三个检查点（剩余天数），其余天数不发，避免通知轰炸
var expiryNoticeDays = map[int]bool{7: true, 3: true, 1: true}

// SubscriptionSource 生命周期轮询需要的订阅查询与批量过期操作
type SubscriptionSource interface {
	ListActiveExpiringBetween(from, to time.Time) ([]model.Subscription, error)
	ListActiveDue(now time.Time) ([]model.Subscription, error)
	ExpireDue(now time.Time) (int64, error)
}

// Notifier 通知投递，fire-and-forget
type Notifier interface {
	Notify(userID uint, kind, title, message string, relatedID uint)
}

// PassResult 单轮处理统计
type PassResult struct {
	ExpiredCount  int `json:"expiredCount"`
	NotifiedCount int `json:"notifiedCount"`
}

// SubscriptionLifecycle 订阅生命周期后台任务：到期前在 7/3/1 天检查点发提醒，
// 并把已过期的 active 订阅批量置为 expired。进程启动时立即跑一轮，
// 之后按固定间隔执行；单轮失败只记日志，不影响后续轮次
type SubscriptionLifecycle struct {
	Subs     SubscriptionSource
	Notifier Notifier
	Now      func() time.Time

	started bool
	stop    chan struct{}
	done    chan struct{}
}

func NewSubscriptionLifecycle(subs SubscriptionSource, notifier Notifier) *SubscriptionLifecycle {
	return &SubscriptionLifecycle{
		Subs:     subs,
		Notifier: notifier,
		Now:      time.Now,
	}
}

// Start 启动后台轮询，先立即执行一轮再进入定时循环。
// Stop 之后可以再次 Start（配置热更新会用到）
func (s *SubscriptionLifecycle) Start(interval time.Duration) {
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.started = true
	go func() {
		defer close(s.done)

		s.runSafely()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runSafely()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop 停止轮询并等待当前轮结束
func (s *SubscriptionLifecycle) Stop() {
	if !s.started {
		return
	}
	s.started = false
	close(s.stop)
	<-s.done
}

func (s *SubscriptionLifecycle) runSafely() {
	result, err := s.RunPass()
	if err != nil {
		logger.Log.Error("subscription lifecycle pass failed", zap.Error(err))
		return
	}
	logger.Log.Info("subscription lifecycle pass finished",
		zap.Int("expired", result.ExpiredCount),
		zap.Int("notified", result.NotifiedCount))
}

// RunPass 执行一轮：先发到期提醒，再做过期清理。两步互相独立，
// 清理失败不影响已发出的提醒。鉴权不依赖这里的清理结果
func (s *SubscriptionLifecycle) RunPass() (PassResult, error) {
	var result PassResult
	now := s.Now()

	expiring, err := s.Subs.ListActiveExpiringBetween(now, now.AddDate(0, 0, 7))
	if err != nil {
		return result, fmt.Errorf("list expiring subscriptions: %w", err)
	}

	for _, sub := range expiring {
		days := DaysRemaining(sub.EndDate, now)
		if !expiryNoticeDays[days] {
			continue
		}
		s.Notifier.Notify(sub.UserID,
			model.NotificationSubscriptionExpiring,
			"订阅即将到期",
			fmt.Sprintf("您的课程订阅将在 %d 天后到期，请及时续费。", days),
			sub.ID)
		monitoring.ExpiryNotifications.Inc()
		result.NotifiedCount++
	}

	// 先取到期名单发通知，再批量改状态。两步之间新到期的订阅
	// 这一轮收不到通知，下一轮补上
	due, err := s.Subs.ListActiveDue(now)
	if err != nil {
		return result, fmt.Errorf("list due subscriptions: %w", err)
	}
	for _, sub := range due {
		s.Notifier.Notify(sub.UserID,
			model.NotificationSubscriptionExpired,
			"订阅已到期",
			"您的课程订阅已到期，续费后可继续学习。",
			sub.ID)
	}

	expired, err := s.Subs.ExpireDue(now)
	if err != nil {
		return result, fmt.Errorf("expire due subscriptions: %w", err)
	}
	result.ExpiredCount = int(expired)
	monitoring.SubscriptionsExpired.Add(float64(expired))

	return result, nil
}

// DaysRemaining 距到期剩余天数，向上取整
func DaysRemaining(endDate, now time.Time) int {
	return int(math.Ceil(endDate.Sub(now).Hours() / 24))
}
