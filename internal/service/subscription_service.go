package service

import (
	"errors"
	"time"

	"online_course_backend/internal/model"
	"online_course_backend/internal/repository"
	"online_course_backend/internal/util"

	"gorm.io/gorm"
)

type SubscriptionService struct {
	SubRepo *repository.SubscriptionRepository
	Now     func() time.Time
}

func NewSubscriptionService(subRepo *repository.SubscriptionRepository) *SubscriptionService {
	return &SubscriptionService{
		SubRepo: subRepo,
		Now:     time.Now,
	}
}

type GrantSubscriptionRequest struct {
	UserID       uint `json:"userId" binding:"required"`
	CourseID     uint `json:"courseId" binding:"required"`
	PlanID       uint `json:"planId"`
	DurationDays int  `json:"durationDays" binding:"required,gt=0"`
}

// Grant 管理员手工开通订阅，绕过报名流程
func (s *SubscriptionService) Grant(req GrantSubscriptionRequest) (*model.Subscription, error) {
	now := s.Now()
	sub := &model.Subscription{
		UserID:    req.UserID,
		CourseID:  req.CourseID,
		PlanID:    req.PlanID,
		Status:    model.SubscriptionActive,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, req.DurationDays),
	}
	if err := s.SubRepo.Create(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubscriptionService) Get(id uint) (*model.Subscription, error) {
	sub, err := s.SubRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrSubscriptionNotFound
	}
	return sub, err
}

func (s *SubscriptionService) List(page, limit int, status string) ([]model.Subscription, int64, error) {
	return s.SubRepo.List(page, limit, status)
}

// Extend 延长订阅。已过期的订阅从当前时间起算并重新激活
func (s *SubscriptionService) Extend(id uint, days int) (*model.Subscription, error) {
	if days <= 0 {
		return nil, errors.New("extension days must be positive")
	}

	sub, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	base := sub.EndDate
	if base.Before(now) {
		base = now
	}
	sub.EndDate = base.AddDate(0, 0, days)
	sub.Status = model.SubscriptionActive

	if err := s.SubRepo.Update(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// SubscriptionView 订阅详情加剩余天数
type SubscriptionView struct {
	model.Subscription
	Active        bool `json:"active"`
	DaysRemaining int  `json:"daysRemaining"`
}

func (s *SubscriptionService) ViewOf(sub *model.Subscription) SubscriptionView {
	now := s.Now()
	v := SubscriptionView{
		Subscription: *sub,
		Active:       sub.ActiveAt(now),
	}
	if v.Active {
		v.DaysRemaining = DaysRemaining(sub.EndDate, now)
	}
	return v
}

// MyCourseSubscription 学生查询自己在某课程下的订阅
func (s *SubscriptionService) MyCourseSubscription(userID, courseID uint) (*SubscriptionView, error) {
	sub, err := s.SubRepo.FindLatestByUserAndCourse(userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSubscriptionNotFound
		}
		return nil, err
	}
	v := s.ViewOf(sub)
	return &v, nil
}
