package repository

import (
	"time"

	"online_course_backend/internal/model"

	"gorm.io/gorm"
)

type SubscriptionRepository struct {
	DB *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{DB: db}
}

func (r *SubscriptionRepository) Create(s *model.Subscription) error {
	return r.DB.Create(s).Error
}

func (r *SubscriptionRepository) FindByID(id uint) (*model.Subscription, error) {
	var s model.Subscription
	err := r.DB.First(&s, id).Error
	return &s, err
}

// FindLatestByUserAndCourse 取结束时间最晚的一条；是否有效由调用方按 EndDate 判定
func (r *SubscriptionRepository) FindLatestByUserAndCourse(userID, courseID uint) (*model.Subscription, error) {
	var s model.Subscription
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("end_date desc").First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubscriptionRepository) Update(s *model.Subscription) error {
	return r.DB.Save(s).Error
}

func (r *SubscriptionRepository) List(page, limit int, status string) ([]model.Subscription, int64, error) {
	var subs []model.Subscription
	var total int64

	query := r.DB.Model(&model.Subscription{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("end_date asc").Offset(offset).Limit(limit).Find(&subs).Error
	return subs, total, err
}

// ListActiveExpiringBetween 查询仍为 active 且到期时间落在 (from, to] 的订阅
func (r *SubscriptionRepository) ListActiveExpiringBetween(from, to time.Time) ([]model.Subscription, error) {
	var subs []model.Subscription
	err := r.DB.Where("status = ? AND end_date > ? AND end_date <= ?",
		model.SubscriptionActive, from, to).Find(&subs).Error
	return subs, err
}

// ListActiveDue 查询已过期但状态仍为 active 的订阅
func (r *SubscriptionRepository) ListActiveDue(now time.Time) ([]model.Subscription, error) {
	var subs []model.Subscription
	err := r.DB.Where("status = ? AND end_date <= ?",
		model.SubscriptionActive, now).Find(&subs).Error
	return subs, err
}

// ExpireDue 批量把已过期的 active 订阅置为 expired，返回影响行数
func (r *SubscriptionRepository) ExpireDue(now time.Time) (int64, error) {
	result := r.DB.Model(&model.Subscription{}).
		Where("status = ? AND end_date <= ?", model.SubscriptionActive, now).
		Update("status", model.SubscriptionExpired)
	return result.RowsAffected, result.Error
}
