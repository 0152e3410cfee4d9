package model

import "time"

type SubscriptionStatus string

const (
	SubscriptionActive  SubscriptionStatus = "active"
	SubscriptionExpired SubscriptionStatus = "expired"
)

// Subscription 时限订阅。Status 只是 EndDate 的缓存，
// 鉴权永远按 EndDate 现算，后台轮询只负责把缓存刷成最终一致
// swagger:model Subscription
type Subscription struct {
	BaseModel
	UserID       uint               `gorm:"index:idx_sub_user_course;type:bigint unsigned;not null" json:"userId"`
	CourseID     uint               `gorm:"index:idx_sub_user_course;type:bigint unsigned;not null" json:"courseId"`
	PlanID       uint               `gorm:"index;type:bigint unsigned" json:"planId"`
	EnrollmentID uint               `gorm:"index;type:bigint unsigned" json:"enrollmentId"`
	Status       SubscriptionStatus `gorm:"size:20;default:'active'" json:"status"`
	StartDate    time.Time          `gorm:"not null" json:"startDate"`
	EndDate      time.Time          `gorm:"not null;index" json:"endDate"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// ActiveAt 订阅在指定时刻是否有效，不信任存储中的 Status
func (s *Subscription) ActiveAt(now time.Time) bool {
	return s.Status == SubscriptionActive && s.EndDate.After(now)
}
