package model

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	// PaymentApproved 管理员人工审核通过
	PaymentApproved PaymentStatus = "approved"
	// PaymentConfirmed 外部支付渠道回调确认
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentRejected  PaymentStatus = "rejected"
)

// Paid 报名是否已完成付款（人工审核或渠道回调均可）
func (s PaymentStatus) Paid() bool {
	return s == PaymentApproved || s == PaymentConfirmed
}

// Final 状态只能从 pending 向前流转，到达终态后不再回退
func (s PaymentStatus) Final() bool {
	return s != PaymentPending
}

// Enrollment 报名记录，每个 (user, course) 仅一条
// swagger:model Enrollment
type Enrollment struct {
	BaseModel
	UserID          uint          `gorm:"uniqueIndex:idx_user_course;type:bigint unsigned;not null" json:"userId"`
	User            *User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CourseID        uint          `gorm:"uniqueIndex:idx_user_course;type:bigint unsigned;not null" json:"courseId"`
	Course          *Course       `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	PlanID          uint          `gorm:"index;type:bigint unsigned" json:"planId"`
	PaymentMethod   string        `gorm:"size:50" json:"paymentMethod"`
	PaymentProofURL *string       `gorm:"size:512" json:"paymentProofUrl,omitempty"`
	PaymentStatus   PaymentStatus `gorm:"size:20;default:'pending'" json:"paymentStatus"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
