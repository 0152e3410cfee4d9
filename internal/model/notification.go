package model

const (
	NotificationSubscriptionExpiring = "subscription_expiring"
	NotificationSubscriptionExpired  = "subscription_expired"
	NotificationEnrollmentApproved   = "enrollment_approved"
	NotificationEnrollmentRejected   = "enrollment_rejected"
)

// swagger:model Notification
type Notification struct {
	BaseModel
	UserID    uint   `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	Kind      string `gorm:"size:50;not null" json:"kind"`
	Title     string `gorm:"size:255" json:"title"`
	Message   string `gorm:"type:text" json:"message"`
	RelatedID uint   `gorm:"type:bigint unsigned" json:"relatedId"`
	IsRead    bool   `gorm:"default:false" json:"isRead"`
}

func (Notification) TableName() string {
	return "notifications"
}
