package model

import "encoding/json"

// TestAttempt 一次判分后的答题记录，创建后不可修改。
// 同一 (user, test) 允许多次作答，全部保留
// swagger:model TestAttempt
type TestAttempt struct {
	BaseModel
	TestID        uint            `gorm:"index;type:bigint unsigned;not null" json:"testId"`
	UserID        uint            `gorm:"index;type:bigint unsigned;not null" json:"userId"`
	Answers       json.RawMessage `gorm:"type:json" json:"answers"`
	Score         int             `gorm:"not null" json:"score"`
	TotalPoints   int             `gorm:"not null" json:"totalPoints"`
	IsPassed      bool            `gorm:"default:false" json:"isPassed"`
	PendingReview bool            `gorm:"default:false" json:"pendingReview"` // 含 essay 题，待人工评阅
}

func (TestAttempt) TableName() string {
	return "test_attempts"
}

// Percentage 按本次作答自身的 TotalPoints 计算，题目后续变更不影响历史记录
func (a *TestAttempt) Percentage() float64 {
	if a.TotalPoints <= 0 {
		return 0
	}
	return float64(a.Score) / float64(a.TotalPoints) * 100
}
