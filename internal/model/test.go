package model

// Test 测验，可挂在课程或具体课时下
// swagger:model Test
type Test struct {
	BaseModel
	CourseID     uint     `gorm:"index;type:bigint unsigned" json:"courseId"`
	LessonID     *uint    `gorm:"index;type:bigint unsigned" json:"lessonId,omitempty"`
	Title        string   `gorm:"size:255;not null" json:"title"`
	Description  string   `gorm:"type:text" json:"description"`
	PassingScore *float64 `json:"passingScore,omitempty"` // 及格线（百分比），为空则不判定及格
	TimeLimit    int      `gorm:"default:0" json:"timeLimit"`
}

func (Test) TableName() string {
	return "tests"
}
