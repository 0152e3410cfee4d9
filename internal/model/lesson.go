package model

// Lesson 课时。IsDemo 为 true 的课时对所有人开放，不做任何权限校验
// swagger:model Lesson
type Lesson struct {
	BaseModel
	CourseID      uint    `gorm:"index;type:bigint unsigned" json:"courseId"`
	ModuleID      *uint   `gorm:"index;type:bigint unsigned" json:"moduleId,omitempty"`
	Title         string  `gorm:"size:255;not null" json:"title"`
	Content       string  `gorm:"type:longtext" json:"content"`
	VideoURL      string  `gorm:"size:512" json:"videoUrl"`
	ThumbnailURL  string  `gorm:"size:512" json:"thumbnailUrl"`
	VideoDuration float64 `gorm:"default:0" json:"videoDuration"` // 秒
	IsDemo        bool    `gorm:"default:false" json:"isDemo"`
	Order         int     `gorm:"default:0" json:"order"`
}

func (Lesson) TableName() string {
	return "lessons"
}
