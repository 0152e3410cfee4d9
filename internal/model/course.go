package model

// swagger:model Course
type Course struct {
	BaseModel
	Title        string `gorm:"size:255;not null" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	CoverURL     string `gorm:"size:512" json:"coverUrl"`
	InstructorID uint   `gorm:"index;type:bigint unsigned" json:"instructorId"`
	Instructor   *User  `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	IsPublished  bool   `gorm:"default:false" json:"isPublished"`
	Order        int    `gorm:"default:0" json:"order"`
}

func (Course) TableName() string {
	return "courses"
}

// CourseModule 课程章节，课时按章节归组
// swagger:model CourseModule
type CourseModule struct {
	BaseModel
	CourseID uint   `gorm:"index;type:bigint unsigned" json:"courseId"`
	Title    string `gorm:"size:255;not null" json:"title"`
	Order    int    `gorm:"default:0" json:"order"`
}

func (CourseModule) TableName() string {
	return "course_modules"
}

// Plan 订阅套餐，时长以天为单位
// swagger:model Plan
type Plan struct {
	BaseModel
	CourseID     uint    `gorm:"index;type:bigint unsigned" json:"courseId"`
	Name         string  `gorm:"size:100;not null" json:"name"`
	DurationDays int     `gorm:"not null" json:"durationDays"`
	Price        float64 `gorm:"type:decimal(10,2);default:0" json:"price"`
	IsActive     bool    `gorm:"default:true" json:"isActive"`
}

func (Plan) TableName() string {
	return "plans"
}
