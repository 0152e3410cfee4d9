package repository

import (
	"online_course_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.Preload("Instructor").First(&course, id).Error
	return &course, err
}

func (r *CourseRepository) Update(course *model.Course) error {
	return r.DB.Save(course).Error
}

func (r *CourseRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Course{}, id).Error
}

func (r *CourseRepository) ListPublished(page, limit int) ([]model.Course, int64, error) {
	var courses []model.Course
	var total int64

	query := r.DB.Model(&model.Course{}).Where("is_published = ?", true)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("`order` asc, created_at desc").Offset(offset).Limit(limit).Find(&courses).Error
	return courses, total, err
}

func (r *CourseRepository) ListByInstructor(instructorID uint) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.Where("instructor_id = ?", instructorID).Order("`order` asc, created_at desc").Find(&courses).Error
	return courses, err
}

// CourseModule related methods
func (r *CourseRepository) CreateModule(m *model.CourseModule) error {
	return r.DB.Create(m).Error
}

func (r *CourseRepository) ListModules(courseID uint) ([]model.CourseModule, error) {
	var modules []model.CourseModule
	err := r.DB.Where("course_id = ?", courseID).Order("`order` asc").Find(&modules).Error
	return modules, err
}

func (r *CourseRepository) UpdateModule(m *model.CourseModule) error {
	return r.DB.Save(m).Error
}

func (r *CourseRepository) DeleteModule(id uint) error {
	return r.DB.Delete(&model.CourseModule{}, id).Error
}

// Plan related methods
func (r *CourseRepository) CreatePlan(p *model.Plan) error {
	return r.DB.Create(p).Error
}

func (r *CourseRepository) FindPlanByID(id uint) (*model.Plan, error) {
	var plan model.Plan
	err := r.DB.First(&plan, id).Error
	return &plan, err
}

func (r *CourseRepository) ListPlans(courseID uint) ([]model.Plan, error) {
	var plans []model.Plan
	err := r.DB.Where("course_id = ? AND is_active = ?", courseID, true).Order("duration_days asc").Find(&plans).Error
	return plans, err
}

func (r *CourseRepository) UpdatePlan(p *model.Plan) error {
	return r.DB.Save(p).Error
}
