package repository

import (
	"online_course_backend/internal/model"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) Create(e *model.Enrollment) error {
	return r.DB.Create(e).Error
}

func (r *EnrollmentRepository) FindByID(id uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.Preload("User").Preload("Course").First(&e, id).Error
	return &e, err
}

func (r *EnrollmentRepository) FindByUserAndCourse(userID, courseID uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) Update(e *model.Enrollment) error {
	return r.DB.Save(e).Error
}

func (r *EnrollmentRepository) ListByUser(userID uint) ([]model.Enrollment, error) {
	var es []model.Enrollment
	err := r.DB.Where("user_id = ?", userID).Preload("Course").Order("created_at desc").Find(&es).Error
	return es, err
}

func (r *EnrollmentRepository) List(page, limit int, status string) ([]model.Enrollment, int64, error) {
	var es []model.Enrollment
	var total int64

	query := r.DB.Model(&model.Enrollment{})
	if status != "" {
		query = query.Where("payment_status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Preload("User").Preload("Course").
		Order("created_at desc").Offset(offset).Limit(limit).Find(&es).Error
	return es, total, err
}
