package repository

import (
	"online_course_backend/internal/model"

	"gorm.io/gorm"
)

// AttemptRepository 答题记录仅追加，不提供更新或删除
type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(attempt *model.TestAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *AttemptRepository) FindByID(id uint) (*model.TestAttempt, error) {
	var attempt model.TestAttempt
	err := r.DB.First(&attempt, id).Error
	return &attempt, err
}

func (r *AttemptRepository) ListByUserAndTest(userID, testID uint) ([]model.TestAttempt, error) {
	var attempts []model.TestAttempt
	err := r.DB.Where("user_id = ? AND test_id = ?", userID, testID).
		Order("created_at asc").Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) ListByTest(testID uint, page, limit int) ([]model.TestAttempt, int64, error) {
	var attempts []model.TestAttempt
	var total int64

	query := r.DB.Model(&model.TestAttempt{}).Where("test_id = ?", testID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&attempts).Error
	return attempts, total, err
}
