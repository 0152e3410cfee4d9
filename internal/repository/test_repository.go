package repository

import (
	"online_course_backend/internal/model"

	"gorm.io/gorm"
)

type TestRepository struct {
	DB *gorm.DB
}

func NewTestRepository(db *gorm.DB) *TestRepository {
	return &TestRepository{DB: db}
}

func (r *TestRepository) Create(test *model.Test) error {
	return r.DB.Create(test).Error
}

func (r *TestRepository) FindByID(id uint) (*model.Test, error) {
	var test model.Test
	err := r.DB.First(&test, id).Error
	return &test, err
}

func (r *TestRepository) Update(test *model.Test) error {
	return r.DB.Save(test).Error
}

func (r *TestRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Test{}, id).Error
}

func (r *TestRepository) ListByCourse(courseID uint) ([]model.Test, error) {
	var tests []model.Test
	err := r.DB.Where("course_id = ?", courseID).Order("created_at asc").Find(&tests).Error
	return tests, err
}

// Question related methods
func (r *TestRepository) CreateQuestion(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *TestRepository) FindQuestionByID(id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("`order` asc")
	}).First(&q, id).Error
	return &q, err
}

// ListQuestions 返回测验全部题目，multiple_choice 题带选项
func (r *TestRepository) ListQuestions(testID uint) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.Where("test_id = ?", testID).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("`order` asc")
		}).
		Order("`order` asc, created_at asc").Find(&qs).Error
	return qs, err
}

func (r *TestRepository) UpdateQuestion(q *model.Question) error {
	return r.DB.Save(q).Error
}

func (r *TestRepository) DeleteQuestion(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&model.QuestionOption{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Question{}, id).Error
	})
}

// ReplaceOptions 覆盖写入题目的选项列表
func (r *TestRepository) ReplaceOptions(questionID uint, options []model.QuestionOption) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", questionID).Delete(&model.QuestionOption{}).Error; err != nil {
			return err
		}
		for i := range options {
			options[i].QuestionID = questionID
			if err := tx.Create(&options[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
