package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"online_course_backend/internal/model"
	"online_course_backend/internal/repository"
	"online_course_backend/internal/util"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	catalogCacheKeyFmt = "catalog:published:%d:%d"
	catalogCacheTTL    = 5 * time.Minute
)

type CourseService struct {
	CourseRepo *repository.CourseRepository
	Redis      *redis.Client
	Logger     *zap.Logger
}

func NewCourseService(courseRepo *repository.CourseRepository, rdb *redis.Client, logger *zap.Logger) *CourseService {
	return &CourseService{
		CourseRepo: courseRepo,
		Redis:      rdb,
		Logger:     logger,
	}
}

type CourseRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	CoverURL    string `json:"coverUrl"`
	IsPublished bool   `json:"isPublished"`
	Order       int    `json:"order"`
}

func (s *CourseService) CreateCourse(instructorID uint, req CourseRequest) (*model.Course, error) {
	course := &model.Course{
		Title:        req.Title,
		Description:  req.Description,
		CoverURL:     req.CoverURL,
		InstructorID: instructorID,
		IsPublished:  req.IsPublished,
		Order:        req.Order,
	}
	if err := s.CourseRepo.Create(course); err != nil {
		return nil, err
	}
	s.invalidateCatalog(context.Background())
	return course, nil
}

func (s *CourseService) GetCourse(id uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCourseNotFound
	}
	return course, err
}

func (s *CourseService) UpdateCourse(id uint, req CourseRequest) (*model.Course, error) {
	course, err := s.GetCourse(id)
	if err != nil {
		return nil, err
	}

	course.Title = req.Title
	course.Description = req.Description
	course.CoverURL = req.CoverURL
	course.IsPublished = req.IsPublished
	course.Order = req.Order
	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}
	s.invalidateCatalog(context.Background())
	return course, nil
}

func (s *CourseService) DeleteCourse(id uint) error {
	if err := s.CourseRepo.Delete(id); err != nil {
		return err
	}
	s.invalidateCatalog(context.Background())
	return nil
}

type CatalogPage struct {
	Courses []model.Course `json:"courses"`
	Total   int64          `json:"total"`
}

// ListPublished 公开课程目录，redis 缓存 5 分钟，课程变更时整体失效
func (s *CourseService) ListPublished(ctx context.Context, page, limit int) (*CatalogPage, error) {
	key := fmt.Sprintf(catalogCacheKeyFmt, page, limit)

	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, key).Result(); err == nil {
			var p CatalogPage
			if err := json.Unmarshal([]byte(cached), &p); err == nil {
				return &p, nil
			}
		} else if err != redis.Nil {
			s.Logger.Warn("读课程目录缓存失败", zap.Error(err))
		}
	}

	courses, total, err := s.CourseRepo.ListPublished(page, limit)
	if err != nil {
		return nil, err
	}
	p := &CatalogPage{Courses: courses, Total: total}

	if s.Redis != nil {
		if data, err := json.Marshal(p); err == nil {
			if err := s.Redis.Set(ctx, key, data, catalogCacheTTL).Err(); err != nil {
				s.Logger.Warn("写课程目录缓存失败", zap.Error(err))
			}
		}
	}
	return p, nil
}

func (s *CourseService) invalidateCatalog(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	iter := s.Redis.Scan(ctx, 0, "catalog:published:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.Redis.Del(ctx, iter.Val()).Err(); err != nil {
			s.Logger.Warn("删除课程目录缓存失败", zap.String("key", iter.Val()), zap.Error(err))
		}
	}
	if err := iter.Err(); err != nil {
		s.Logger.Warn("扫描课程目录缓存失败", zap.Error(err))
	}
}

func (s *CourseService) ListByInstructor(instructorID uint) ([]model.Course, error) {
	return s.CourseRepo.ListByInstructor(instructorID)
}

// ---- 章节 ----

type ModuleRequest struct {
	CourseID uint   `json:"courseId" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Order    int    `json:"order"`
}

func (s *CourseService) CreateModule(req ModuleRequest) (*model.CourseModule, error) {
	m := &model.CourseModule{
		CourseID: req.CourseID,
		Title:    req.Title,
		Order:    req.Order,
	}
	if err := s.CourseRepo.CreateModule(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *CourseService) ListModules(courseID uint) ([]model.CourseModule, error) {
	return s.CourseRepo.ListModules(courseID)
}

func (s *CourseService) UpdateModule(id uint, req ModuleRequest) (*model.CourseModule, error) {
	modules, err := s.CourseRepo.ListModules(req.CourseID)
	if err != nil {
		return nil, err
	}
	for i := range modules {
		if modules[i].ID == id {
			modules[i].Title = req.Title
			modules[i].Order = req.Order
			if err := s.CourseRepo.UpdateModule(&modules[i]); err != nil {
				return nil, err
			}
			return &modules[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *CourseService) DeleteModule(id uint) error {
	return s.CourseRepo.DeleteModule(id)
}

// ---- 套餐 ----

type PlanRequest struct {
	CourseID     uint    `json:"courseId" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	DurationDays int     `json:"durationDays" binding:"required,gt=0"`
	Price        float64 `json:"price"`
	IsActive     bool    `json:"isActive"`
}

func (s *CourseService) CreatePlan(req PlanRequest) (*model.Plan, error) {
	p := &model.Plan{
		CourseID:     req.CourseID,
		Name:         req.Name,
		DurationDays: req.DurationDays,
		Price:        req.Price,
		IsActive:     req.IsActive,
	}
	if err := s.CourseRepo.CreatePlan(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CourseService) ListPlans(courseID uint) ([]model.Plan, error) {
	return s.CourseRepo.ListPlans(courseID)
}

func (s *CourseService) UpdatePlan(id uint, req PlanRequest) (*model.Plan, error) {
	p, err := s.CourseRepo.FindPlanByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPlanNotFound
		}
		return nil, err
	}

	p.Name = req.Name
	p.DurationDays = req.DurationDays
	p.Price = req.Price
	p.IsActive = req.IsActive
	if err := s.CourseRepo.UpdatePlan(p); err != nil {
		return nil, err
	}
	return p, nil
}
