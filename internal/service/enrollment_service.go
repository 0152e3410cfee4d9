package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"online_course_backend/internal/model"
	"online_course_backend/internal/repository"
	"online_course_backend/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type EnrollmentService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
	SubRepo        *repository.SubscriptionRepository
	Notifications  *NotificationService
	Storage        *StorageService
	Logger         *zap.Logger
	Now            func() time.Time
}

func NewEnrollmentService(
	enrollmentRepo *repository.EnrollmentRepository,
	courseRepo *repository.CourseRepository,
	subRepo *repository.SubscriptionRepository,
	notifications *NotificationService,
	storage *StorageService,
	logger *zap.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		EnrollmentRepo: enrollmentRepo,
		CourseRepo:     courseRepo,
		SubRepo:        subRepo,
		Notifications:  notifications,
		Storage:        storage,
		Logger:         logger,
		Now:            time.Now,
	}
}

type EnrollRequest struct {
	CourseID      uint   `json:"courseId" binding:"required"`
	PlanID        uint   `json:"planId" binding:"required"`
	PaymentMethod string `json:"paymentMethod"`
}

// Enroll 学生报名课程，同一课程只允许一条报名记录
func (s *EnrollmentService) Enroll(userID uint, req EnrollRequest) (*model.Enrollment, error) {
	if _, err := s.CourseRepo.FindByID(req.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	plan, err := s.CourseRepo.FindPlanByID(req.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPlanNotFound
		}
		return nil, err
	}
	if plan.CourseID != req.CourseID {
		return nil, util.ErrPlanNotFound
	}

	if _, err := s.EnrollmentRepo.FindByUserAndCourse(userID, req.CourseID); err == nil {
		return nil, util.ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	enrollment := &model.Enrollment{
		UserID:        userID,
		CourseID:      req.CourseID,
		PlanID:        req.PlanID,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: model.PaymentPending,
	}
	if err := s.EnrollmentRepo.Create(enrollment); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// UploadPaymentProof 上传付款凭证（图片或 PDF），仅 pending 状态可传
func (s *EnrollmentService) UploadPaymentProof(ctx context.Context, userID, enrollmentID uint, file *multipart.FileHeader) (*model.Enrollment, error) {
	enrollment, err := s.getOwned(userID, enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment.PaymentStatus.Final() {
		return nil, util.ErrPaymentFinalized
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	mimeType, err := util.ValidateMimeType(src, util.AllowedProofTypes)
	if err != nil {
		return nil, err
	}
	if _, err := src.Seek(0, 0); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext == "" {
		// 部分客户端不带文件名后缀，按检测到的类型补
		if util.IsImage(mimeType) {
			ext = ".jpg"
		} else {
			ext = ".pdf"
		}
	}
	objectName := fmt.Sprintf("proofs/%d/%s%s", enrollmentID, uuid.New().String(), ext)
	url, err := s.Storage.Upload(ctx, objectName, src, file.Size, mimeType)
	if err != nil {
		return nil, err
	}

	enrollment.PaymentProofURL = &url
	if err := s.EnrollmentRepo.Update(enrollment); err != nil {
		return nil, err
	}
	return enrollment, nil
}

func (s *EnrollmentService) getOwned(userID, enrollmentID uint) (*model.Enrollment, error) {
	enrollment, err := s.EnrollmentRepo.FindByID(enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}
	if enrollment.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return enrollment, nil
}

func (s *EnrollmentService) ListMine(userID uint) ([]model.Enrollment, error) {
	return s.EnrollmentRepo.ListByUser(userID)
}

func (s *EnrollmentService) List(page, limit int, status string) ([]model.Enrollment, int64, error) {
	return s.EnrollmentRepo.List(page, limit, status)
}

// Approve 管理员审核通过：报名置为 approved 并按套餐时长开通订阅。
// 已到终态的报名不允许再改
func (s *EnrollmentService) Approve(enrollmentID uint) (*model.Enrollment, error) {
	return s.settle(enrollmentID, model.PaymentApproved)
}

// ConfirmPayment 支付渠道回调确认，效果与人工审核一致，状态记为 confirmed
func (s *EnrollmentService) ConfirmPayment(enrollmentID uint) (*model.Enrollment, error) {
	return s.settle(enrollmentID, model.PaymentConfirmed)
}

func (s *EnrollmentService) settle(enrollmentID uint, status model.PaymentStatus) (*model.Enrollment, error) {
	enrollment, err := s.EnrollmentRepo.FindByID(enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}
	if enrollment.PaymentStatus.Final() {
		return nil, util.ErrPaymentFinalized
	}

	plan, err := s.CourseRepo.FindPlanByID(enrollment.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrPlanNotFound
		}
		return nil, err
	}

	enrollment.PaymentStatus = status
	if err := s.EnrollmentRepo.Update(enrollment); err != nil {
		return nil, err
	}

	now := s.Now()
	sub := &model.Subscription{
		UserID:       enrollment.UserID,
		CourseID:     enrollment.CourseID,
		PlanID:       plan.ID,
		EnrollmentID: enrollment.ID,
		Status:       model.SubscriptionActive,
		StartDate:    now,
		EndDate:      now.AddDate(0, 0, plan.DurationDays),
	}
	if err := s.SubRepo.Create(sub); err != nil {
		// 报名已置为已付款，订阅缺失需要人工补偿
		s.Logger.Error("创建订阅失败",
			zap.Uint("enrollmentId", enrollment.ID), zap.Error(err))
		return nil, err
	}

	s.Notifications.Notify(enrollment.UserID, model.NotificationEnrollmentApproved,
		"报名审核通过",
		fmt.Sprintf("您的课程报名已通过，订阅有效期至 %s", sub.EndDate.Format(util.DateFormat)),
		enrollment.ID)

	return enrollment, nil
}

// Reject 管理员驳回报名，不开通任何订阅
func (s *EnrollmentService) Reject(enrollmentID uint, reason string) (*model.Enrollment, error) {
	enrollment, err := s.EnrollmentRepo.FindByID(enrollmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrEnrollmentNotFound
		}
		return nil, err
	}
	if enrollment.PaymentStatus.Final() {
		return nil, util.ErrPaymentFinalized
	}

	enrollment.PaymentStatus = model.PaymentRejected
	if err := s.EnrollmentRepo.Update(enrollment); err != nil {
		return nil, err
	}

	message := "您的课程报名未通过审核"
	if reason != "" {
		message = message + "：" + reason
	}
	s.Notifications.Notify(enrollment.UserID, model.NotificationEnrollmentRejected,
		"报名被驳回", message, enrollment.ID)

	return enrollment, nil
}
