package service

import (
	"online_course_backend/internal/model"
	"online_course_backend/internal/repository"
	"online_course_backend/pkg/logger"

	"go.uber.org/zap"
)

type NotificationService struct {
	Repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{Repo: repo}
}

// Notify fire-and-forget：写入失败只记日志，调用方流程不受影响
func (s *NotificationService) Notify(userID uint, kind, title, message string, relatedID uint) {
	n := &model.Notification{
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Message:   message,
		RelatedID: relatedID,
	}
	if err := s.Repo.Create(n); err != nil {
		logger.Log.Error("failed to deliver notification",
			zap.Uint("userId", userID), zap.String("kind", kind), zap.Error(err))
	}
}

func (s *NotificationService) ListForUser(userID uint, page, limit int) ([]model.Notification, int64, error) {
	return s.Repo.ListByUser(userID, page, limit)
}

func (s *NotificationService) MarkRead(userID, id uint) error {
	return s.Repo.MarkRead(userID, id)
}

func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	return s.Repo.CountUnread(userID)
}
