package service

import (
	"context"
	"errors"
	"time"

	"online_course_backend/internal/config"
	"online_course_backend/internal/model"
	"online_course_backend/internal/repository"
	"online_course_backend/internal/util"
	"online_course_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SessionStore 登录会话存储。登录成功后保留新会话并挤掉同账号其他会话
type SessionStore interface {
	Create(ctx context.Context, sessionID string, userID uint, ttl time.Duration) error
	DeleteOthers(ctx context.Context, userID uint, exceptID string) (int64, error)
	Exists(ctx context.Context, sessionID string) (bool, error)
}

type AuthService struct {
	UserRepo *repository.UserRepository
	Sessions SessionStore
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, sessions SessionStore, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Sessions: sessions,
		Cfg:      cfg,
	}
}

func (s *AuthService) Register(user *model.User) error {
	_, err := s.UserRepo.FindByEmail(user.Email)
	if err == nil {
		return util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashedPassword)
	return s.UserRepo.Create(user)
}

// Login 校验密码后签发新会话。同账号其他会话被立即作废（单会话策略），
// 作废失败只记日志，不阻断本次登录
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.UserRepo.FindByEmail(email)
	if err != nil {
		return "", errors.New("invalid credentials")
	}

	if user.Disabled {
		return "", errors.New("account disabled")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", errors.New("invalid credentials")
	}

	sessionID := uuid.New().String()
	if err := s.Sessions.Create(ctx, sessionID, user.ID, s.Cfg.JWT.ExpireTime); err != nil {
		return "", err
	}

	s.EnforceSingleSession(ctx, user.ID, sessionID)

	if err := s.UserRepo.UpdateLastLogin(user.ID); err != nil {
		logger.Log.Warn("failed to update last login", zap.Uint("userId", user.ID), zap.Error(err))
	}

	return util.GenerateJWT(user, sessionID, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
}

// EnforceSingleSession 删除该账号除 keepSessionID 外的全部会话。
// 尽力而为：失败不影响登录结果，新会话仍然有效
func (s *AuthService) EnforceSingleSession(ctx context.Context, userID uint, keepSessionID string) {
	deleted, err := s.Sessions.DeleteOthers(ctx, userID, keepSessionID)
	if err != nil {
		logger.Log.Error("failed to invalidate other sessions",
			zap.Uint("userId", userID), zap.Error(err))
		return
	}
	if deleted > 0 {
		logger.Log.Info("invalidated concurrent sessions",
			zap.Uint("userId", userID), zap.Int64("count", deleted))
	}
}

func (s *AuthService) GetCurrentUser(c *gin.Context) *model.User {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		return nil
	}

	user, _ := s.UserRepo.FindByID(claims.UserID)
	return user
}
