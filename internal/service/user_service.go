package service

import (
	"errors"

	"online_course_backend/internal/model"
	"online_course_backend/internal/repository"
	"online_course_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{UserRepo: userRepo}
}

func (s *UserService) GetUser(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

func (s *UserService) List(page, limit int, role, keyword string) ([]model.User, int64, error) {
	return s.UserRepo.List(page, limit, role, keyword)
}

type UpdateProfileRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

func (s *UserService) UpdateProfile(id uint, req UpdateProfileRequest) (*model.User, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}
	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

func (s *UserService) ChangePassword(id uint, req ChangePasswordRequest) error {
	user, err := s.GetUser(id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		return errors.New("旧密码不正确")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashed)
	return s.UserRepo.Update(user)
}

// SetRole 管理员调整用户角色
func (s *UserService) SetRole(id uint, role model.UserRole) (*model.User, error) {
	switch role {
	case model.Student, model.Instructor, model.Admin:
	default:
		return nil, errors.New("invalid role")
	}

	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}
	user.Role = role
	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetDisabled 封禁或解封账号。封禁不回收已签发的 token，
// 由登录时的 Disabled 检查和会话过期兜底
func (s *UserService) SetDisabled(id uint, disabled bool) (*model.User, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}
	user.Disabled = disabled
	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}
