package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
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

type LessonService struct {
	LessonRepo     *repository.LessonRepository
	EnrollmentRepo *repository.EnrollmentRepository
	SubRepo        *repository.SubscriptionRepository
	Storage        *StorageService
	Logger         *zap.Logger
	Now            func() time.Time
}

func NewLessonService(
	lessonRepo *repository.LessonRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	subRepo *repository.SubscriptionRepository,
	storage *StorageService,
	logger *zap.Logger,
) *LessonService {
	return &LessonService{
		LessonRepo:     lessonRepo,
		EnrollmentRepo: enrollmentRepo,
		SubRepo:        subRepo,
		Storage:        storage,
		Logger:         logger,
		Now:            time.Now,
	}
}

type LessonRequest struct {
	CourseID uint   `json:"courseId" binding:"required"`
	ModuleID *uint  `json:"moduleId"`
	Title    string `json:"title" binding:"required"`
	Content  string `json:"content"`
	IsDemo   bool   `json:"isDemo"`
	Order    int    `json:"order"`
}

func (s *LessonService) CreateLesson(req LessonRequest) (*model.Lesson, error) {
	lesson := &model.Lesson{
		CourseID: req.CourseID,
		ModuleID: req.ModuleID,
		Title:    req.Title,
		Content:  req.Content,
		IsDemo:   req.IsDemo,
		Order:    req.Order,
	}
	if err := s.LessonRepo.Create(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *LessonService) GetLesson(id uint) (*model.Lesson, error) {
	lesson, err := s.LessonRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrLessonNotFound
	}
	return lesson, err
}

func (s *LessonService) UpdateLesson(id uint, req LessonRequest) (*model.Lesson, error) {
	lesson, err := s.GetLesson(id)
	if err != nil {
		return nil, err
	}

	lesson.CourseID = req.CourseID
	lesson.ModuleID = req.ModuleID
	lesson.Title = req.Title
	lesson.Content = req.Content
	lesson.IsDemo = req.IsDemo
	lesson.Order = req.Order
	if err := s.LessonRepo.Update(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *LessonService) DeleteLesson(id uint) error {
	return s.LessonRepo.Delete(id)
}

func (s *LessonService) ListByCourse(courseID uint) ([]model.Lesson, error) {
	return s.LessonRepo.ListByCourse(courseID)
}

// LessonView 课时内容加访问判定。锁定时不下发正文与视频地址
type LessonView struct {
	ID            uint       `json:"id"`
	CourseID      uint       `json:"courseId"`
	ModuleID      *uint      `json:"moduleId,omitempty"`
	Title         string     `json:"title"`
	IsDemo        bool       `json:"isDemo"`
	Order         int        `json:"order"`
	ThumbnailURL  string     `json:"thumbnailUrl,omitempty"`
	Unlocked      bool       `json:"unlocked"`
	LockReason    LockReason `json:"lockReason,omitempty"`
	Content       string     `json:"content,omitempty"`
	VideoURL      string     `json:"videoUrl,omitempty"`
	VideoDuration float64    `json:"videoDuration,omitempty"`
}

// GetLessonForUser 按当前用户身份和订阅状态返回课时。
// 订阅是否有效只看 end_date 与当前时间，不信任缓存的状态字段
func (s *LessonService) GetLessonForUser(userID uint, role model.UserRole, lessonID uint) (*LessonView, error) {
	lesson, err := s.GetLesson(lessonID)
	if err != nil {
		return nil, err
	}

	var enrollment *model.Enrollment
	var sub *model.Subscription
	if userID != 0 {
		if e, err := s.EnrollmentRepo.FindByUserAndCourse(userID, lesson.CourseID); err == nil {
			enrollment = e
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if sb, err := s.SubRepo.FindLatestByUserAndCourse(userID, lesson.CourseID); err == nil {
			sub = sb
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	decision := ResolveLessonAccess(lesson, role, enrollment, sub, s.Now())

	view := &LessonView{
		ID:           lesson.ID,
		CourseID:     lesson.CourseID,
		ModuleID:     lesson.ModuleID,
		Title:        lesson.Title,
		IsDemo:       lesson.IsDemo,
		Order:        lesson.Order,
		ThumbnailURL: lesson.ThumbnailURL,
		Unlocked:     decision.Unlocked,
		LockReason:   decision.Reason,
	}
	if decision.Unlocked {
		view.Content = lesson.Content
		view.VideoURL = lesson.VideoURL
		view.VideoDuration = lesson.VideoDuration
	}
	return view, nil
}

// ListForUser 课程目录：每个课时都带解锁标记，目录本身对所有人可见
func (s *LessonService) ListForUser(userID uint, role model.UserRole, courseID uint) ([]LessonView, error) {
	lessons, err := s.LessonRepo.ListByCourse(courseID)
	if err != nil {
		return nil, err
	}

	var enrollment *model.Enrollment
	var sub *model.Subscription
	if userID != 0 {
		if e, err := s.EnrollmentRepo.FindByUserAndCourse(userID, courseID); err == nil {
			enrollment = e
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		if sb, err := s.SubRepo.FindLatestByUserAndCourse(userID, courseID); err == nil {
			sub = sb
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	now := s.Now()
	views := make([]LessonView, len(lessons))
	for i := range lessons {
		decision := ResolveLessonAccess(&lessons[i], role, enrollment, sub, now)
		views[i] = LessonView{
			ID:           lessons[i].ID,
			CourseID:     lessons[i].CourseID,
			ModuleID:     lessons[i].ModuleID,
			Title:        lessons[i].Title,
			IsDemo:       lessons[i].IsDemo,
			Order:        lessons[i].Order,
			ThumbnailURL: lessons[i].ThumbnailURL,
			Unlocked:     decision.Unlocked,
			LockReason:   decision.Reason,
		}
		if decision.Unlocked {
			views[i].VideoDuration = lessons[i].VideoDuration
		}
	}
	return views, nil
}

// ListDemo 课程的试读课时，无需任何身份即可拿到正文和视频
func (s *LessonService) ListDemo(courseID uint) ([]LessonView, error) {
	lessons, err := s.LessonRepo.ListDemoByCourse(courseID)
	if err != nil {
		return nil, err
	}

	views := make([]LessonView, len(lessons))
	for i := range lessons {
		views[i] = LessonView{
			ID:            lessons[i].ID,
			CourseID:      lessons[i].CourseID,
			ModuleID:      lessons[i].ModuleID,
			Title:         lessons[i].Title,
			IsDemo:        true,
			Order:         lessons[i].Order,
			ThumbnailURL:  lessons[i].ThumbnailURL,
			Unlocked:      true,
			Content:       lessons[i].Content,
			VideoURL:      lessons[i].VideoURL,
			VideoDuration: lessons[i].VideoDuration,
		}
	}
	return views, nil
}

// UploadVideo 上传课时视频并用 ffmpeg 探测时长
func (s *LessonService) UploadVideo(ctx context.Context, lessonID uint, file *multipart.FileHeader) (*model.Lesson, error) {
	lesson, err := s.GetLesson(lessonID)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed := false
	for _, e := range util.AllowedVideoExtensions {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("unsupported video format: %s", ext)
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	mimeType, err := util.ValidateMimeType(src, []string{util.MimeVideo, util.MimeOctetStream})
	if err != nil {
		return nil, err
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	// 先落临时文件，探测时长后再推送到存储
	tmp, err := os.CreateTemp("", "lesson-video-*"+ext)
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return nil, err
	}
	tmp.Close()

	if info, err := util.GetVideoInfo(tmpPath); err == nil {
		lesson.VideoDuration = info.Duration
	} else {
		s.Logger.Warn("获取视频时长失败", zap.Uint("lessonId", lessonID), zap.Error(err))
	}

	baseName := uuid.New().String()
	objectName := fmt.Sprintf("lessons/%d/%s%s", lessonID, baseName, ext)
	url, err := s.Storage.UploadFile(ctx, objectName, tmpPath, mimeType)
	if err != nil {
		return nil, err
	}

	// octet-stream 上传拿不到可靠的视频流，跳过缩略图
	if util.IsVideo(mimeType) {
		thumbPath := tmpPath + ".jpg"
		if err := util.GenerateThumbnail(tmpPath, thumbPath, "00:00:01"); err == nil {
			defer os.Remove(thumbPath)
			thumbObject := fmt.Sprintf("lessons/%d/%s.jpg", lessonID, baseName)
			if thumbURL, err := s.Storage.UploadFile(ctx, thumbObject, thumbPath, "image/jpeg"); err == nil {
				lesson.ThumbnailURL = thumbURL
			} else {
				s.Logger.Warn("上传缩略图失败", zap.Uint("lessonId", lessonID), zap.Error(err))
			}
		} else {
			s.Logger.Warn("生成缩略图失败", zap.Uint("lessonId", lessonID), zap.Error(err))
		}
	}

	lesson.VideoURL = url
	if err := s.LessonRepo.Update(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}
