package controller

import (
	"errors"
	"net/http"

	"online_course_backend/internal/model"
	"online_course_backend/internal/service"
	"online_course_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LessonController struct {
	LessonService *service.LessonService
}

func NewLessonController(lessonService *service.LessonService) *LessonController {
	return &LessonController{LessonService: lessonService}
}

// 未登录请求按匿名访客处理，只有 demo 课时可见
func currentIdentity(ctx *gin.Context) (uint, model.UserRole) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		return 0, ""
	}
	return claims.UserID, claims.Role
}

// GetLesson godoc
// @Summary 课时内容
// @Description 返回课时及访问判定。无权访问时返回 403 和机器可读的锁定原因
// @Tags 课时
// @Produce  json
// @Param   id path int true "课时ID"
// @Success 200 {object} util.Response{data=service.LessonView} "成功"
// @Failure 403 {object} util.Response{data=object} "课时锁定"
// @Failure 404 {object} util.Response "课时不存在"
// @Router /api/lessons/{id} [get]
func (c *LessonController) GetLesson(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	userID, role := currentIdentity(ctx)

	view, err := c.LessonService.GetLessonForUser(userID, role, id)
	if err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	if !view.Unlocked {
		util.ErrorData(ctx, http.StatusForbidden, "课时未解锁", gin.H{
			"lockReason": view.LockReason,
		})
		return
	}
	util.Success(ctx, view)
}

// ListByCourse godoc
// @Summary 课程课时目录
// @Description 目录对所有人可见，每个课时带解锁标记，锁定课时不含正文
// @Tags 课时
// @Produce  json
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=[]service.LessonView} "成功"
// @Router /api/courses/{id}/lessons [get]
func (c *LessonController) ListByCourse(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("id"))
	userID, role := currentIdentity(ctx)

	views, err := c.LessonService.ListForUser(userID, role, courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, views)
}

// ListDemoByCourse godoc
// @Summary 课程试读课时
// @Description 试读课时对所有人开放，含正文与视频地址
// @Tags 课时
// @Produce  json
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=[]service.LessonView} "成功"
// @Router /api/courses/{id}/lessons/demo [get]
func (c *LessonController) ListDemoByCourse(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("id"))

	views, err := c.LessonService.ListDemo(courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, views)
}

// CreateLesson godoc
// @Summary 创建课时
// @Tags 课时
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.LessonRequest true "课时信息"
// @Success 201 {object} util.Response{data=model.Lesson} "创建成功"
// @Router /api/instructor/lessons [post]
func (c *LessonController) CreateLesson(ctx *gin.Context) {
	var req service.LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson, err := c.LessonService.CreateLesson(req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, lesson)
}

// UpdateLesson godoc
// @Summary 更新课时
// @Tags 课时
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课时ID"
// @Param   body body service.LessonRequest true "课时信息"
// @Success 200 {object} util.Response{data=model.Lesson} "成功"
// @Failure 404 {object} util.Response "课时不存在"
// @Router /api/instructor/lessons/{id} [put]
func (c *LessonController) UpdateLesson(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	var req service.LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson, err := c.LessonService.UpdateLesson(id, req)
	if err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, lesson)
}

// DeleteLesson godoc
// @Summary 删除课时
// @Tags 课时
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课时ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/instructor/lessons/{id} [delete]
func (c *LessonController) DeleteLesson(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if err := c.LessonService.DeleteLesson(id); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// UploadVideo godoc
// @Summary 上传课时视频
// @Description 上传视频文件并自动探测时长
// @Tags 课时
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课时ID"
// @Param   video formData file true "视频文件"
// @Success 200 {object} util.Response{data=model.Lesson} "成功"
// @Failure 400 {object} util.Response "文件格式不支持"
// @Router /api/instructor/lessons/{id}/video [post]
func (c *LessonController) UploadVideo(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	file, err := ctx.FormFile("video")
	if err != nil {
		util.BadRequest(ctx, "缺少视频文件")
		return
	}

	lesson, err := c.LessonService.UploadVideo(ctx.Request.Context(), id, file)
	if err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
		} else {
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, lesson)
}
