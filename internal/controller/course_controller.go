package controller

import (
	"errors"
	"strconv"

	"online_course_backend/internal/service"
	"online_course_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
}

func NewCourseController(courseService *service.CourseService) *CourseController {
	return &CourseController{CourseService: courseService}
}

// ListPublished godoc
// @Summary 课程目录
// @Description 公开的已发布课程列表，无需登录
// @Tags 课程
// @Produce  json
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=service.CatalogPage} "成功"
// @Router /api/courses [get]
func (c *CourseController) ListPublished(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	catalog, err := c.CourseService.ListPublished(ctx.Request.Context(), page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, catalog)
}

// GetCourse godoc
// @Summary 课程详情
// @Tags 课程
// @Produce  json
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	course, err := c.CourseService.GetCourse(id)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, course)
}

// CreateCourse godoc
// @Summary 创建课程
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.CourseRequest true "课程信息"
// @Success 201 {object} util.Response{data=model.Course} "创建成功"
// @Router /api/instructor/courses [post]
func (c *CourseController) CreateCourse(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.CreateCourse(claims.UserID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// UpdateCourse godoc
// @Summary 更新课程
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Param   body body service.CourseRequest true "课程信息"
// @Success 200 {object} util.Response{data=model.Course} "成功"
// @Failure 404 {object} util.Response "课程不存在"
// @Router /api/instructor/courses/{id} [put]
func (c *CourseController) UpdateCourse(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	var req service.CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.UpdateCourse(id, req)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, course)
}

// DeleteCourse godoc
// @Summary 删除课程
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/instructor/courses/{id} [delete]
func (c *CourseController) DeleteCourse(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if err := c.CourseService.DeleteCourse(id); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListMine godoc
// @Summary 我的课程
// @Description 教师名下的全部课程，含未发布的
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Course} "成功"
// @Router /api/instructor/courses [get]
func (c *CourseController) ListMine(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	courses, err := c.CourseService.ListByInstructor(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, courses)
}

// ListModules godoc
// @Summary 课程章节列表
// @Tags 课程
// @Produce  json
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.CourseModule} "成功"
// @Router /api/courses/{id}/modules [get]
func (c *CourseController) ListModules(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("id"))
	modules, err := c.CourseService.ListModules(courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, modules)
}

// CreateModule godoc
// @Summary 创建课程章节
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.ModuleRequest true "章节信息"
// @Success 201 {object} util.Response{data=model.CourseModule} "创建成功"
// @Router /api/instructor/modules [post]
func (c *CourseController) CreateModule(ctx *gin.Context) {
	var req service.ModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	m, err := c.CourseService.CreateModule(req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, m)
}

// UpdateModule godoc
// @Summary 更新课程章节
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "章节ID"
// @Param   body body service.ModuleRequest true "章节信息"
// @Success 200 {object} util.Response{data=model.CourseModule} "成功"
// @Router /api/instructor/modules/{id} [put]
func (c *CourseController) UpdateModule(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	var req service.ModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	m, err := c.CourseService.UpdateModule(id, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, m)
}

// DeleteModule godoc
// @Summary 删除课程章节
// @Tags 课程
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "章节ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/instructor/modules/{id} [delete]
func (c *CourseController) DeleteModule(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if err := c.CourseService.DeleteModule(id); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListPlans godoc
// @Summary 课程订阅套餐
// @Tags 课程
// @Produce  json
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.Plan} "成功"
// @Router /api/courses/{id}/plans [get]
func (c *CourseController) ListPlans(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("id"))
	plans, err := c.CourseService.ListPlans(courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, plans)
}

// CreatePlan godoc
// @Summary 创建订阅套餐
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.PlanRequest true "套餐信息"
// @Success 201 {object} util.Response{data=model.Plan} "创建成功"
// @Router /api/instructor/plans [post]
func (c *CourseController) CreatePlan(ctx *gin.Context) {
	var req service.PlanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	p, err := c.CourseService.CreatePlan(req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, p)
}

// UpdatePlan godoc
// @Summary 更新订阅套餐
// @Tags 课程
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "套餐ID"
// @Param   body body service.PlanRequest true "套餐信息"
// @Success 200 {object} util.Response{data=model.Plan} "成功"
// @Failure 404 {object} util.Response "套餐不存在"
// @Router /api/instructor/plans/{id} [put]
func (c *CourseController) UpdatePlan(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	var req service.PlanRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	p, err := c.CourseService.UpdatePlan(id, req)
	if err != nil {
		if errors.Is(err, util.ErrPlanNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, p)
}
