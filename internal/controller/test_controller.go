package controller

import (
	"errors"
	"strconv"

	"online_course_backend/internal/service"
	"online_course_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type TestController struct {
	TestService *service.TestService
}

func NewTestController(testService *service.TestService) *TestController {
	return &TestController{TestService: testService}
}

// CreateTest godoc
// @Summary 创建测验
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.TestRequest true "测验信息"
// @Success 201 {object} util.Response{data=model.Test} "创建成功"
// @Router /api/instructor/tests [post]
func (c *TestController) CreateTest(ctx *gin.Context) {
	var req service.TestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	test, err := c.TestService.CreateTest(req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, test)
}

// GetTest godoc
// @Summary 测验详情
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测验ID"
// @Success 200 {object} util.Response{data=model.Test} "成功"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/tests/{id} [get]
func (c *TestController) GetTest(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	test, err := c.TestService.GetTest(id)
	if err != nil {
		if errors.Is(err, util.ErrTestNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, test)
}

// UpdateTest godoc
// @Summary 更新测验
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测验ID"
// @Param   body body service.TestRequest true "测验信息"
// @Success 200 {object} util.Response{data=model.Test} "成功"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/instructor/tests/{id} [put]
func (c *TestController) UpdateTest(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	var req service.TestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	test, err := c.TestService.UpdateTest(id, req)
	if err != nil {
		if errors.Is(err, util.ErrTestNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, test)
}

// DeleteTest godoc
// @Summary 删除测验
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测验ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/instructor/tests/{id} [delete]
func (c *TestController) DeleteTest(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if err := c.TestService.DeleteTest(id); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListByCourse godoc
// @Summary 课程测验列表
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=[]model.Test} "成功"
// @Router /api/courses/{id}/tests [get]
func (c *TestController) ListByCourse(ctx *gin.Context) {
	courseID := util.MustParseUint(ctx.Param("id"))
	tests, err := c.TestService.ListTestsByCourse(courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, tests)
}

// CreateQuestion godoc
// @Summary 创建题目
// @Description 创建题目，multiple_choice 题同时写入选项
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.QuestionRequest true "题目信息"
// @Success 201 {object} util.Response{data=model.Question} "创建成功"
// @Failure 400 {object} util.Response "题型不支持"
// @Router /api/instructor/questions [post]
func (c *TestController) CreateQuestion(ctx *gin.Context) {
	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.TestService.CreateQuestion(req)
	if err != nil {
		if errors.Is(err, util.ErrUnknownQuestionType) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, q)
}

// UpdateQuestion godoc
// @Summary 更新题目
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "题目ID"
// @Param   body body service.QuestionRequest true "题目信息"
// @Success 200 {object} util.Response{data=model.Question} "成功"
// @Router /api/instructor/questions/{id} [put]
func (c *TestController) UpdateQuestion(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q, err := c.TestService.UpdateQuestion(id, req)
	if err != nil {
		if errors.Is(err, util.ErrUnknownQuestionType) {
			util.BadRequest(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, q)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "题目ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/instructor/questions/{id} [delete]
func (c *TestController) DeleteQuestion(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if err := c.TestService.DeleteQuestion(id); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// ListQuestions godoc
// @Summary 测验题目（教师视角）
// @Description 含答案与选项正确性，仅教师和管理员可见
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测验ID"
// @Success 200 {object} util.Response{data=[]model.Question} "成功"
// @Router /api/instructor/tests/{id}/questions [get]
func (c *TestController) ListQuestions(ctx *gin.Context) {
	testID := util.MustParseUint(ctx.Param("id"))
	qs, err := c.TestService.ListQuestions(testID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, qs)
}

// ListStudentQuestions godoc
// @Summary 测验题目（学生视角）
// @Description 答题用题目列表，不含正确答案
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测验ID"
// @Success 200 {object} util.Response{data=[]service.StudentQuestion} "成功"
// @Router /api/tests/{id}/questions [get]
func (c *TestController) ListStudentQuestions(ctx *gin.Context) {
	testID := util.MustParseUint(ctx.Param("id"))
	qs, err := c.TestService.ListStudentQuestions(testID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, qs)
}

// SubmitTest godoc
// @Summary 提交答卷
// @Description 自动判分并生成一条不可变的答题记录
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测验ID"
// @Param   body body service.SubmitTestRequest true "答案，键为题目ID"
// @Success 200 {object} util.Response{data=service.SubmitResult} "判分结果"
// @Failure 400 {object} util.Response "答案格式错误"
// @Failure 404 {object} util.Response "测验不存在"
// @Router /api/tests/{id}/submit [post]
func (c *TestController) SubmitTest(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	testID := util.MustParseUint(ctx.Param("id"))

	var req service.SubmitTestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.TestService.SubmitTest(claims.UserID, testID, req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrTestNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrInvalidAnswerShape), errors.Is(err, util.ErrUnknownQuestionType):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}

// ListAttempts godoc
// @Summary 测验作答列表（教师）
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测验ID"
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/instructor/tests/{id}/attempts [get]
func (c *TestController) ListAttempts(ctx *gin.Context) {
	testID := util.MustParseUint(ctx.Param("id"))
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	attempts, total, err := c.TestService.ListAttempts(testID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: attempts, Total: total, Page: page, Limit: limit})
}

// GetMyResults godoc
// @Summary 我的答题记录
// @Description 历次作答及最好最差成绩，百分比按各次作答当时的总分换算
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "测验ID"
// @Success 200 {object} util.Response{data=service.AttemptSummary} "成功"
// @Router /api/tests/{id}/results [get]
func (c *TestController) GetMyResults(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	testID := util.MustParseUint(ctx.Param("id"))
	summary, err := c.TestService.GetMyResults(claims.UserID, testID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}
