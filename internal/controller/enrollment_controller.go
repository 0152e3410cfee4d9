package controller

import (
	"errors"
	"net/http"
	"strconv"

	"online_course_backend/internal/service"
	"online_course_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	EnrollmentService *service.EnrollmentService
}

func NewEnrollmentController(enrollmentService *service.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{EnrollmentService: enrollmentService}
}

// Enroll godoc
// @Summary 报名课程
// @Description 选择套餐报名，同一课程只能报名一次
// @Tags 报名
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.EnrollRequest true "报名信息"
// @Success 201 {object} util.Response{data=model.Enrollment} "创建成功"
// @Failure 404 {object} util.Response "课程或套餐不存在"
// @Failure 409 {object} util.Response "已报名该课程"
// @Router /api/enrollments [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.EnrollRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	enrollment, err := c.EnrollmentService.Enroll(claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCourseNotFound), errors.Is(err, util.ErrPlanNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrAlreadyEnrolled):
			util.Error(ctx, http.StatusConflict, "已报名该课程")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, enrollment)
}

// UploadPaymentProof godoc
// @Summary 上传付款凭证
// @Description 上传转账截图或 PDF，等待管理员审核
// @Tags 报名
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "报名ID"
// @Param   proof formData file true "凭证文件"
// @Success 200 {object} util.Response{data=model.Enrollment} "成功"
// @Failure 400 {object} util.Response "文件类型不支持"
// @Failure 409 {object} util.Response "报名已到终态"
// @Router /api/enrollments/{id}/proof [post]
func (c *EnrollmentController) UploadPaymentProof(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id := util.MustParseUint(ctx.Param("id"))
	file, err := ctx.FormFile("proof")
	if err != nil {
		util.BadRequest(ctx, "缺少凭证文件")
		return
	}

	enrollment, err := c.EnrollmentService.UploadPaymentProof(ctx.Request.Context(), claims.UserID, id, file)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrEnrollmentNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		case errors.Is(err, util.ErrPaymentFinalized):
			util.Error(ctx, http.StatusConflict, "报名状态已不可更改")
		default:
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, enrollment)
}

// ListMine godoc
// @Summary 我的报名记录
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.Enrollment} "成功"
// @Router /api/enrollments/mine [get]
func (c *EnrollmentController) ListMine(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	list, err := c.EnrollmentService.ListMine(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// List godoc
// @Summary 报名列表（管理员）
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页数量" default(20)
// @Param   status query string false "按付款状态过滤"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/admin/enrollments [get]
func (c *EnrollmentController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	status := ctx.Query("status")

	list, total, err := c.EnrollmentService.List(page, limit, status)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: list, Total: total, Page: page, Limit: limit})
}

// Approve godoc
// @Summary 审核通过报名
// @Description 报名置为 approved，按套餐时长开通订阅并通知学生
// @Tags 报名
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "报名ID"
// @Success 200 {object} util.Response{data=model.Enrollment} "成功"
// @Failure 409 {object} util.Response "报名已到终态"
// @Router /api/admin/enrollments/{id}/approve [post]
func (c *EnrollmentController) Approve(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	enrollment, err := c.EnrollmentService.Approve(id)
	if err != nil {
		c.settleError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

// Reject godoc
// @Summary 驳回报名
// @Tags 报名
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "报名ID"
// @Param   body body RejectRequest false "驳回原因"
// @Success 200 {object} util.Response{data=model.Enrollment} "成功"
// @Failure 409 {object} util.Response "报名已到终态"
// @Router /api/admin/enrollments/{id}/reject [post]
func (c *EnrollmentController) Reject(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	var req RejectRequest
	_ = ctx.ShouldBindJSON(&req)

	enrollment, err := c.EnrollmentService.Reject(id, req.Reason)
	if err != nil {
		c.settleError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

// PaymentCallback godoc
// @Summary 支付渠道回调
// @Description 外部支付渠道确认到账后调用，效果等同人工审核通过
// @Tags 报名
// @Produce  json
// @Param   id path int true "报名ID"
// @Success 200 {object} util.Response{data=model.Enrollment} "成功"
// @Failure 409 {object} util.Response "报名已到终态"
// @Router /api/payments/callback/{id} [post]
func (c *EnrollmentController) PaymentCallback(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	enrollment, err := c.EnrollmentService.ConfirmPayment(id)
	if err != nil {
		c.settleError(ctx, err)
		return
	}
	util.Success(ctx, enrollment)
}

func (c *EnrollmentController) settleError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrEnrollmentNotFound), errors.Is(err, util.ErrPlanNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPaymentFinalized):
		util.Error(ctx, http.StatusConflict, "报名状态已不可更改")
	default:
		util.LogInternalError(ctx, err)
	}
}
