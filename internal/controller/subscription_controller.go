package controller

import (
	"errors"
	"strconv"

	"online_course_backend/internal/service"
	"online_course_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SubscriptionController struct {
	SubscriptionService *service.SubscriptionService
	Lifecycle           *service.SubscriptionLifecycle
}

func NewSubscriptionController(subService *service.SubscriptionService, lifecycle *service.SubscriptionLifecycle) *SubscriptionController {
	return &SubscriptionController{
		SubscriptionService: subService,
		Lifecycle:           lifecycle,
	}
}

// Grant godoc
// @Summary 手工开通订阅
// @Description 管理员绕过报名流程直接开通订阅
// @Tags 订阅
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.GrantSubscriptionRequest true "订阅信息"
// @Success 201 {object} util.Response{data=model.Subscription} "创建成功"
// @Router /api/admin/subscriptions [post]
func (c *SubscriptionController) Grant(ctx *gin.Context) {
	var req service.GrantSubscriptionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sub, err := c.SubscriptionService.Grant(req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, sub)
}

// List godoc
// @Summary 订阅列表（管理员）
// @Tags 订阅
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页数量" default(20)
// @Param   status query string false "按状态过滤"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/admin/subscriptions [get]
func (c *SubscriptionController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	status := ctx.Query("status")

	subs, total, err := c.SubscriptionService.List(page, limit, status)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: subs, Total: total, Page: page, Limit: limit})
}

type ExtendRequest struct {
	Days int `json:"days" binding:"required,gt=0"`
}

// Extend godoc
// @Summary 延长订阅
// @Description 有效订阅在原到期日上顺延，已过期订阅从当前时间重新起算
// @Tags 订阅
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "订阅ID"
// @Param   body body ExtendRequest true "延长天数"
// @Success 200 {object} util.Response{data=model.Subscription} "成功"
// @Failure 404 {object} util.Response "订阅不存在"
// @Router /api/admin/subscriptions/{id}/extend [post]
func (c *SubscriptionController) Extend(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))

	var req ExtendRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sub, err := c.SubscriptionService.Extend(id, req.Days)
	if err != nil {
		if errors.Is(err, util.ErrSubscriptionNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, sub)
}

// MyCourseSubscription godoc
// @Summary 我的课程订阅
// @Description 查询当前用户在某课程下最近的订阅及剩余天数
// @Tags 订阅
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "课程ID"
// @Success 200 {object} util.Response{data=service.SubscriptionView} "成功"
// @Failure 404 {object} util.Response "没有订阅"
// @Router /api/courses/{id}/subscription [get]
func (c *SubscriptionController) MyCourseSubscription(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	courseID := util.MustParseUint(ctx.Param("id"))
	view, err := c.SubscriptionService.MyCourseSubscription(claims.UserID, courseID)
	if err != nil {
		if errors.Is(err, util.ErrSubscriptionNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, view)
}

// RunLifecyclePass godoc
// @Summary 立即执行一次订阅巡检
// @Description 手动触发到期处理和临期提醒，返回本次处理数量
// @Tags 订阅
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.PassResult} "成功"
// @Router /api/admin/subscriptions/lifecycle/run [post]
func (c *SubscriptionController) RunLifecyclePass(ctx *gin.Context) {
	result, err := c.Lifecycle.RunPass()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
