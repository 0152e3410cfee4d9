package app

import (
	"online_course_backend/docs"
	"online_course_backend/internal/config"
	"online_course_backend/internal/middleware"
	"online_course_backend/internal/model"
	"online_course_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c, repos, cfg)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg, repos.session), middleware.ActivityMiddleware(repos.user))
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerInstructorRoutes(authGroup, c)
		a.registerAdminRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)

		// 支付渠道回调，由渠道侧签名机制保护
		public.POST("/payments/callback/:id", c.enrollment.PaymentCallback)
	}

	// 目录类接口：游客可浏览，登录用户能看到自己的解锁状态
	catalog := router.Group("/api")
	catalog.Use(middleware.OptionalAuthMiddleware(cfg, repos.session))
	{
		catalog.GET("/courses", c.course.ListPublished)
		catalog.GET("/courses/:id", c.course.GetCourse)
		catalog.GET("/courses/:id/modules", c.course.ListModules)
		catalog.GET("/courses/:id/plans", c.course.ListPlans)
		catalog.GET("/courses/:id/lessons", c.lesson.ListByCourse)
		catalog.GET("/courses/:id/lessons/demo", c.lesson.ListDemoByCourse)
		catalog.GET("/lessons/:id", c.lesson.GetLesson)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)
	rg.PUT("/profile", c.user.UpdateProfile)
	rg.PUT("/profile/password", c.user.ChangePassword)

	// 报名与订阅
	rg.POST("/enrollments", c.enrollment.Enroll)
	rg.GET("/enrollments/mine", c.enrollment.ListMine)
	rg.POST("/enrollments/:id/proof", c.enrollment.UploadPaymentProof)
	rg.GET("/courses/:id/subscription", c.subscription.MyCourseSubscription)

	// 测验
	rg.GET("/tests/:id", c.test.GetTest)
	rg.GET("/tests/:id/questions", c.test.ListStudentQuestions)
	rg.POST("/tests/:id/submit", c.test.SubmitTest)
	rg.GET("/tests/:id/results", c.test.GetMyResults)
	rg.GET("/courses/:id/tests", c.test.ListByCourse)

	// 通知
	rg.GET("/notifications", c.notification.List)
	rg.PUT("/notifications/:id/read", c.notification.MarkRead)
	rg.GET("/notifications/unread-count", c.notification.UnreadCount)
}

func (a *App) registerInstructorRoutes(rg *gin.RouterGroup, c *controllers) {
	instructor := rg.Group("/instructor")
	instructor.Use(middleware.RoleMiddleware(model.Instructor))
	{
		// 课程
		instructor.GET("/courses", c.course.ListMine)
		instructor.POST("/courses", c.course.CreateCourse)
		instructor.PUT("/courses/:id", c.course.UpdateCourse)
		instructor.DELETE("/courses/:id", c.course.DeleteCourse)

		// 章节
		instructor.POST("/modules", c.course.CreateModule)
		instructor.PUT("/modules/:id", c.course.UpdateModule)
		instructor.DELETE("/modules/:id", c.course.DeleteModule)

		// 套餐
		instructor.POST("/plans", c.course.CreatePlan)
		instructor.PUT("/plans/:id", c.course.UpdatePlan)

		// 课时
		instructor.POST("/lessons", c.lesson.CreateLesson)
		instructor.PUT("/lessons/:id", c.lesson.UpdateLesson)
		instructor.DELETE("/lessons/:id", c.lesson.DeleteLesson)
		instructor.POST("/lessons/:id/video", c.lesson.UploadVideo)

		// 测验与题库
		instructor.POST("/tests", c.test.CreateTest)
		instructor.PUT("/tests/:id", c.test.UpdateTest)
		instructor.DELETE("/tests/:id", c.test.DeleteTest)
		instructor.GET("/tests/:id/questions", c.test.ListQuestions)
		instructor.GET("/tests/:id/attempts", c.test.ListAttempts)
		instructor.POST("/questions", c.test.CreateQuestion)
		instructor.PUT("/questions/:id", c.test.UpdateQuestion)
		instructor.DELETE("/questions/:id", c.test.DeleteQuestion)
	}
}

func (a *App) registerAdminRoutes(rg *gin.RouterGroup, c *controllers) {
	admin := rg.Group("/admin")
	admin.Use(middleware.RoleMiddleware(model.Admin))
	{
		// 用户管理
		admin.GET("/users", c.user.ListUsers)
		admin.PUT("/users/:id/role", c.user.SetRole)
		admin.PUT("/users/:id/disabled", c.user.SetDisabled)

		// 报名审核
		admin.GET("/enrollments", c.enrollment.List)
		admin.POST("/enrollments/:id/approve", c.enrollment.Approve)
		admin.POST("/enrollments/:id/reject", c.enrollment.Reject)

		// 订阅管理
		admin.GET("/subscriptions", c.subscription.List)
		admin.POST("/subscriptions", c.subscription.Grant)
		admin.POST("/subscriptions/:id/extend", c.subscription.Extend)
		admin.POST("/subscriptions/lifecycle/run", c.subscription.RunLifecyclePass)
	}
}
