package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"online_course_backend/internal/config"
	"online_course_backend/internal/controller"
	"online_course_backend/internal/repository"
	"online_course_backend/internal/service"
	"online_course_backend/internal/util"
	"online_course_backend/pkg/configwatcher"
	"online_course_backend/pkg/database"
	"online_course_backend/pkg/logger"
	"online_course_backend/pkg/monitoring"
	"online_course_backend/pkg/security"
	"online_course_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user         *repository.UserRepository
	course       *repository.CourseRepository
	lesson       *repository.LessonRepository
	test         *repository.TestRepository
	attempt      *repository.AttemptRepository
	enrollment   *repository.EnrollmentRepository
	subscription *repository.SubscriptionRepository
	notification *repository.NotificationRepository
	session      *repository.SessionRepository
}

type services struct {
	auth         *service.AuthService
	user         *service.UserService
	storage      *service.StorageService
	course       *service.CourseService
	lesson       *service.LessonService
	test         *service.TestService
	enrollment   *service.EnrollmentService
	subscription *service.SubscriptionService
	notification *service.NotificationService
	lifecycle    *service.SubscriptionLifecycle
}

type controllers struct {
	auth         *controller.AuthController
	user         *controller.UserController
	course       *controller.CourseController
	lesson       *controller.LessonController
	test         *controller.TestController
	enrollment   *controller.EnrollmentController
	subscription *controller.SubscriptionController
	notification *controller.NotificationController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:         repository.NewUserRepository(db),
		course:       repository.NewCourseRepository(db),
		lesson:       repository.NewLessonRepository(db),
		test:         repository.NewTestRepository(db),
		attempt:      repository.NewAttemptRepository(db),
		enrollment:   repository.NewEnrollmentRepository(db),
		subscription: repository.NewSubscriptionRepository(db),
		notification: repository.NewNotificationRepository(db),
		session:      repository.NewSessionRepository(rdb),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, repos.session, cfg)
	s.user = service.NewUserService(repos.user)
	s.course = service.NewCourseService(repos.course, rdb, logger.Log)
	s.notification = service.NewNotificationService(repos.notification)
	s.lesson = service.NewLessonService(repos.lesson, repos.enrollment, repos.subscription, s.storage, logger.Log)
	s.test = service.NewTestService(repos.test, repos.attempt)
	s.enrollment = service.NewEnrollmentService(repos.enrollment, repos.course, repos.subscription, s.notification, s.storage, logger.Log)
	s.subscription = service.NewSubscriptionService(repos.subscription)
	s.lifecycle = service.NewSubscriptionLifecycle(repos.subscription, s.notification)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:         controller.NewAuthController(s.auth),
		user:         controller.NewUserController(s.user),
		course:       controller.NewCourseController(s.course),
		lesson:       controller.NewLessonController(s.lesson),
		test:         controller.NewTestController(s.test),
		enrollment:   controller.NewEnrollmentController(s.enrollment),
		subscription: controller.NewSubscriptionController(s.subscription, s.lifecycle),
		notification: controller.NewNotificationController(s.notification),
		health:       controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 100000
	}
	windowMinutes := cfg.RateLimit.WindowMinutes
	if windowMinutes <= 0 {
		windowMinutes = 1
	}
	router.Use(security.RateLimiter(maxRequests, time.Duration(windowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services) {
	s.lifecycle.Start(time.Duration(a.Config.Scheduler.IntervalHours) * time.Hour)

	// 调度间隔变化时重启生命周期任务
	intervalHours := a.Config.Scheduler.IntervalHours
	a.RegisterConfigCallback(func(cfg *config.Config) {
		if cfg.Scheduler.IntervalHours <= 0 || cfg.Scheduler.IntervalHours == intervalHours {
			return
		}
		intervalHours = cfg.Scheduler.IntervalHours
		s.lifecycle.Stop()
		s.lifecycle.Start(time.Duration(intervalHours) * time.Hour)
		logger.Log.Info("订阅生命周期调度间隔已更新", zap.Int("intervalHours", intervalHours))
	})

	// 配置热更新：配置文件变动时通知已注册的回调
	go configwatcher.WatchConfig("configs/config.yaml", a.Config, func(newCfg interface{}) {
		cfg, ok := newCfg.(*config.Config)
		if !ok {
			return
		}
		logger.Log.Info("config reloaded")
		for _, callback := range a.configCallbacks {
			callback(cfg)
		}
	})
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, rdb)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("course-platform", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
			}
		}()
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
		router.Static("/api/uploads", cfg.Storage.LocalPath)
	}

	app.startBackgroundTasks(services)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 停止订阅巡检，等待当前轮结束
	if a.services != nil && a.services.lifecycle != nil {
		a.services.lifecycle.Stop()
	}

	// 关闭服务
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
