package app

import (
	"training_hub_backend/docs"
	"training_hub_backend/internal/config"
	"training_hub_backend/internal/middleware"
	"training_hub_backend/internal/model"
	"training_hub_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerUserRoutes(authGroup, c)
	}

	// 3. 管理员相关接口
	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.Check)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerUserRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.GET("/profile", c.auth.GetProfile)

	// 课程与课时
	rg.GET("/courses", c.course.ListCourses)
	rg.GET("/courses/:id", c.course.GetCourse)
	rg.GET("/courses/:id/progress", c.progress.GetCourseProgress)

	// 课时测验与完成
	rg.GET("/lessons/:id/quiz", c.quiz.GetLessonQuiz)
	rg.POST("/lessons/:id/quiz/submit", c.quiz.SubmitQuiz)
	rg.POST("/lessons/:id/complete", c.progress.CompleteLesson)
	rg.GET("/quiz-attempts", c.quiz.ListAttempts)

	// 必修门槛与服务目录
	rg.GET("/mandatory-courses", c.progress.GetMandatoryCourses)
	rg.GET("/services", c.catalog.ListServices)
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.RoleAdmin))
	{
		// 课程管理
		admin.POST("/courses", c.course.CreateCourse)
		admin.PUT("/courses/:id", c.course.UpdateCourse)
		admin.DELETE("/courses/:id", c.course.DeleteCourse)
		admin.POST("/courses/:id/cover", c.course.UploadCover)

		// 课时管理
		admin.POST("/lessons", c.course.CreateLesson)
		admin.PUT("/lessons/:id", c.course.UpdateLesson)
		admin.DELETE("/lessons/:id", c.course.DeleteLesson)

		// 测验管理
		admin.POST("/quizzes", c.quiz.CreateQuiz)
		admin.PUT("/quizzes/:id", c.quiz.UpdateQuiz)
		admin.DELETE("/quizzes/:id", c.quiz.DeleteQuiz)
		admin.POST("/quizzes/:id/questions", c.quiz.AddQuestion)
		admin.PUT("/questions/:id", c.quiz.UpdateQuestion)
		admin.DELETE("/questions/:id", c.quiz.DeleteQuestion)

		// 必修课指派
		admin.POST("/mandatory-courses", c.progress.AssignMandatoryCourse)
		admin.GET("/mandatory-courses", c.progress.ListMandatoryAssignments)

		// AI 服务目录管理
		admin.POST("/services", c.catalog.CreateService)
		admin.PUT("/services/:id", c.catalog.UpdateService)
		admin.DELETE("/services/:id", c.catalog.DeleteService)

		// 用户管理
		admin.GET("/users", c.user.ListUsers)
		admin.POST("/users", c.user.CreateUser)
		admin.PATCH("/users/:id/role", c.user.UpdateRole)
	}
}
