package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ScarletStudies/api/config"
	"github.com/ScarletStudies/api/controllers"
	"github.com/ScarletStudies/api/middleware"
	"github.com/ScarletStudies/api/tasks"
	"github.com/ScarletStudies/api/tokens"
	"github.com/ScarletStudies/api/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.Config, db *gorm.DB, tm *tokens.Manager, queue tasks.Queue, cache *utils.Cache) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewLogger(utils.LogConfig{
		Level:      cfg.LogLevel,
		Path:       cfg.GinPath,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	userController := controllers.NewUserController(db, cfg, tm, queue)
	postController := controllers.NewPostController(db, cfg)
	catalogController := controllers.NewCatalogController(db, cache)

	authRequired := middleware.AuthRequired(tm)

	// reference data reads are public
	coursesGroup := r.Group("/courses")
	coursesGroup.GET("", catalogController.ListCourses)
	coursesGroup.GET("/:id", catalogController.GetCourse)

	r.GET("/categories", catalogController.ListCategories)

	semestersGroup := r.Group("/semesters")
	semestersGroup.GET("", catalogController.ListSemesters)
	semestersGroup.GET("/current", catalogController.CurrentSemester)

	postsGroup := r.Group("/posts")
	postsGroup.Use(authRequired)
	postsGroup.GET("", postController.ListPosts)
	postsGroup.POST("", postController.CreatePost)
	postsGroup.GET("/:id", postController.GetPost)
	postsGroup.DELETE("/:id", postController.DeletePost)
	postsGroup.POST("/:id/comments", postController.CreateComment)
	postsGroup.DELETE("/:id/comments/:cid", postController.DeleteComment)
	postsGroup.POST("/:id/cheers", postController.Cheer)

	usersGroup := r.Group("/users")

	preAuth := usersGroup.Group("")
	preAuth.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerMinute))
	preAuth.POST("/login", userController.Login)
	preAuth.POST("/login/magic", userController.MagicLogin)
	preAuth.POST("/register", userController.Register)
	preAuth.POST("/register/resend", userController.ResendVerification)
	preAuth.POST("/register/verify", userController.Verify)
	preAuth.POST("/refresh", userController.Refresh)
	preAuth.POST("/password/forgot", userController.ForgotPassword)

	protected := usersGroup.Group("")
	protected.Use(authRequired)
	protected.POST("/password/change", userController.ChangePassword)
	protected.POST("/remove", userController.Remove)
	protected.GET("/courses", userController.ListCourses)
	protected.POST("/courses/:id", userController.AddCourse)
	protected.DELETE("/courses/:id", userController.RemoveCourse)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
