package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/pathshala-plus/pathshala-api/api/swagger"
	"github.com/pathshala-plus/pathshala-api/internal/handler"
	"github.com/pathshala-plus/pathshala-api/internal/middleware"
	"github.com/pathshala-plus/pathshala-api/internal/models"
	"github.com/pathshala-plus/pathshala-api/internal/repository"
	"github.com/pathshala-plus/pathshala-api/internal/service"
	"github.com/pathshala-plus/pathshala-api/pkg/cache"
	"github.com/pathshala-plus/pathshala-api/pkg/config"
	"github.com/pathshala-plus/pathshala-api/pkg/database"
	"github.com/pathshala-plus/pathshala-api/pkg/logger"
	corsmiddleware "github.com/pathshala-plus/pathshala-api/pkg/middleware/cors"
	reqidmiddleware "github.com/pathshala-plus/pathshala-api/pkg/middleware/requestid"
)

// @title Pathshala+ API
// @version 1.0.0
// @description School portal backend: sessions, admissions, posts and submissions
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Feed caching is an optimisation; the portal stays up without it.
		logr.Sugar().Warnw("redis unavailable, feed cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	teacherRepo := repository.NewTeacherRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	postRepo := repository.NewPostRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	feedCacheEnabled := cfg.Feed.CacheEnabled && redisClient != nil
	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	feedCache := service.NewCacheService(cacheRepo, metrics, cfg.Feed.CacheTTL, logr, feedCacheEnabled)

	authService := service.NewAuthService(teacherRepo, studentRepo, auditRepo, validate, logr, service.AuthConfig{
		Secret:      cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	teacherService := service.NewTeacherService(teacherRepo, auditRepo, validate, logr)
	studentService := service.NewStudentService(studentRepo, auditRepo, validate, logr)
	exportService := service.NewExportService(studentRepo, cfg.Exports.MaxRows, logr)
	postService := service.NewPostService(postRepo, feedCache, validate, logr)
	submissionService := service.NewSubmissionService(submissionRepo, postRepo, validate, logr)
	retention := service.NewRetentionService(postService, metrics,
		cfg.Posts.RetentionPeriod, cfg.Posts.CleanupInterval, cfg.Posts.CleanupWorkers, logr)

	authHandler := handler.NewAuthHandler(authService)
	teacherHandler := handler.NewTeacherHandler(teacherService)
	studentHandler := handler.NewStudentHandler(studentService, exportService)
	postHandler := handler.NewPostHandler(postService)
	submissionHandler := handler.NewSubmissionHandler(submissionService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	teacherRoutes := api.Group("/teacher")
	teacherRoutes.POST("/login", authHandler.LoginTeacher)
	teacherRoutes.POST("/forgot-password", authHandler.ForgotPassword)

	teacherAuth := teacherRoutes.Group("")
	teacherAuth.Use(middleware.Auth(authService, metrics, models.VariantTeacher))
	teacherAuth.GET("/me", authHandler.Me)
	teacherAuth.PUT("/profile", teacherHandler.UpdateProfile)

	teacherAuth.GET("/students", studentHandler.List)
	teacherAuth.POST("/students", studentHandler.Create)
	teacherAuth.GET("/students/export", studentHandler.Export)
	teacherAuth.GET("/students/:id", studentHandler.Get)
	teacherAuth.PUT("/students/:id", studentHandler.Update)
	teacherAuth.DELETE("/students/:id", studentHandler.Delete)

	teacherAuth.GET("/posts", postHandler.List)
	teacherAuth.POST("/posts", postHandler.Create)
	teacherAuth.DELETE("/posts/:id", postHandler.Delete)
	teacherAuth.GET("/posts/:id/submissions", submissionHandler.ListByPost)

	adminRoutes := teacherAuth.Group("/teachers")
	adminRoutes.Use(middleware.RequireAdmin(authService, metrics))
	adminRoutes.GET("", teacherHandler.List)
	adminRoutes.POST("", teacherHandler.Create)
	adminRoutes.DELETE("/:id", teacherHandler.Delete)

	studentRoutes := api.Group("/student")
	studentRoutes.POST("/login", authHandler.LoginStudent)

	studentAuth := studentRoutes.Group("")
	studentAuth.Use(middleware.Auth(authService, metrics, models.VariantStudent))
	studentAuth.GET("/feed", postHandler.Feed)
	studentAuth.POST("/submissions", submissionHandler.Submit)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	retention.Start(sweepCtx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Sugar().Infow("shutting down")
	stopSweep()
	retention.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}

	if redisClient != nil {
		_ = redisClient.Close()
	}
}
