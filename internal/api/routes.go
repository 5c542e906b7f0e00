package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"mboajobs/internal/api/middleware"
	"mboajobs/internal/auth"
	"mboajobs/internal/database"
	"mboajobs/internal/resume"
	"mboajobs/internal/storage"
)

// RouteDeps 汇总注册路由所需的依赖。
type RouteDeps struct {
	DB                    *gorm.DB
	ResumeService         *resume.Service
	AsynqClient           *asynq.Client
	AuthService           *auth.AuthService
	RedisClient           *redis.Client
	Logger                *slog.Logger
	Storage               *storage.Client
	ClamdAddr             string
	CookieDomain          string
	AllowedOrigins        []string
	LoginRateLimitPerHour int
	LoginLockThreshold    int
	LoginLockTTL          time.Duration
}

// RegisterRoutes 注册 /v1 下的全部 API 路由。
func RegisterRoutes(router *gin.Engine, deps RouteDeps) {
	authHandler := NewAuthHandler(deps.DB, deps.AuthService, deps.RedisClient, deps.Logger, deps.LoginRateLimitPerHour, deps.LoginLockThreshold, deps.LoginLockTTL, deps.CookieDomain)
	profileHandler := NewProfileHandler(deps.DB)
	resumeHandler := NewResumeHandler(deps.DB, deps.ResumeService, deps.AsynqClient, deps.Storage)
	templateHandler := NewTemplateHandler(deps.DB)
	companyHandler := NewCompanyHandler(deps.DB)
	jobHandler := NewJobHandler(deps.DB)
	applicationHandler := NewApplicationHandler(deps.DB, deps.ResumeService)
	assetHandler := NewAssetHandler(deps.Storage, deps.Logger, deps.ClamdAddr)
	notifyHandler := NewNotifyHandler(deps.RedisClient, deps.AuthService, deps.Logger, deps.AllowedOrigins)

	authMiddleware := middleware.AuthMiddleware(deps.AuthService)
	passwordGate := middleware.RequirePasswordChangeCompletedMiddleware()
	candidateOnly := middleware.RequireRole(database.RoleCandidate)
	recruiterOnly := middleware.RequireRole(database.RoleRecruiter)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", notifyHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
			authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
		}

		// 公开检索，不需要登录。
		v1.GET("/jobs", jobHandler.ListJobs)
		v1.GET("/jobs/facets", jobHandler.ListJobFacets)
		v1.GET("/jobs/:id", jobHandler.GetJob)
		v1.GET("/companies", companyHandler.ListCompanies)
		v1.GET("/companies/:id", companyHandler.GetCompany)

		profileGroup := v1.Group("/profile")
		profileGroup.Use(authMiddleware, passwordGate, candidateOnly)
		{
			profileGroup.GET("", profileHandler.GetProfile)
			profileGroup.PATCH("", profileHandler.UpdateProfile)
			profileGroup.POST("/experiences", profileHandler.AddExperience)
			profileGroup.PUT("/experiences/:id", profileHandler.UpdateExperience)
			profileGroup.DELETE("/experiences/:id", profileHandler.DeleteExperience)
			profileGroup.POST("/educations", profileHandler.AddEducation)
			profileGroup.PUT("/educations/:id", profileHandler.UpdateEducation)
			profileGroup.DELETE("/educations/:id", profileHandler.DeleteEducation)
		}

		resumeGroup := v1.Group("/resumes")
		resumeGroup.Use(authMiddleware, passwordGate, candidateOnly)
		{
			resumeGroup.GET("", resumeHandler.ListResumes)
			resumeGroup.POST("", resumeHandler.CreateResume)
			resumeGroup.POST("/from-profile", resumeHandler.CreateFromProfile)
			resumeGroup.GET("/:id", resumeHandler.GetResume)
			resumeGroup.PATCH("/:id", resumeHandler.UpdateResume)
			resumeGroup.DELETE("/:id", resumeHandler.DeleteResume)
			resumeGroup.PUT("/:id/primary", resumeHandler.SetPrimary)
			resumeGroup.PUT("/:id/template/:templateId", resumeHandler.ApplyTemplate)
			resumeGroup.GET("/:id/download", resumeHandler.DownloadResume)
			resumeGroup.GET("/:id/download-link", resumeHandler.GetDownloadLink)
		}

		templateGroup := v1.Group("/templates")
		templateGroup.Use(authMiddleware, passwordGate)
		{
			templateGroup.GET("", templateHandler.ListTemplates)
			templateGroup.POST("", templateHandler.CreateTemplate)
			templateGroup.GET("/:id", templateHandler.GetTemplate)
			templateGroup.DELETE("/:id", templateHandler.DeleteTemplate)
		}

		companyGroup := v1.Group("/companies")
		companyGroup.Use(authMiddleware, passwordGate, recruiterOnly)
		{
			companyGroup.POST("", companyHandler.CreateCompany)
			companyGroup.PUT("/:id", companyHandler.UpdateCompany)
		}

		jobGroup := v1.Group("/jobs")
		jobGroup.Use(authMiddleware, passwordGate, recruiterOnly)
		{
			jobGroup.POST("", jobHandler.CreateJob)
			jobGroup.GET("/mine", jobHandler.ListMyJobs)
			jobGroup.PUT("/:id", jobHandler.UpdateJob)
			jobGroup.POST("/:id/close", jobHandler.CloseJob)
			jobGroup.DELETE("/:id", jobHandler.DeleteJob)
			jobGroup.GET("/:id/applications", applicationHandler.ListJobApplications)
		}

		applicationGroup := v1.Group("/applications")
		applicationGroup.Use(authMiddleware, passwordGate)
		{
			applicationGroup.POST("", candidateOnly, applicationHandler.Apply)
			applicationGroup.GET("", candidateOnly, applicationHandler.ListMyApplications)
			applicationGroup.PATCH("/:id/status", recruiterOnly, applicationHandler.UpdateStatus)
		}

		assetGroup := v1.Group("/assets")
		assetGroup.Use(authMiddleware, passwordGate)
		{
			assetGroup.POST("/upload", assetHandler.UploadAsset)
			assetGroup.GET("", assetHandler.ListAssets)
			assetGroup.GET("/view", assetHandler.GetAssetURL)
		}
	}
}
