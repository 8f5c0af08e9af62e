package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/jansetu/backend/internal/cache"
	"github.com/jansetu/backend/internal/controllers"
	"github.com/jansetu/backend/internal/engine"
	"github.com/jansetu/backend/internal/middleware"
	"github.com/jansetu/backend/internal/models"
	"github.com/jansetu/backend/internal/storage"
	"gorm.io/gorm"
)

// SetupRoutes wires the engine and all application routes.
func SetupRoutes(r *gin.Engine, db *gorm.DB, redisCache *cache.Cache) *engine.Engine {
	store := storage.NewCaseStore(db)
	sla := engine.NewSLAPolicy()
	eng := engine.New(store, sla)
	projection := engine.NewProjection(store, sla)

	authController := controllers.NewAuthController(db)
	userController := controllers.NewUserController(db)
	caseController := controllers.NewCaseController(eng, store, db)
	dashboardController := controllers.NewDashboardController(projection, redisCache)

	officerRoles := []string{string(models.RoleExecutive), string(models.RoleMasterAdmin)}

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authController.Login)
			auth.POST("/register", authController.Register)
			auth.POST("/refresh", middleware.AuthMiddleware(), authController.RefreshToken)
		}

		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			users := protected.Group("/users")
			{
				users.GET("/me", userController.GetCurrentUser)
				users.PUT("/me", userController.UpdateCurrentUser)
				users.GET("/officers", middleware.RequireRoles(officerRoles...), userController.GetOfficers)
				users.POST("/officers", middleware.RequireRoles(string(models.RoleMasterAdmin)), userController.AddOfficer)
			}

			cases := protected.Group("/cases")
			{
				cases.POST("", caseController.CreateCase)
				cases.GET("", caseController.ListCases)
				cases.GET("/:id", caseController.GetCase)
				cases.GET("/:id/history", caseController.GetHistory)
				cases.POST("/:id/comments", caseController.AddComment)
				cases.POST("/:id/transition", caseController.Transition)
				cases.POST("/:id/assign", middleware.RequireRoles(officerRoles...), caseController.Assign)
				cases.POST("/:id/priority", middleware.RequireRoles(officerRoles...), caseController.ChangePriority)
				cases.POST("/:id/verify/stage1", middleware.RequireRoles(officerRoles...), caseController.SubmitStage1)
				cases.POST("/:id/verify/stage2", middleware.RequireRoles(string(models.RoleMasterAdmin)), caseController.SubmitStage2)
			}

			dashboard := protected.Group("/dashboard")
			dashboard.Use(middleware.RequireRoles(officerRoles...))
			{
				dashboard.GET("/summary", dashboardController.Summary)
				dashboard.GET("/aggregate", dashboardController.Aggregate)
			}
		}
	}

	return eng
}
