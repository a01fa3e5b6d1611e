package routes

import (
	"github.com/gin-gonic/gin"

	"studyquest/controllers"
	"studyquest/middleware"
	"studyquest/services"
)

func SetupRoutes(router *gin.RouterGroup, engine *services.MissionEngine, ledger services.ExperienceLedger, throttle *services.ResetThrottle) {
	router.POST("/signup", controllers.Signup())
	router.POST("/login", controllers.Login())
	router.POST("/forgot-password", controllers.ForgotPassword())
	router.POST("/reset-password", controllers.ResetPassword())
	protected := router.Group("/")
	protected.Use(middleware.Authenticate())
	{
		// Current user (all authenticated)
		protected.GET("/me", controllers.GetMe())

		// ADMIN only
		protected.GET("/users",
			middleware.Authorize("ADMIN"),
			controllers.GetUsers(),
		)
		protected.POST("/admin/missions",
			middleware.Authorize("ADMIN"),
			controllers.CreateMission(),
		)
		protected.PATCH("/admin/missions/:id",
			middleware.Authorize("ADMIN"),
			controllers.UpdateMission(),
		)

		// USER (self) + ADMIN
		protected.GET("/user/:id",
			middleware.Authorize("ADMIN", "USER"),
			controllers.GetUser(),
		)

		// Study sessions + XP (authenticated users)
		protected.POST("/study-sessions", controllers.CreateStudySession(ledger))
		protected.GET("/study-sessions", controllers.GetMySessions())
		protected.GET("/xp/history", controllers.GetMyXpHistory())

		// Missions
		protected.GET("/missions", controllers.GetMyMissions(engine, throttle))
		protected.POST("/missions/:id/start", controllers.StartMission(engine))
		protected.POST("/missions/:id/check", controllers.CheckMission(engine))
		protected.POST("/missions/:id/withdraw", controllers.WithdrawMission(engine))
	}
}
