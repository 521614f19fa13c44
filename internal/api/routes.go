package api

import (
	"ascend/physique-app/internal/domain"
	"ascend/physique-app/internal/service"
	"ascend/physique-app/internal/store"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	profileService service.ProfileService,
	creditService service.CreditService,
	planService service.PlanService,
	reportService service.ReportService,
	promos *store.PromoRegistry,
	recordStore *store.Store,
) {
	authHandler := NewAuthHandler(authService)
	profileHandler := NewProfileHandler(profileService)
	creditHandler := NewCreditHandler(creditService)
	planHandler := NewPlanHandler(planService, reportService)
	founderHandler := NewFounderHandler(promos, recordStore)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		// --- Record Routes ---
		dataGroup := protected.Group("/data")
		{
			dataGroup.GET("", profileHandler.GetData)
			dataGroup.DELETE("", profileHandler.Reset)
		}

		profileGroup := protected.Group("/profile")
		{
			profileGroup.PUT("", profileHandler.SaveProfile)
			profileGroup.PUT("/body", profileHandler.SaveBody)
		}

		progressGroup := protected.Group("/progress")
		{
			progressGroup.PUT("/workout", profileHandler.SetWorkoutProgress)
			progressGroup.PUT("/nutrition", profileHandler.SetNutritionProgress)
			progressGroup.POST("/unlock-week", profileHandler.UnlockWeek)
			progressGroup.POST("/reset", profileHandler.ResetProgress)
		}

		// --- Ledger Routes ---
		creditGroup := protected.Group("/credits")
		{
			creditGroup.GET("", creditHandler.GetState)
			creditGroup.GET("/price", creditHandler.Price)
			creditGroup.POST("/purchase", creditHandler.Purchase)
			creditGroup.POST("/close-prompt", creditHandler.ClosePrompt)
		}
		protected.POST("/subscribe", creditHandler.Subscribe)
		protected.POST("/promo/redeem", creditHandler.Redeem)

		// --- Plan Routes ---
		planGroup := protected.Group("/plan")
		{
			planGroup.POST("/generate", planHandler.Generate)
			planGroup.POST("/injury", planHandler.AdaptForInjury)
			planGroup.POST("/restore", planHandler.RestorePlan)
		}

		scanGroup := protected.Group("/scan")
		{
			scanGroup.POST("/upload-url", planHandler.RequestScanUpload)
			scanGroup.POST("/meal", planHandler.ScanMeal)
		}

		protected.POST("/report", planHandler.SendReport)

		// --- Founder Routes ---
		founderGroup := protected.Group("/founder")
		founderGroup.Use(RoleMiddleware(domain.RoleFounder))
		{
			founderGroup.GET("/promos", founderHandler.ListPromos)
			founderGroup.POST("/promos", founderHandler.CreatePromo)
			founderGroup.DELETE("/promos/:code", founderHandler.DeletePromo)
			founderGroup.GET("/users", founderHandler.ListUsers)
		}
	}
}
