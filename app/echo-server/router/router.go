package router

import (
	"freshBite/internal/middleware"
	"freshBite/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetRecommendationRoutes(api *echo.Group, handler *rest.RecommendationHandler) {
	reco := api.Group("/recommendations", middleware.OptionalAuth())
	reco.GET("", handler.Recommend)
	reco.GET("/trending", handler.Trending)
	reco.GET("/debug", handler.DebugRecommend)
	reco.POST("/feedback", handler.Feedback)
}

func SetAdminRoutes(api *echo.Group, handler *rest.AdminHandler) {
	admin := api.Group("/admin", middleware.AuthMiddleware())
	admin.GET("/reco/weights", handler.GetWeights)
	admin.PUT("/reco/weights", handler.UpsertWeights)
	admin.POST("/bandit/reset", handler.ResetArm)
}
