package router

import (
	"github.com/gin-gonic/gin"
	"github.com/ikkim/lunchmap-backend/config"
	"github.com/ikkim/lunchmap-backend/internal/app/controller"
	apperrors "github.com/ikkim/lunchmap-backend/internal/errors"
	"github.com/ikkim/lunchmap-backend/internal/middleware"
)

type Router struct {
	searchController   *controller.SearchController
	reviewController   *controller.ReviewController
	locationController *controller.LocationController
	wsController       *controller.WSController
	config             *config.Config
}

func NewRouter(
	searchController *controller.SearchController,
	reviewController *controller.ReviewController,
	locationController *controller.LocationController,
	wsController *controller.WSController,
	cfg *config.Config,
) *Router {
	return &Router{
		searchController:   searchController,
		reviewController:   reviewController,
		locationController: locationController,
		wsController:       wsController,
		config:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		middleware.GetLoggerFromContext(c).Error("Panic recovered", nil, map[string]interface{}{
			"panic": recovered,
			"path":  c.Request.URL.Path,
		})
		apperrors.InternalError(c, "")
		c.Abort()
	}))
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "LUNCHMAP API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		search := v1.Group("/search")
		{
			search.GET("", r.searchController.Search)
			search.POST("/cancel", r.searchController.Cancel)
		}

		v1.GET("/reviews", r.reviewController.GetReviews)
		v1.GET("/stores/good", r.reviewController.GetGoodStores)
		v1.GET("/location", r.locationController.GetLocation)

		v1.GET("/ws/search", r.wsController.SearchProgress)
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-Request-ID, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
