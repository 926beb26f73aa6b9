package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/demandflow/internal/api/handlers"
	"github.com/andresuchdata/demandflow/internal/api/middleware"
	"github.com/andresuchdata/demandflow/internal/service"
)

type Services struct {
	Replenishment *service.ReplenishmentService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	apiGroup := router.Group("/api/v1")

	if services != nil && services.Replenishment != nil {
		h := handlers.NewReplenishmentHandler(services.Replenishment)
		router.GET("/health", h.Health)
		apiGroup.GET("/health", h.Health)

		demandGroup := apiGroup.Group("/demand")
		{
			demandGroup.POST("/analyze", h.Analyze)
			demandGroup.POST("/refresh", h.Refresh)
			demandGroup.GET("/velocity/:product", h.GetVelocity)
		}

		reorderGroup := apiGroup.Group("/reorder")
		{
			reorderGroup.GET("/suggestions", h.GetSuggestions)
			reorderGroup.GET("/suggestions/:product", h.GetSuggestion)
			reorderGroup.GET("/urgent", h.GetUrgent)
		}

		apiGroup.GET("/dashboard/summary", h.GetDashboard)
		apiGroup.GET("/performance/metrics", h.GetPerformance)
		apiGroup.GET("/runs/latest", h.GetLatestRun)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
