package api

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"seta-admin-backend/config"
	"seta-admin-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router. Background work tied
// to the router (cache invalidation, event streams) stops when ctx is done.
func NewRouter(ctx context.Context, cfg config.ServerConfig, d Deps) *gin.Engine {
	r := gin.New()

	responses := cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	handler := NewHandler(d, cfg.SessionTTL, responses)
	handler.done = ctx
	if d.Hub != nil {
		go handler.watchInvalidation(ctx)
	}

	r.Use(mw.RequestID(), mw.Logger(handler.log), mw.Recovery(handler.log))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", mw.RequestIDHeader},
			ExposeHeaders:    []string{mw.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, cfg.RequestIPHeader)
	caching := mw.Cache(responses, cfg.CacheTTL)

	r.GET("/api/health", handler.GetHealth)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/views", caching, handler.ListViews)
		api.GET("/views/:view", caching, handler.GetView)
		api.GET("/views/:view/records/:id", caching, handler.GetRecord)
		api.POST("/views/:view/records", handler.CreateRecord)
		api.PUT("/views/:view/records/:id", handler.UpdateRecord)
		api.DELETE("/views/:view/records/:id", handler.DeleteRecord)
		api.POST("/views/:view/refresh", handler.RefreshView)
		api.POST("/refresh", handler.RefreshAll)

		api.POST("/sessions", handler.CreateSession)
		api.PUT("/sessions/:sid/search", handler.PutSessionSearch)
		api.GET("/sessions/:sid/views/:view", handler.GetSessionView)
		api.PATCH("/sessions/:sid/views/:view", handler.PatchSessionView)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	// The event stream is long-lived and stays outside the rate limiter.
	r.GET("/api/events", handler.StreamEvents)

	return r
}
