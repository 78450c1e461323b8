package api

import (
	"context"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"support-finder/internal/assistant"
	"support-finder/internal/auth"
	"support-finder/internal/chat"
	"support-finder/internal/config"
	"support-finder/internal/logger"
	"support-finder/internal/resource"
	"support-finder/internal/search"
)

// Pinger is anything /health can probe, e.g. the completion client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services holds everything the handlers need. Redis and Completion may be nil.
type Services struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Resources  resource.Repository
	Categories *resource.CategoryCache
	Chats      *chat.Store
	Searcher   *search.Searcher
	Engine     *assistant.Engine
	Responder  *assistant.Responder
	Sessions   *auth.Sessions
	Completion Pinger
	Log        logger.Logger
}

func SetupRouter(cfg *config.Config, svc *Services) *gin.Engine {
	if svc.Log == nil {
		svc.Log = logger.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware(), AccessLogMiddleware(svc.Log))

	subpath := cfg.Server.Subpath // "" or e.g. "/support-finder"
	group := r.Group(subpath)
	{
		group.GET("/health", HealthHandler(svc))
		group.GET("/metrics", gin.WrapH(promhttp.Handler()))

		// Public directory
		group.GET("/api/search", SearchHandler(svc))
		group.GET("/api/resources/:id", GetResourceHandler(svc))
		group.GET("/api/categories/:slug/resources", CategoryResourcesHandler(svc))

		// Conversations
		convo := auth.ConversationMiddleware(cfg, svc.Sessions)
		group.POST("/chats", CreateChatHandler(cfg, svc))
		group.GET("/chats/:id/messages", convo, ListMessagesHandler(cfg, svc))
		group.POST("/chats/:id/messages", convo, SendMessageHandler(svc))
		group.DELETE("/chats/:id", convo, DeleteChatHandler(svc))

		// Streaming WebSocket endpoint
		group.GET("/ws/chat", convo, WSChatHandler(svc))
	}
	svc.Log.Info("router ready", map[string]interface{}{"subpath": path.Clean("/" + subpath)})
	return r
}
