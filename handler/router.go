package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/wisdom-rag/middleware"
	"github.com/tieubaoca/wisdom-rag/service"
	"go.uber.org/zap"
)

type Handlers struct {
	Info      *InfoHandler
	Chat      *ChatHandler
	Upload    *UploadHandler
	Document  *DocumentHandler
	WebSocket *service.WebSocketService
}

// NewRouter registers the API routes. Handlers left nil are not mounted.
func NewRouter(h Handlers, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.Cors)

	if h.Info != nil {
		router.GET("/", h.Info.HandleHealth)
	}

	api := router.Group("/api")
	if h.Info != nil {
		api.GET("/presets", h.Info.HandlePresets)
	}
	if h.Chat != nil {
		api.POST("/chat", h.Chat.HandleChat)
	}
	if h.Upload != nil {
		api.POST("/documents/upload", h.Upload.UploadDocumentHandler)
		api.GET("/documents/jobs/:id", h.Upload.HandleGetJob)
	}
	if h.Document != nil {
		api.GET("/pdf", h.Document.ServeDocument)
	}
	if h.WebSocket != nil {
		api.GET("/ws", gin.WrapF(h.WebSocket.HandleChat))
	}
	return router
}
