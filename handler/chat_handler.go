package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/wisdom-rag/service"
	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
)

type ChatHandler struct {
	chatter service.Chatter
	timeout time.Duration
	logger  *zap.Logger
}

func NewChatHandler(chatter service.Chatter, timeout time.Duration, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatter: chatter,
		timeout: timeout,
		logger:  logger,
	}
}

func (h *ChatHandler) HandleChat(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, types.NewInvalidInputError("Invalid request body"))
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.chatter.Chat(ctx, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
