package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
)

var statusByCode = map[types.Code]int{
	types.CodeInvalidInput:  http.StatusBadRequest,
	types.CodeNotFound:      http.StatusNotFound,
	types.CodeNoContent:     http.StatusUnprocessableEntity,
	types.CodeExtraction:    http.StatusBadGateway,
	types.CodeGeneration:    http.StatusBadGateway,
	types.CodeEmbedding:     http.StatusServiceUnavailable,
	types.CodeIndex:         http.StatusServiceUnavailable,
	types.CodeTimeout:       http.StatusGatewayTimeout,
	types.CodeConfiguration: http.StatusInternalServerError,
}

func statusFor(err error) int {
	if status, ok := statusByCode[types.Classify(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the caller-safe error body.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request error",
			zap.String("path", c.Request.URL.Path),
			zap.String("code", string(types.Classify(err))),
			zap.Error(err),
		)
	}
	c.JSON(status, types.ErrorResponse{Error: true, Message: types.UserMessage(err)})
}
