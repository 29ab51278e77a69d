package handler

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/wisdom-rag/service"
	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	files  *service.FileService
	logger *zap.Logger
}

func NewDocumentHandler(files *service.FileService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		files:  files,
		logger: logger,
	}
}

// ServeDocument streams a stored PDF inline.
func (h *DocumentHandler) ServeDocument(c *gin.Context) {
	requestedName := c.Query("name")
	if requestedName == "" {
		respondError(c, h.logger, types.NewInvalidInputError("File parameter is required"))
		return
	}
	if !strings.EqualFold(filepath.Ext(requestedName), ".pdf") {
		respondError(c, h.logger, types.NewInvalidInputError("Only PDF files are allowed"))
		return
	}

	path, err := h.files.Path(requestedName)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Type", service.MimeTypePDF)
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filepath.Base(requestedName)))
	c.File(path)
}

type InfoHandler struct {
	service string
	presets []string
}

func NewInfoHandler(serviceName string, presets []string) *InfoHandler {
	return &InfoHandler{service: serviceName, presets: presets}
}

func (h *InfoHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, types.HealthResponse{Status: "ok", Service: h.service})
}

func (h *InfoHandler) HandlePresets(c *gin.Context) {
	presets := h.presets
	if presets == nil {
		presets = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"presets": presets})
}
