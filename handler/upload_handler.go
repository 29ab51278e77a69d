package handler

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/wisdom-rag/service"
	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
)

// Room for the multipart envelope around the file itself
const multipartOverhead = 1 << 20

type UploadHandler struct {
	jobs     *service.JobService
	files    *service.FileService
	maxBytes int64
	timeout  time.Duration
	logger   *zap.Logger
}

// NewUploadHandler creates the upload handler. files may be nil, in which
// case uploads are not kept on disk.
func NewUploadHandler(jobs *service.JobService, files *service.FileService, maxBytes int64, timeout time.Duration, logger *zap.Logger) *UploadHandler {
	if maxBytes <= 0 {
		maxBytes = service.DefaultMaxUploadBytes
	}
	return &UploadHandler{
		jobs:     jobs,
		files:    files,
		maxBytes: maxBytes,
		timeout:  timeout,
		logger:   logger,
	}
}

func (h *UploadHandler) UploadDocumentHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, h.logger, types.NewInvalidInputError("No file uploaded"))
		return
	}
	defer file.Close()

	if header.Size > h.maxBytes {
		respondError(c, h.logger, types.NewInvalidInputError(fmt.Sprintf("File exceeds the %d MB limit", h.maxBytes>>20)))
		return
	}
	content, err := io.ReadAll(file)
	if err != nil {
		respondError(c, h.logger, types.NewInvalidInputError("Invalid file"))
		return
	}

	doc := types.Document{
		Name:     header.Filename,
		MimeType: detectMimeType(header.Header.Get("Content-Type"), content),
		Content:  content,
	}

	if h.files != nil && service.SupportedMimeTypes[doc.MimeType] {
		if _, err := h.files.Save(doc); err != nil {
			h.logger.Warn("Error saving upload", zap.String("fileName", doc.Name), zap.Error(err))
		}
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	job, err := h.jobs.Submit(ctx, doc)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, types.UploadResponse{
		Status: "success",
		Document: types.IngestResult{
			FileName:      job.FileName,
			ChunksIndexed: job.ChunksIndexed,
			JobID:         job.ID,
		},
		JobID: job.ID,
	})
}

// HandleGetJob returns an ingestion job. With wait=true it blocks until the
// job is ready or failed.
func (h *UploadHandler) HandleGetJob(c *gin.Context) {
	id := c.Param("id")

	var (
		job *types.IngestionJob
		err error
	)
	if c.Query("wait") == "true" {
		job, err = h.jobs.Wait(c.Request.Context(), id)
	} else {
		job, err = h.jobs.Get(c.Request.Context(), id)
	}
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// detectMimeType trusts the declared type when it is supported and sniffs the
// content otherwise.
func detectMimeType(declared string, content []byte) string {
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil && service.SupportedMimeTypes[mediaType] {
		return mediaType
	}
	mediaType, _, _ := mime.ParseMediaType(http.DetectContentType(content))
	return mediaType
}
