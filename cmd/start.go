/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/tieubaoca/wisdom-rag/handler"
	"github.com/tieubaoca/wisdom-rag/service"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

// startServerCmd represents the start command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the HTTP API server",
	Long:  `Starts the server exposing chat, document upload, ingestion jobs and the chat websocket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		// A failure here only affects the first upsert or search
		if err := a.index.EnsureCollection(ctx); err != nil {
			a.logger.Error("Failed to ensure collection", zap.Error(err))
		}

		if a.cfg.Log.Format != "console" {
			gin.SetMode(gin.ReleaseMode)
		}
		router := handler.NewRouter(handler.Handlers{
			Info:      handler.NewInfoHandler(rootCmd.Use, a.cfg.Presets),
			Chat:      handler.NewChatHandler(a.rag, a.cfg.RequestTimeout, a.logger),
			Upload:    handler.NewUploadHandler(a.jobs, a.files, a.cfg.MaxUploadBytes, a.cfg.RequestTimeout, a.logger),
			Document:  handler.NewDocumentHandler(a.files, a.logger),
			WebSocket: service.NewWebSocketService(a.rag, a.cfg.RequestTimeout, a.logger),
		}, a.logger)

		server := &http.Server{
			Addr:              ":" + a.cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.logger.Info("Starting server", zap.String("port", a.cfg.Port))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		a.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(startServerCmd)
}
