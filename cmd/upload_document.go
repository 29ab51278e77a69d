/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/wisdom-rag/types"
	"go.uber.org/zap"
)

// uploadDocumentCmd represents the upload-document command
var uploadDocumentCmd = &cobra.Command{
	Use:   "upload-document",
	Short: "Ingest a single document into the vector index",
	Long: `Extracts the text of a PDF or scanned image, splits it into chunks, embeds
them and stores them in the configured collection.

Example:
  wisdom-rag upload-document --file ./books/Mind_Power.pdf --keep`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath, _ := cmd.Flags().GetString("file")
		reinit, _ := cmd.Flags().GetBool("reinit")
		keep, _ := cmd.Flags().GetBool("keep")

		ctx := cmd.Context()
		a, err := loadApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		if err := prepareCollection(ctx, a, reinit); err != nil {
			return err
		}

		result, err := a.ingestFile(ctx, filePath, keep)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks from %s\n", result.ChunksIndexed, result.FileName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadDocumentCmd)
	uploadDocumentCmd.Flags().StringP("file", "f", "", "Path to the document")
	uploadDocumentCmd.Flags().Bool("reinit", false, "Delete and recreate the collection first")
	uploadDocumentCmd.Flags().Bool("keep", false, "Copy the document into the upload directory so citations can link to it")
	uploadDocumentCmd.MarkFlagRequired("file")
}

func prepareCollection(ctx context.Context, a *app, reinit bool) error {
	if reinit {
		return a.index.Reinit(ctx)
	}
	return a.index.EnsureCollection(ctx)
}

// ingestFile reads a local document and ingests it as a job.
func (a *app) ingestFile(ctx context.Context, path string, keep bool) (types.IngestResult, error) {
	doc, err := readDocument(path)
	if err != nil {
		return types.IngestResult{}, err
	}

	job, err := a.jobs.Submit(ctx, doc)
	if err != nil {
		return types.IngestResult{}, err
	}
	if keep {
		if _, err := a.files.Import(path); err != nil {
			a.logger.Warn("Error copying document", zap.String("path", path), zap.Error(err))
		}
	}
	return types.IngestResult{FileName: job.FileName, ChunksIndexed: job.ChunksIndexed, JobID: job.ID}, nil
}

func readDocument(path string) (types.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	mimeType := mimeTypeFor(path)
	if mimeType == "" {
		mimeType, _, _ = mime.ParseMediaType(http.DetectContentType(content))
	}
	return types.Document{
		Name:     filepath.Base(path),
		MimeType: mimeType,
		Content:  content,
	}, nil
}
