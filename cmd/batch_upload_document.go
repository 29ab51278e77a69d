/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tieubaoca/wisdom-rag/service"
	"go.uber.org/zap"
)

// batchUploadDocumentCmd represents the batch-upload-document command
var batchUploadDocumentCmd = &cobra.Command{
	Use:   "batch-upload-document",
	Short: "Ingest every supported document in a directory",
	Long: `Walks a directory and ingests each PDF or image it finds. A failing document
is reported and skipped; the command fails only if nothing could be indexed.

Example:
  wisdom-rag batch-upload-document --directory ./books --reinit`,
	RunE: func(cmd *cobra.Command, args []string) error {
		directory, _ := cmd.Flags().GetString("directory")
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

		var paths []string
		err = filepath.WalkDir(directory, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isSupportedFile(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("walk %s: %w", directory, err)
		}

		var indexed, failed, chunks int
		for _, path := range paths {
			result, err := a.ingestFile(ctx, path, keep)
			if err != nil {
				failed++
				a.logger.Error("Failed to ingest document", zap.String("path", path), zap.Error(err))
				continue
			}
			indexed++
			chunks += result.ChunksIndexed
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks from %s\n", result.ChunksIndexed, result.FileName)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Done: %d documents, %d chunks, %d failed\n", indexed, chunks, failed)
		if indexed == 0 && failed > 0 {
			return fmt.Errorf("no document could be indexed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(batchUploadDocumentCmd)
	batchUploadDocumentCmd.Flags().StringP("directory", "d", "", "Directory containing documents")
	batchUploadDocumentCmd.Flags().Bool("reinit", false, "Delete and recreate the collection first")
	batchUploadDocumentCmd.Flags().Bool("keep", false, "Copy documents into the upload directory")
	batchUploadDocumentCmd.MarkFlagRequired("directory")
}

func isSupportedFile(path string) bool {
	return service.SupportedMimeTypes[mimeTypeFor(path)]
}

// mimeTypeFor guesses the media type from the extension only.
func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return service.MimeTypePDF
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif", ".tiff":
		return "image/tiff"
	}
	return ""
}
