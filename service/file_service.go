package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tieubaoca/wisdom-rag/types"
	"github.com/tieubaoca/wisdom-rag/utils"
	"go.uber.org/zap"
)

// FileService keeps a copy of uploaded documents so citations can link to them.
type FileService struct {
	uploadDir string
	logger    *zap.Logger
}

func NewFileService(uploadDir string, logger *zap.Logger) (*FileService, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create upload dir %s: %w", types.ErrConfiguration, uploadDir, err)
	}
	return &FileService{uploadDir: uploadDir, logger: logger}, nil
}

// Save stores the document bytes and returns the stored path.
func (s *FileService) Save(doc types.Document) (string, error) {
	path, err := utils.SaveFileWithTimestamp(doc.Name, doc.Content, s.uploadDir)
	if err != nil {
		return "", err
	}
	s.logger.Debug("Saved upload", zap.String("fileName", doc.Name), zap.String("path", path))
	return path, nil
}

// Import copies a local file into the upload directory.
func (s *FileService) Import(sourcePath string) (string, error) {
	return utils.CopyFileWithTimestamp(sourcePath, s.uploadDir)
}

// Path resolves a document name to the newest stored copy of it. Names never
// resolve outside the upload directory.
func (s *FileService) Path(name string) (string, error) {
	clean := utils.SanitizeFileName(name)
	if clean == "" {
		return "", types.NewInvalidInputError("File name is required")
	}

	exact := filepath.Join(s.uploadDir, clean)
	if info, err := os.Stat(exact); err == nil && !info.IsDir() {
		return exact, nil
	}

	ext := filepath.Ext(clean)
	pattern := filepath.Join(s.uploadDir, strings.TrimSuffix(clean, ext)+"_*"+ext)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("document %s: %w", clean, types.ErrNotFound)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}
