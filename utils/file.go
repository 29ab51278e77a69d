package utils

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SanitizeFileName keeps letters, digits, '-', '_' and '.' of the base name
// and replaces everything else with '_'.
func SanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			return r
		}
		return '_'
	}, name)
}

// timestampedName turns name.ext into name_<unix>.ext
func timestampedName(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_%d%s", base, time.Now().Unix(), ext)
}

// SaveFileWithTimestamp writes content to uploadDir under the sanitized name
// with a timestamp suffix. Returns the destination path.
func SaveFileWithTimestamp(name string, content []byte, uploadDir string) (string, error) {
	return writeWithTimestamp(SanitizeFileName(name), bytes.NewReader(content), uploadDir)
}

// CopyFileWithTimestamp copies a file to the destination directory with a timestamp suffix
// Returns the destination path and error if any
func CopyFileWithTimestamp(sourcePath, uploadDir string) (string, error) {
	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return "", fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	return writeWithTimestamp(SanitizeFileName(sourcePath), sourceFile, uploadDir)
}

func writeWithTimestamp(name string, src io.Reader, uploadDir string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty file name")
	}
	// Create upload directory if it doesn't exist
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	destPath := filepath.Join(uploadDir, timestampedName(name))
	destFile, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, src); err != nil {
		return "", fmt.Errorf("failed to copy file: %w", err)
	}
	return destPath, nil
}
