package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UploadDir returns the root directory for stored documents.
func UploadDir() string {
	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "uploads"
	}
	return dir
}

// SaveDocument stores an uploaded file under UPLOAD_DIR/<subdir>/ with a
// collision-free name and returns the stored path reference.
func SaveDocument(subdir string, file *multipart.FileHeader) (string, error) {
	dir := filepath.Join(UploadDir(), subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	safeName := strings.ReplaceAll(filepath.Base(file.Filename), " ", "_")
	if safeName == "" || safeName == "." {
		safeName = "document"
	}
	path := filepath.Join(dir, uuid.New().String()+"_"+safeName)

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write file: %w", err)
	}

	return path, nil
}

// DeleteDocumentFile removes a stored document. A missing file is not an
// error; the path reference is what matters to the engine.
func DeleteDocumentFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		SafeWarn("could not delete document %s: %v", path, err)
	}
}
