package utils

import (
	"os"
	"path/filepath"
)

// EnsureUploadDir creates the local attachments directory if it doesn't
// exist. Only used when R2 is not configured.
func EnsureUploadDir() error {
	return os.MkdirAll("uploads", os.ModePerm)
}

// GetUploadPath returns the full path for a file inside the uploads directory
func GetUploadPath(filename string) string {
	return filepath.Join("uploads", filename)
}
