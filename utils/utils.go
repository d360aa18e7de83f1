package utils

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/jaskaranSM/pdrive/logging"
)

var ErrIsDirectory = errors.New("path is a directory")

// GetFileContentTypePath sniffs the content type of the file at path,
// falling back to application/octet-stream when it cannot be read.
func GetFileContentTypePath(filePath string) string {
	file, err := os.Open(filePath)
	if err != nil {
		logging.GetLogger().Debug("Could not open file for getting mimetype", zap.Error(err),
			zap.String("file path", filePath),
		)
		return "application/octet-stream"
	}
	defer file.Close()
	return GetFileContentType(file)
}

func GetFileContentType(r io.Reader) string {
	buffer := make([]byte, 512)
	n, err := io.ReadFull(r, buffer)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "application/octet-stream"
	}
	return mimetype.Detect(buffer[:n]).String()
}

// DetectContentType sniffs an in-memory payload.
func DetectContentType(data []byte) string {
	return GetFileContentType(bytes.NewReader(data))
}

// GetPathSize returns the size of a regular file. Directories are rejected.
func GetPathSize(filePath string) (int64, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return 0, err
	}
	if fileInfo.IsDir() {
		return 0, fmt.Errorf("%s: %w", filePath, ErrIsDirectory)
	}
	return fileInfo.Size(), nil
}
