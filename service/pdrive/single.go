package pdrive

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jaskaranSM/pdrive/utils"
)

// SingleUpload sends the whole file in one request and returns the object's
// location relative to the API URL.
func (c *Client) SingleUpload(ctx context.Context, path string) (string, error) {
	name := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	c.listener.OnUploadStart(name, int64(len(data)))

	resp, err := c.do(ctx, http.MethodPost, c.endpoint("upload", name), data, utils.DetectContentType(data))
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	body, err := readText(resp)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return string(body), nil
	case http.StatusBadRequest:
		return "", &ClientError{
			Op:         OpUpload,
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Err:        ErrBadRequest,
		}
	case http.StatusUnauthorized:
		return "", unauthorized(OpUpload)
	default:
		c.logger.Error("Unexpected status code on upload",
			zap.String("file", name),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return "", &StatusError{Op: OpUpload, StatusCode: resp.StatusCode, Body: string(body)}
	}
}
