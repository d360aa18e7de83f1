package pdrive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jaskaranSM/pdrive/types"
)

// MultipartUpload runs init, the bounded parallel part upload and the
// completion call in sequence. Nothing is cleaned up on failure: the server
// session and any uploaded parts are abandoned.
func (c *Client) MultipartUpload(ctx context.Context, key string, chunks []types.Chunk) (string, error) {
	if len(chunks) == 0 {
		return "", ErrNoChunks
	}
	for i, chunk := range chunks {
		if chunk.Number != i+1 {
			return "", fmt.Errorf("chunk %d has number %d: %w", i, chunk.Number, ErrChunkOrder)
		}
	}

	c.listener.OnMultipartInit(key)
	session, err := c.initMultipart(ctx, key)
	if err != nil {
		return "", err
	}

	c.listener.OnPartsStart(len(chunks))
	parts, err := c.uploadParts(ctx, session, chunks)
	if err != nil {
		return "", err
	}

	c.listener.OnMultipartComplete(*session)
	return c.completeMultipart(ctx, session, parts)
}

func (c *Client) initMultipart(ctx context.Context, key string) (*types.Multipart, error) {
	resp, err := c.do(ctx, http.MethodPost, c.endpoint("upload-part", "init", key), nil, "")
	if err != nil {
		return nil, fmt.Errorf("init multipart upload %s: %w", key, err)
	}
	body, err := readText(resp)
	if err != nil {
		return nil, fmt.Errorf("init multipart upload %s: %w", key, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(OpInit, resp.StatusCode, body)
	}

	var session types.Multipart
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("decode init response: %w", err)
	}
	if session.Key == "" || session.UploadID == "" {
		return nil, fmt.Errorf("init multipart upload %s: missing key or uploadId: %w", key, ErrMalformedResponse)
	}

	c.logger.Debug("Multipart upload initialized",
		zap.String("key", session.Key),
		zap.String("uploadId", session.UploadID),
	)
	return &session, nil
}

// uploadParts keeps at most c.concurrency part requests in flight, starting
// the next chunk in file order whenever one finishes. The first failure
// cancels the requests still running and stops dispatching. Results are
// stored by chunk index, so the returned slice is ordered by part number
// whatever order the requests completed in.
func (c *Client) uploadParts(ctx context.Context, session *types.Multipart, chunks []types.Chunk) ([]types.Part, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	parts := make([]types.Part, len(chunks))
	concurrency := make(chan int, c.concurrency)
	eg, egCtx := errgroup.WithContext(ctx)

dispatch:
	for i, chunk := range chunks {
		select {
		case concurrency <- 1:
		case <-egCtx.Done():
			break dispatch
		}
		if egCtx.Err() != nil {
			<-concurrency
			break
		}

		i, chunk := i, chunk
		eg.Go(func() error {
			defer func() { <-concurrency }()
			part, err := c.uploadPart(egCtx, session, chunk)
			if err != nil {
				// Cancel before the slot is released so no further chunk starts.
				cancel()
				return err
			}
			parts[i] = *part
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return parts, nil
}

func (c *Client) uploadPart(ctx context.Context, session *types.Multipart, chunk types.Chunk) (*types.Part, error) {
	c.listener.OnPartStart(chunk.Number, len(chunk.Data))

	u := c.endpoint("upload-part", "put", session.Key, session.UploadID) +
		"?partNumber=" + strconv.Itoa(chunk.Number)
	resp, err := c.do(ctx, http.MethodPut, u, chunk.Data, "application/octet-stream")
	if err != nil {
		return nil, fmt.Errorf("upload part %d: %w", chunk.Number, err)
	}
	body, err := readText(resp)
	if err != nil {
		return nil, fmt.Errorf("upload part %d: %w", chunk.Number, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Unexpected status code on part upload",
			zap.Int("part", chunk.Number),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return nil, statusError(OpPut, resp.StatusCode, body)
	}

	var part types.Part
	if err := json.Unmarshal(body, &part); err != nil {
		return nil, fmt.Errorf("decode part %d response: %w", chunk.Number, err)
	}
	// The server's confirmation is what the completion call carries.
	if part.PartNumber != chunk.Number {
		c.logger.Warn("Server confirmed a different part number",
			zap.Int("sent", chunk.Number),
			zap.Int("confirmed", part.PartNumber),
		)
	}

	c.listener.OnPartComplete(part, len(chunk.Data))
	return &part, nil
}

func (c *Client) completeMultipart(ctx context.Context, session *types.Multipart, parts []types.Part) (string, error) {
	payload, err := json.Marshal(parts)
	if err != nil {
		return "", fmt.Errorf("encode parts: %w", err)
	}

	u := c.endpoint("upload-part", "finish", session.Key, session.UploadID)
	resp, err := c.do(ctx, http.MethodPost, u, payload, "application/json")
	if err != nil {
		return "", fmt.Errorf("complete multipart upload %s: %w", session.Key, err)
	}
	body, err := readText(resp)
	if err != nil {
		return "", fmt.Errorf("complete multipart upload %s: %w", session.Key, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Unexpected status code on multipart completion",
			zap.String("key", session.Key),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return "", statusError(OpFinish, resp.StatusCode, body)
	}
	return string(body), nil
}
