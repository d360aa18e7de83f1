package manager

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaskaranSM/pdrive/config"
	"github.com/jaskaranSM/pdrive/logging"
	"github.com/jaskaranSM/pdrive/service/pdrive"
	"github.com/jaskaranSM/pdrive/utils"
)

type UploadOpts struct {
	Path  string
	Gid   string
	Quiet bool
}

// UploadManager picks the single or multipart path for a file and turns the
// returned location into the user-visible URL.
type UploadManager struct {
	cfg        *config.Config
	out        io.Writer
	clientOpts []pdrive.Option
	logger     *zap.Logger
}

func NewUploadManager(cfg *config.Config, out io.Writer, clientOpts ...pdrive.Option) *UploadManager {
	return &UploadManager{
		cfg:        cfg,
		out:        out,
		clientOpts: clientOpts,
		logger:     logging.GetLogger(),
	}
}

// Upload sends the file and returns its absolute URL.
func (m *UploadManager) Upload(ctx context.Context, opts *UploadOpts) (string, error) {
	if opts.Gid == "" {
		gid, err := uuid.NewUUID()
		if err != nil {
			m.logger.Error("Could not create new UUID", zap.Error(err))
			return "", err
		}
		opts.Gid = gid.String()
	}

	size, err := utils.GetPathSize(opts.Path)
	if err != nil {
		m.logger.Error("Could not get stats of file path", zap.Error(err),
			zap.String("file path", opts.Path),
		)
		return "", err
	}

	out := m.out
	if opts.Quiet || out == nil {
		out = io.Discard
	}
	name := filepath.Base(opts.Path)
	status := NewTransferStatus(opts.Gid, name, size, out, m.logger)

	clientOpts := append([]pdrive.Option{pdrive.WithLogger(m.logger)}, m.clientOpts...)
	clientOpts = append(clientOpts, pdrive.WithListener(status))
	client := pdrive.NewClient(m.cfg, clientOpts...)

	status.OnTransferStart()
	location, err := m.dispatch(ctx, client, opts.Path, name, size)
	if err != nil {
		status.OnTransferError(err)
		return "", err
	}
	status.OnTransferComplete(location)

	return ResolveURL(m.cfg.APIURL, location), nil
}

func (m *UploadManager) dispatch(ctx context.Context, client *pdrive.Client, path string, key string, size int64) (string, error) {
	if size <= int64(client.SplitSize()) {
		m.logger.Debug("Using single upload", zap.String("file", key), zap.Int64("size", size))
		return client.SingleUpload(ctx, path)
	}

	chunks, err := pdrive.SplitFile(path, client.SplitSize())
	if err != nil {
		return "", err
	}
	m.logger.Debug("Using multipart upload",
		zap.String("key", key),
		zap.Int64("size", size),
		zap.Int("parts", len(chunks)),
		zap.Int("concurrency", client.Concurrency()),
	)
	return client.MultipartUpload(ctx, key, chunks)
}

// ResolveURL joins a location returned by the API onto the API base URL.
func ResolveURL(apiURL string, location string) string {
	return strings.TrimRight(apiURL, "/") + "/" + strings.TrimLeft(location, "/")
}
