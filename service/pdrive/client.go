package pdrive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/jaskaranSM/pdrive/config"
	"github.com/jaskaranSM/pdrive/logging"
)

// DefaultPartConcurrency is used when the configuration does not provide a
// positive concurrent_requests value.
const DefaultPartConcurrency = 2

// Client talks to the upload API. It is safe for concurrent use; nothing it
// holds is mutated after NewClient returns.
type Client struct {
	apiURL      string
	httpClient  *http.Client
	concurrency int
	splitSize   int
	listener    UploadListener
	logger      *zap.Logger
}

type Option func(*clientOptions)

type clientOptions struct {
	baseClient *http.Client
	splitSize  int
	listener   UploadListener
	logger     *zap.Logger
}

// WithHTTPClient sets the client whose transport carries the authenticated
// requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) { o.baseClient = hc }
}

// WithSplitSize overrides FileSplitSize.
func WithSplitSize(size int) Option {
	return func(o *clientOptions) { o.splitSize = size }
}

func WithListener(l UploadListener) Option {
	return func(o *clientOptions) { o.listener = l }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

func NewClient(cfg *config.Config, opts ...Option) *Client {
	o := clientOptions{
		baseClient: &http.Client{},
		splitSize:  FileSplitSize,
		listener:   NopListener{},
		logger:     logging.GetLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	concurrency := cfg.ConcurrentRequests
	if concurrency < 1 {
		concurrency = DefaultPartConcurrency
	}

	// Every request goes out with "Authorization: Bearer <token>".
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, o.baseClient)
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.Token,
		TokenType:   "Bearer",
	})

	return &Client{
		apiURL:      strings.TrimRight(cfg.APIURL, "/"),
		httpClient:  oauth2.NewClient(ctx, tokenSource),
		concurrency: concurrency,
		splitSize:   o.splitSize,
		listener:    o.listener,
		logger:      o.logger,
	}
}

func (c *Client) SplitSize() int {
	return c.splitSize
}

func (c *Client) Concurrency() int {
	return c.concurrency
}

// endpoint joins escaped path segments onto the API base URL.
func (c *Client) endpoint(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.apiURL + "/" + strings.Join(escaped, "/")
}

func (c *Client) do(ctx context.Context, method, u string, body []byte, contentType string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.logger.Debug("Sending request",
		zap.String("method", method),
		zap.String("url", u),
		zap.Int("body size", len(body)),
	)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return resp, nil
}

// readText drains and closes the response body.
func readText(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}
