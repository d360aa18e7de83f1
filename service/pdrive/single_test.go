package pdrive

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jaskaranSM/pdrive/config"
)

const testToken = "secret-token"

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		Token:              testToken,
		APIURL:             apiURL,
		ConcurrentRequests: 2,
		LogLevel:           "warn",
	}
}

func newTestClient(apiURL string, opts ...Option) *Client {
	opts = append([]Option{WithLogger(zap.NewNop())}, opts...)
	return NewClient(testConfig(apiURL), opts...)
}

type capturedRequest struct {
	method      string
	path        string
	rawPath     string
	query       string
	auth        string
	contentType string
	body        []byte
}

func capture(r *http.Request) capturedRequest {
	body, _ := io.ReadAll(r.Body)
	return capturedRequest{
		method:      r.Method,
		path:        r.URL.Path,
		rawPath:     r.URL.EscapedPath(),
		query:       r.URL.RawQuery,
		auth:        r.Header.Get("Authorization"),
		contentType: r.Header.Get("Content-Type"),
		body:        body,
	}
}

func TestClient_SingleUpload(t *testing.T) {
	data := []byte("hello from a small file")

	tests := []struct {
		name       string
		status     int
		body       string
		want       string
		wantIs     error
		wantMsg    string
		wantStatus *StatusError
	}{
		{
			name:   "ok returns location",
			status: http.StatusOK,
			body:   "files/notes.txt",
			want:   "files/notes.txt",
		},
		{
			name:    "bad request surfaces body",
			status:  http.StatusBadRequest,
			body:    "file too large for plan",
			wantIs:  ErrBadRequest,
			wantMsg: "file too large for plan",
		},
		{
			name:    "unauthorized has fixed message",
			status:  http.StatusUnauthorized,
			body:    "raw server text",
			wantIs:  ErrUnauthorized,
			wantMsg: "Wrong token",
		},
		{
			name:       "other status is unexpected",
			status:     http.StatusInternalServerError,
			body:       "kaboom",
			wantIs:     ErrUnexpectedStatus,
			wantStatus: &StatusError{Op: OpUpload, StatusCode: http.StatusInternalServerError, Body: "kaboom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requests := make(chan capturedRequest, 1)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests <- capture(r)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			path := writeFile(t, "notes.txt", data)
			got, err := newTestClient(srv.URL).SingleUpload(context.Background(), path)

			req := <-requests
			assert.Equal(t, http.MethodPost, req.method)
			assert.Equal(t, "/upload/notes.txt", req.path)
			assert.Equal(t, "Bearer "+testToken, req.auth)
			assert.True(t, strings.HasPrefix(req.contentType, "text/plain"), req.contentType)
			assert.Equal(t, data, req.body)

			if tt.wantIs == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantIs)
			assert.Empty(t, got)

			if tt.wantMsg != "" {
				var clientErr *ClientError
				require.ErrorAs(t, err, &clientErr)
				assert.Equal(t, tt.wantMsg, clientErr.Message)
				assert.Equal(t, tt.status, clientErr.StatusCode)
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
			if tt.wantStatus != nil {
				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, tt.wantStatus, statusErr)
			}
		})
	}
}

func TestClient_SingleUpload_EscapesFileName(t *testing.T) {
	requests := make(chan capturedRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests <- capture(r)
		_, _ = io.WriteString(w, "files/x")
	}))
	defer srv.Close()

	path := writeFile(t, "my holiday #1.txt", []byte("x"))
	_, err := newTestClient(srv.URL + "/").SingleUpload(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "/upload/my%20holiday%20%231.txt", (<-requests).rawPath)
}

func TestClient_SingleUpload_MissingFile(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).SingleUpload(context.Background(), filepath.Join(t.TempDir(), "gone.txt"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Zero(t, calls.Load())
}

func TestClient_SingleUpload_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	apiURL := srv.URL
	srv.Close()

	path := writeFile(t, "notes.txt", []byte("data"))
	_, err := newTestClient(apiURL).SingleUpload(context.Background(), path)
	require.Error(t, err)

	var clientErr *ClientError
	assert.False(t, errors.As(err, &clientErr))
	assert.NotErrorIs(t, err, ErrUnexpectedStatus)
}
