package pdrive

import (
	"errors"
	"fmt"
	"net/http"
)

// Operations reported in errors.
const (
	OpUpload = "upload"
	OpInit   = "init"
	OpPut    = "put"
	OpFinish = "finish"
)

var (
	ErrBadRequest        = errors.New("bad request")
	ErrUnauthorized      = errors.New("wrong token")
	ErrUnexpectedStatus  = errors.New("unexpected status code")
	ErrMalformedResponse = errors.New("malformed response")
	ErrNoChunks          = errors.New("no chunks to upload")
	ErrChunkOrder        = errors.New("chunks are not numbered 1..N in order")
)

// ClientError is a recoverable rejection whose message is meant for the
// user: the server's body for 400, a fixed text for 401.
type ClientError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("Server error occurred: %s", e.Message)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// StatusError reports a status code the protocol does not allow for the
// operation.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status code (%d %s): %s",
		e.Op, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

func unauthorized(op string) *ClientError {
	return &ClientError{
		Op:         op,
		StatusCode: http.StatusUnauthorized,
		Message:    "Wrong token",
		Err:        ErrUnauthorized,
	}
}

// statusError maps a non-200 response of any operation. 401 is always a
// credential problem; everything else is a protocol violation.
func statusError(op string, code int, body []byte) error {
	if code == http.StatusUnauthorized {
		return unauthorized(op)
	}
	return &StatusError{Op: op, StatusCode: code, Body: string(body)}
}
