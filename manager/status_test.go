package manager

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/jaskaranSM/pdrive/types"
)

func TestTransferStatus_Counters(t *testing.T) {
	var out bytes.Buffer
	status := NewTransferStatus("gid-1", "movie.mkv", 3*1024, &out, zap.NewNop())
	assert.Equal(t, "gid-1", status.Gid())
	assert.Equal(t, "movie.mkv", status.Name())
	assert.EqualValues(t, 3*1024, status.TotalLength())

	status.OnTransferStart()
	status.OnMultipartInit("movie.mkv")
	status.OnPartsStart(3)
	status.OnPartStart(2, 1024)
	status.OnPartComplete(types.Part{PartNumber: 2, ETag: "e2"}, 1024)
	assert.EqualValues(t, 1024, status.CompletedLength())
	assert.False(t, status.IsCompleted())

	status.OnMultipartComplete(types.Multipart{Key: "movie.mkv", UploadID: "u"})
	status.OnTransferComplete("files/movie.mkv")
	assert.True(t, status.IsCompleted())
	assert.False(t, status.IsFailed())
	assert.EqualValues(t, 3*1024, status.CompletedLength())

	assert.Equal(t, []string{
		"Initializing part upload",
		"Uploading parts...",
		"Uploading part 2",
		"Finished uploading part 2 of 3 (1.0 KiB / 3.0 KiB)",
		"Completing part upload...",
	}, strings.Split(strings.TrimSpace(out.String()), "\n"))
}

func TestTransferStatus_Failure(t *testing.T) {
	status := NewTransferStatus("gid-2", "a.txt", 1, &bytes.Buffer{}, zap.NewNop())
	status.OnTransferStart()
	status.OnTransferError(errors.New("boom"))
	assert.True(t, status.IsFailed())
	assert.False(t, status.IsCompleted())

	// Stopping twice is harmless.
	status.StopSpeedObserver()
}
