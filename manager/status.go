package manager

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/jaskaranSM/pdrive/types"
)

// TransferStatus prints progress lines for one upload and keeps byte
// counters. It implements pdrive.UploadListener.
type TransferStatus struct {
	gid       string
	name      string
	total     int64
	completed atomic.Int64
	speed     atomic.Int64
	parts     int
	isDone    atomic.Bool
	isFailed  atomic.Bool

	out    io.Writer
	outMu  sync.Mutex
	logger *zap.Logger

	stopObserver chan struct{}
	observerDone chan struct{}
}

func NewTransferStatus(gid string, name string, total int64, out io.Writer, logger *zap.Logger) *TransferStatus {
	return &TransferStatus{
		gid:    gid,
		name:   name,
		total:  total,
		out:    out,
		logger: logger,
	}
}

func (t *TransferStatus) printf(format string, args ...interface{}) {
	t.outMu.Lock()
	defer t.outMu.Unlock()
	fmt.Fprintf(t.out, format+"\n", args...)
}

func (t *TransferStatus) StartSpeedObserver() {
	t.stopObserver = make(chan struct{})
	t.observerDone = make(chan struct{})
	go t.speedObserver()
}

func (t *TransferStatus) StopSpeedObserver() {
	if t.stopObserver == nil {
		return
	}
	close(t.stopObserver)
	<-t.observerDone
	t.stopObserver = nil
}

func (t *TransferStatus) speedObserver() {
	defer close(t.observerDone)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	last := t.CompletedLength()
	for {
		select {
		case <-t.stopObserver:
			return
		case <-ticker.C:
			now := t.CompletedLength()
			t.speed.Store(now - last)
			last = now
			t.logger.Debug("Transfer progress",
				zap.String("gid", t.gid),
				zap.Int64("completed", now),
				zap.Int64("total", t.total),
				zap.String("speed", humanize.IBytes(uint64(t.Speed()))+"/s"),
			)
		}
	}
}

func (t *TransferStatus) OnTransferStart() {
	t.logger.Debug("on upload start",
		zap.String("gid", t.gid),
		zap.String("name", t.name),
		zap.Int64("size", t.total),
	)
	t.StartSpeedObserver()
}

func (t *TransferStatus) OnTransferComplete(location string) {
	t.StopSpeedObserver()
	t.completed.Store(t.total)
	t.isDone.Store(true)
	t.logger.Debug("on upload complete", zap.String("gid", t.gid), zap.String("location", location))
}

func (t *TransferStatus) OnTransferError(err error) {
	t.StopSpeedObserver()
	t.isFailed.Store(true)
	t.logger.Debug("on upload error", zap.String("gid", t.gid), zap.Error(err))
}

func (t *TransferStatus) OnUploadStart(name string, size int64) {
	t.printf("Uploading...")
}

func (t *TransferStatus) OnMultipartInit(key string) {
	t.printf("Initializing part upload")
}

func (t *TransferStatus) OnPartsStart(count int) {
	t.parts = count
	t.printf("Uploading parts...")
}

func (t *TransferStatus) OnPartStart(partNumber int, size int) {
	t.printf("Uploading part %d", partNumber)
}

func (t *TransferStatus) OnPartComplete(part types.Part, size int) {
	done := t.completed.Add(int64(size))
	t.printf("Finished uploading part %d of %d (%s / %s)",
		part.PartNumber, t.parts, humanize.IBytes(uint64(done)), humanize.IBytes(uint64(t.total)))
}

func (t *TransferStatus) OnMultipartComplete(session types.Multipart) {
	t.printf("Completing part upload...")
}

func (t *TransferStatus) Gid() string {
	return t.gid
}

func (t *TransferStatus) Name() string {
	return t.name
}

func (t *TransferStatus) CompletedLength() int64 {
	return t.completed.Load()
}

func (t *TransferStatus) TotalLength() int64 {
	return t.total
}

func (t *TransferStatus) Speed() int64 {
	return t.speed.Load()
}

func (t *TransferStatus) IsCompleted() bool {
	return t.isDone.Load()
}

func (t *TransferStatus) IsFailed() bool {
	return t.isFailed.Load()
}
