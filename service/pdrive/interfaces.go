package pdrive

import "github.com/jaskaranSM/pdrive/types"

// UploadListener receives progress notifications from a Client. Part
// callbacks are invoked from worker goroutines and may run concurrently.
type UploadListener interface {
	OnUploadStart(name string, size int64)
	OnMultipartInit(key string)
	OnPartsStart(count int)
	OnPartStart(partNumber int, size int)
	OnPartComplete(part types.Part, size int)
	OnMultipartComplete(session types.Multipart)
}

// NopListener ignores every notification.
type NopListener struct{}

func (NopListener) OnUploadStart(string, int64) {}
func (NopListener) OnMultipartInit(string) {}
func (NopListener) OnPartsStart(int) {}
func (NopListener) OnPartStart(int, int) {}
func (NopListener) OnPartComplete(types.Part, int) {}
func (NopListener) OnMultipartComplete(types.Multipart) {}
