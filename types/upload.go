package types

// Chunk is a contiguous piece of a file tagged with its 1-based position.
type Chunk struct {
	Number int
	Data   []byte
}

// Multipart identifies a server-side multipart session.
type Multipart struct {
	Key      string `json:"key"`
	UploadID string `json:"uploadId"`
}

// Part confirms that one chunk was durably received.
type Part struct {
	PartNumber int    `json:"partNumber"`
	ETag       string `json:"etag"`
}
