package pdrive

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jaskaranSM/pdrive/types"
)

// FileSplitSize is the largest chunk sent in one part request. Files at or
// below it are uploaded in a single request.
const FileSplitSize = 50 * 1024 * 1024

// SplitFile reads the whole file into memory as ordered chunks of at most
// size bytes.
func SplitFile(path string, size int) ([]types.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	chunks, err := SplitReader(bufio.NewReader(f), size)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", path, err)
	}
	return chunks, nil
}

// SplitReader consumes r until EOF. A read returning no bytes ends the
// sequence, so an input that is an exact multiple of size has no empty
// trailing chunk.
func SplitReader(r io.Reader, size int) ([]types.Chunk, error) {
	if size <= 0 {
		return nil, fmt.Errorf("split size must be positive, got %d", size)
	}

	var chunks []types.Chunk
	for {
		buffer := make([]byte, size)
		n, err := io.ReadFull(r, buffer)
		if n > 0 {
			chunks = append(chunks, types.Chunk{
				Number: len(chunks) + 1,
				Data:   buffer[:n],
			})
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return chunks, nil
		default:
			return nil, err
		}
	}
}
