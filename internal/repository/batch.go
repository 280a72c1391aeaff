package repository

import "context"

// DefaultChunkSize is the bulk-insert chunk size used when the
// configuration does not override it.
const DefaultChunkSize = 1000

// InsertChunked splits items into contiguous chunks of at most
// chunkSize, preserving order, and executes one bulk insert per chunk.
// It returns the total number of rows written. An empty input returns 0
// without any I/O. A non-positive chunkSize falls back to
// DefaultChunkSize.
func InsertChunked[T any](
	ctx context.Context,
	items []T,
	chunkSize int,
	insert func(ctx context.Context, chunk []T) (int64, error),
) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	var total int64
	for start := 0; start < len(items); start += chunkSize {
		end := start + chunkSize
		if end > len(items) {
			end = len(items)
		}
		written, err := insert(ctx, items[start:end])
		if err != nil {
			return total, err
		}
		total += written
	}
	return total, nil
}
