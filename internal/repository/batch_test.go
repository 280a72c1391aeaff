package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertChunkedSplitsEvenly(t *testing.T) {
	items := make([]int, 2500)
	var chunks [][]int

	total, err := InsertChunked(context.Background(), items, 1000,
		func(_ context.Context, chunk []int) (int64, error) {
			chunks = append(chunks, chunk)
			return int64(len(chunk)), nil
		})

	require.NoError(t, err)
	assert.Equal(t, int64(2500), total)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 1000)
	assert.Len(t, chunks[1], 1000)
	assert.Len(t, chunks[2], 500)
}

func TestInsertChunkedEmptyInputNoIO(t *testing.T) {
	calls := 0
	total, err := InsertChunked(context.Background(), []string{}, 1000,
		func(_ context.Context, chunk []string) (int64, error) {
			calls++
			return int64(len(chunk)), nil
		})

	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Equal(t, 0, calls)
}

func TestInsertChunkedPreservesOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	var seen []int

	total, err := InsertChunked(context.Background(), items, 2,
		func(_ context.Context, chunk []int) (int64, error) {
			seen = append(seen, chunk...)
			return int64(len(chunk)), nil
		})

	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Equal(t, items, seen)
}

func TestInsertChunkedStopsOnError(t *testing.T) {
	boom := errors.New("copy failed")
	items := make([]int, 30)
	calls := 0

	total, err := InsertChunked(context.Background(), items, 10,
		func(_ context.Context, chunk []int) (int64, error) {
			calls++
			if calls == 2 {
				return 0, boom
			}
			return int64(len(chunk)), nil
		})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, int64(10), total)
	assert.Equal(t, 2, calls)
}

func TestInsertChunkedNonPositiveChunkSizeFallsBack(t *testing.T) {
	items := make([]int, 1500)
	calls := 0

	total, err := InsertChunked(context.Background(), items, 0,
		func(_ context.Context, chunk []int) (int64, error) {
			calls++
			return int64(len(chunk)), nil
		})

	require.NoError(t, err)
	assert.Equal(t, int64(1500), total)
	assert.Equal(t, 2, calls)
}
