package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkRows(t *testing.T) {
	tests := []struct {
		name string
		n    int
		size int
		want [][2]int
	}{
		{"empty", 0, 1000, nil},
		{"single partial chunk", 3, 1000, [][2]int{{0, 3}}},
		{"exact multiple", 2000, 1000, [][2]int{{0, 1000}, {1000, 2000}}},
		{"remainder chunk", 2500, 1000, [][2]int{{0, 1000}, {1000, 2000}, {2000, 2500}}},
		{"size one", 3, 1, [][2]int{{0, 1}, {1, 2}, {2, 3}}},
		{"invalid size", 5, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chunkRows(tt.n, tt.size))
		})
	}
}

func TestChunkRowsCoversEveryRowOnce(t *testing.T) {
	// A student inside the 10000-submission window can exceed the bind
	// parameter budget of a single statement; every row must land in
	// exactly one chunk.
	const n = 9876
	bounds := chunkRows(n, insertChunkRows)
	require.NotEmpty(t, bounds)

	next := 0
	for _, b := range bounds {
		assert.Equal(t, next, b[0])
		assert.Greater(t, b[1], b[0])
		assert.LessOrEqual(t, b[1]-b[0], insertChunkRows)
		next = b[1]
	}
	assert.Equal(t, n, next)

	// 15 columns per solved-problem row has to stay under Postgres' 65535
	// bind parameter cap per statement.
	assert.Less(t, insertChunkRows*15, 65535)
}
