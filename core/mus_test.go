package core

import (
	"testing"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkMUS(t *testing.T) {
	tests := []struct {
		name  string
		chunk Chunk
	}{
		{
			name: "full",
			chunk: Chunk{
				Author:       "Ludwig von Mises",
				FigureID:     "mises",
				PaperTitle:   "Human Action",
				Content:      "[DOMAIN: Praxeology] Human action is purposeful behavior.",
				Embedding:    []float32{0.25, -0.5, 1e-7},
				ChunkIndex:   42,
				Domain:       "Praxeology",
				SourceWork:   "Human Action, ch. 1",
				Significance: "Foundational",
				PositionID:   "HA-001",
				Engagements: &Engagements{
					Challenges:  []string{"Behaviorism"},
					Consistency: "Consistent with HA-002",
				},
				ContentHash: IDFromContent("mises").Hex(),
				CreatedAt:   time.Date(2025, 3, 4, 5, 6, 7, 123456000, time.UTC),
			},
		},
		{
			name: "minimal",
			chunk: Chunk{
				Author:    "Karl Marx",
				FigureID:  "marx",
				Content:   "Value is congealed labor.",
				Embedding: []float32{1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size := ChunkMUS.Size(tt.chunk)
			buf := make([]byte, size)
			assert.Equal(t, size, ChunkMUS.Marshal(tt.chunk, buf))

			decoded, n, err := ChunkMUS.Unmarshal(buf)
			require.NoError(t, err)
			assert.Equal(t, size, n)
			assert.Equal(t, tt.chunk, decoded)

			skipped, err := ChunkMUS.Skip(buf)
			require.NoError(t, err)
			assert.Equal(t, size, skipped)
		})
	}
}

func TestChunkMUS_Truncated(t *testing.T) {
	chunk := Chunk{Author: "Karl Marx", FigureID: "marx", Content: "Value is congealed labor.", Embedding: []float32{1, 2}}
	buf := make([]byte, ChunkMUS.Size(chunk))
	ChunkMUS.Marshal(chunk, buf)

	_, _, err := ChunkMUS.Unmarshal(buf[:len(buf)-1])
	assert.ErrorIs(t, err, mus.ErrTooSmallByteSlice)

	_, err = ChunkMUS.Skip(buf[:len(buf)-1])
	assert.ErrorIs(t, err, mus.ErrTooSmallByteSlice)
}

func TestVectorMUS(t *testing.T) {
	vector := []float32{0, 1.5, -2.25, 3.4028235e38}
	buf := make([]byte, VectorMUS.Size(vector))
	VectorMUS.Marshal(vector, buf)

	decoded, _, err := VectorMUS.Unmarshal(buf)
	require.NoError(t, err)
	assert.Equal(t, vector, decoded)
	assert.Len(t, buf, 1+4*len(vector))
}
