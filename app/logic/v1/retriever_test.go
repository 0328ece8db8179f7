package v1_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/studyhall-ai/studyhall/app/logic/v1"
	"github.com/studyhall-ai/studyhall/pkg/types"
)

func rankedChunk(id, docID string, start, end int, score float64) types.RankedChunk {
	return types.RankedChunk{
		Chunk: types.Chunk{
			ID:          id,
			DocumentID:  docID,
			StartOffset: start,
			EndOffset:   end,
		},
		Score: score,
	}
}

func TestDedupeOverlappingKeepsHigherScore(t *testing.T) {
	// two windows of the same document sharing an overlap region
	in := []types.RankedChunk{
		rankedChunk("low", "doc1", 800, 1800, 0.71),
		rankedChunk("high", "doc1", 0, 1000, 0.92),
	}

	out := v1.DedupeOverlapping(in)
	require.Len(t, out, 1)
	assert.Equal(t, "high", out[0].ID)
}

func TestDedupeOverlappingLeavesDisjointChunks(t *testing.T) {
	in := []types.RankedChunk{
		rankedChunk("a", "doc1", 0, 1000, 0.9),
		rankedChunk("b", "doc1", 1000, 2000, 0.8),
		rankedChunk("c", "doc1", 2000, 3000, 0.7),
	}

	out := v1.DedupeOverlapping(in)
	require.Len(t, out, 3)
	// ranking order preserved
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "c", out[2].ID)
}

func TestDedupeOverlappingIgnoresOtherDocuments(t *testing.T) {
	// identical offsets but different documents never collide
	in := []types.RankedChunk{
		rankedChunk("a", "doc1", 0, 1000, 0.9),
		rankedChunk("b", "doc2", 0, 1000, 0.85),
		rankedChunk("c", "doc3", 0, 1000, 0.8),
	}

	out := v1.DedupeOverlapping(in)
	assert.Len(t, out, 3)
}

func TestDedupeOverlappingEmpty(t *testing.T) {
	assert.Empty(t, v1.DedupeOverlapping(nil))
}
