package v1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall-ai/studyhall/pkg/types"
)

func TestMergeQuestionsAcrossAttempts(t *testing.T) {
	first := []types.QuizQuestion{
		{Question: "Q1", Options: []string{"a", "b"}, CorrectIndex: 0},
		{Question: "Q2", Options: []string{"a", "b"}, CorrectIndex: 1},
		{Question: "Q3", Options: []string{"a", "b"}, CorrectIndex: 0},
	}
	second := []types.QuizQuestion{
		{Question: "Q3", Options: []string{"a", "b"}, CorrectIndex: 1}, // repeat prompt
		{Question: "Q4", Options: []string{"a", "b"}, CorrectIndex: 0},
		{Question: "Q5", Options: []string{"a", "b"}, CorrectIndex: 1},
	}

	merged := mergeQuestions(first, second)
	require.Len(t, merged, 5)
	// the retry's duplicate does not replace the accepted question
	assert.Equal(t, 0, merged[2].CorrectIndex)
	assert.Equal(t, "Q5", merged[4].Question)
}
