package v1_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/studyhall-ai/studyhall/app/logic/v1"
	"github.com/studyhall-ai/studyhall/pkg/types"
)

func TestParseQuizResponse(t *testing.T) {
	raw := `[{"question": "What is 2+2?", "options": ["3", "4"], "correct_index": 1, "explanation": "basic arithmetic"}]`

	questions, err := v1.ParseQuizResponse(raw)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "What is 2+2?", questions[0].Question)
	assert.Equal(t, 1, questions[0].CorrectIndex)
}

func TestParseQuizResponseWithCodeFence(t *testing.T) {
	raw := "```json\n[{\"question\": \"Q1\", \"options\": [\"a\", \"b\"], \"correct_index\": 0, \"explanation\": \"e\"}]\n```"

	questions, err := v1.ParseQuizResponse(raw)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, "Q1", questions[0].Question)
}

func TestParseQuizResponseNotJSON(t *testing.T) {
	_, err := v1.ParseQuizResponse("Sure! Here are your questions:")
	assert.Error(t, err)
}

func TestQuizQuestionValid(t *testing.T) {
	testCases := []struct {
		name     string
		question types.QuizQuestion
		want     bool
	}{
		{
			name:     "well formed",
			question: types.QuizQuestion{Question: "Q", Options: []string{"a", "b"}, CorrectIndex: 1},
			want:     true,
		},
		{
			name:     "empty prompt",
			question: types.QuizQuestion{Options: []string{"a", "b"}, CorrectIndex: 0},
			want:     false,
		},
		{
			name:     "single option",
			question: types.QuizQuestion{Question: "Q", Options: []string{"a"}, CorrectIndex: 0},
			want:     false,
		},
		{
			name:     "correct index out of range",
			question: types.QuizQuestion{Question: "Q", Options: []string{"a", "b"}, CorrectIndex: 2},
			want:     false,
		},
		{
			name:     "negative correct index",
			question: types.QuizQuestion{Question: "Q", Options: []string{"a", "b"}, CorrectIndex: -1},
			want:     false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.question.Valid())
		})
	}
}

func TestGradeQuiz(t *testing.T) {
	questions := types.QuizQuestions{
		{ID: "q1", Question: "Q1", Options: []string{"a", "b"}, CorrectIndex: 0, Explanation: "e1"},
		{ID: "q2", Question: "Q2", Options: []string{"a", "b", "c"}, CorrectIndex: 2, Explanation: "e2"},
		{ID: "q3", Question: "Q3", Options: []string{"a", "b"}, CorrectIndex: 1, Explanation: "e3"},
	}

	answers := types.QuizAnswers{
		{QuestionID: "q1", AnswerIndex: 0},
		{QuestionID: "q2", AnswerIndex: 1},
		// q3 left unanswered
	}

	correct, review := v1.GradeQuiz(questions, answers)
	assert.Equal(t, 1, correct)
	require.Len(t, review, 3)

	assert.True(t, review[0].Correct)
	assert.False(t, review[1].Correct)
	assert.False(t, review[2].Correct)
	assert.Equal(t, -1, review[2].AnswerIndex)
	assert.Equal(t, "e2", review[1].Explanation)
}

func TestGradeQuizAllUnanswered(t *testing.T) {
	questions := types.QuizQuestions{
		{ID: "q1", Question: "Q1", Options: []string{"a", "b"}, CorrectIndex: 0},
	}

	correct, review := v1.GradeQuiz(questions, nil)
	assert.Equal(t, 0, correct)
	require.Len(t, review, 1)
	assert.Equal(t, -1, review[0].AnswerIndex)
}

func TestSelectDiverseChunks(t *testing.T) {
	var pool []types.Chunk
	// doc1 dominates the candidate pool
	for i := 0; i < 10; i++ {
		pool = append(pool, types.Chunk{ID: "d1-" + string(rune('a'+i)), DocumentID: "doc1"})
	}
	pool = append(pool,
		types.Chunk{ID: "d2-a", DocumentID: "doc2"},
		types.Chunk{ID: "d3-a", DocumentID: "doc3"},
	)

	selected := v1.SelectDiverseChunks(pool, 6)
	require.Len(t, selected, 6)

	perDoc := map[string]int{}
	for _, c := range selected {
		perDoc[c.DocumentID]++
	}
	assert.Equal(t, 1, perDoc["doc2"])
	assert.Equal(t, 1, perDoc["doc3"])
	assert.Equal(t, 4, perDoc["doc1"])
}

func TestSelectDiverseChunksSmallPool(t *testing.T) {
	pool := []types.Chunk{
		{ID: "a", DocumentID: "doc1"},
		{ID: "b", DocumentID: "doc2"},
	}
	assert.Equal(t, pool, v1.SelectDiverseChunks(pool, 12))
}
