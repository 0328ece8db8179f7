package v1_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/studyhall-ai/studyhall/app/logic/v1"
	"github.com/studyhall-ai/studyhall/pkg/errors"
	"github.com/studyhall-ai/studyhall/pkg/types"
)

// quizReply renders a model completion with one well formed question
// per prompt.
func quizReply(t *testing.T, prompts ...string) string {
	t.Helper()
	qs := make([]map[string]any, 0, len(prompts))
	for _, p := range prompts {
		qs = append(qs, map[string]any{
			"question":      p,
			"options":       []string{"a", "b", "c", "d"},
			"correct_index": 1,
			"explanation":   "from the material",
		})
	}
	raw, err := json.Marshal(qs)
	require.NoError(t, err)
	return string(raw)
}

func TestGenerateQuizAccumulatesAcrossAttempts(t *testing.T) {
	p := newMemoryProvider()
	seedCourse(p, "t1", "course-1")
	seedChunks(p, "t1", "course-1", 3)
	driver := &scriptedAI{Replies: []string{
		quizReply(t, "Q1", "Q2", "Q3"),
		quizReply(t, "Q3", "Q4", "Q5"), // Q3 repeats, must not count twice
	}}
	app := newTestCore(p, driver)

	quiz, err := v1.NewQuizLogic(testCtx("t1", "u1"), app).GenerateQuiz("course-1", 5, "")
	require.NoError(t, err)
	require.NotNil(t, quiz)
	require.Len(t, quiz.Questions, 5)
	assert.Equal(t, 2, driver.Calls())

	prompts := make([]string, 0, 5)
	for i, q := range quiz.Questions {
		assert.Equal(t, i+1, q.Seq)
		assert.NotEmpty(t, q.ID)
		assert.NotEmpty(t, q.ChunkRefs)
		prompts = append(prompts, q.Question)
	}
	assert.Equal(t, []string{"Q1", "Q2", "Q3", "Q4", "Q5"}, prompts)

	stored, err := p.QuizStore().GetQuiz(testCtx("t1", "u1"), "t1", quiz.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Questions, 5)
	assert.Equal(t, types.QUIZ_DIFFICULTY_INTERMEDIATE, stored.Difficulty)
}

func TestGenerateQuizRetriesMalformedOutput(t *testing.T) {
	p := newMemoryProvider()
	seedCourse(p, "t1", "course-1")
	seedChunks(p, "t1", "course-1", 2)
	driver := &scriptedAI{Replies: []string{
		"Sure! Here are your questions:",
		quizReply(t, "Q1", "Q2", "Q3"),
	}}
	app := newTestCore(p, driver)

	quiz, err := v1.NewQuizLogic(testCtx("t1", "u1"), app).GenerateQuiz("course-1", 3, types.QUIZ_DIFFICULTY_BEGINNER)
	require.NoError(t, err)
	require.Len(t, quiz.Questions, 3)
	assert.Equal(t, 2, driver.Calls())
}

func TestGenerateQuizPartialResultIsStoredAndFlagged(t *testing.T) {
	p := newMemoryProvider()
	seedCourse(p, "t1", "course-1")
	seedChunks(p, "t1", "course-1", 2)
	// every attempt repeats the same two questions, so retries cannot
	// close the gap to five
	driver := &scriptedAI{Fallback: quizReply(t, "Q1", "Q2")}
	app := newTestCore(p, driver)

	quiz, err := v1.NewQuizLogic(testCtx("t1", "u1"), app).GenerateQuiz("course-1", 5, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindQuizGeneration))

	require.NotNil(t, quiz)
	assert.Len(t, quiz.Questions, 2)
	// retries exhausted: the first call plus QuizMaxRetries more
	assert.Equal(t, app.Cfg().RAG.QuizMaxRetries+1, driver.Calls())

	stored, getErr := p.QuizStore().GetQuiz(testCtx("t1", "u1"), "t1", quiz.ID)
	require.NoError(t, getErr)
	assert.Len(t, stored.Questions, 2)
}

func TestGenerateQuizGivesUpWithoutValidQuestions(t *testing.T) {
	p := newMemoryProvider()
	seedCourse(p, "t1", "course-1")
	seedChunks(p, "t1", "course-1", 2)
	driver := &scriptedAI{Fallback: "not json at all"}
	app := newTestCore(p, driver)

	quiz, err := v1.NewQuizLogic(testCtx("t1", "u1"), app).GenerateQuiz("course-1", 3, "")
	require.Error(t, err)
	assert.Nil(t, quiz)
	assert.True(t, errors.Is(err, errors.KindQuizGeneration))
	assert.Empty(t, p.quizzes)
}

func TestGenerateQuizWithoutMaterialIsRejected(t *testing.T) {
	p := newMemoryProvider()
	seedCourse(p, "t1", "course-1")
	app := newTestCore(p, &scriptedAI{})

	_, err := v1.NewQuizLogic(testCtx("t1", "u1"), app).GenerateQuiz("course-1", 3, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindQuizGeneration))
	assert.Equal(t, http.StatusBadRequest, errors.CodeOf(err))
}

func TestGradeAttemptRecordsSubmission(t *testing.T) {
	p := newMemoryProvider()
	p.quizzes["quiz-1"] = types.Quiz{
		ID:       "quiz-1",
		TenantID: "t1",
		CourseID: "course-1",
		Questions: types.QuizQuestions{
			{ID: "q1", Question: "Q1", Options: []string{"a", "b"}, CorrectIndex: 0},
			{ID: "q2", Question: "Q2", Options: []string{"a", "b"}, CorrectIndex: 1},
		},
	}
	app := newTestCore(p, &scriptedAI{})

	res, err := v1.NewQuizLogic(testCtx("t1", "u1"), app).GradeAttempt("quiz-1", types.QuizAnswers{
		{QuestionID: "q1", AnswerIndex: 0},
		{QuestionID: "q2", AnswerIndex: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Correct)
	assert.Equal(t, 2, res.Total)
	assert.InDelta(t, 0.5, res.Score, 0.001)

	attempt, err := p.QuizAttemptStore().GetAttempt(testCtx("t1", "u1"), "t1", res.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, "quiz-1", attempt.QuizID)
	assert.Equal(t, 1, attempt.Correct)
}
