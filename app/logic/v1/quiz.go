package v1

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/lo"

	"github.com/studyhall-ai/studyhall/app/core"
	"github.com/studyhall-ai/studyhall/pkg/ai"
	"github.com/studyhall-ai/studyhall/pkg/errors"
	"github.com/studyhall-ai/studyhall/pkg/i18n"
	"github.com/studyhall-ai/studyhall/pkg/types"
	"github.com/studyhall-ai/studyhall/pkg/utils"
)

const (
	// quizChunkLimit caps how much material one generation call sees.
	quizChunkLimit = 12
	// quizChunkPoolSize caps how many chunks are loaded for selection.
	quizChunkPoolSize = 500
)

type QuizLogic struct {
	ctx  context.Context
	core *core.Core
	TenantInfo
}

func NewQuizLogic(ctx context.Context, core *core.Core) *QuizLogic {
	return &QuizLogic{
		ctx:        ctx,
		core:       core,
		TenantInfo: SetupTenantInfo(ctx),
	}
}

// GenerateQuiz builds a multiple-choice quiz from the course's indexed
// material. Malformed model output is retried up to the configured cap.
// When retries run out with some valid questions in hand, the error
// carries them so the caller can keep the partial result.
func (l *QuizLogic) GenerateQuiz(courseID string, count int, difficulty types.QuizDifficulty) (*types.Quiz, error) {
	if count <= 0 {
		return nil, errors.New("QuizLogic.GenerateQuiz.count", i18n.ERROR_INVALID_ARGUMENT, nil).Code(http.StatusBadRequest)
	}
	switch difficulty {
	case types.QUIZ_DIFFICULTY_BEGINNER, types.QUIZ_DIFFICULTY_INTERMEDIATE, types.QUIZ_DIFFICULTY_ADVANCED:
	case "":
		difficulty = types.QUIZ_DIFFICULTY_INTERMEDIATE
	default:
		return nil, errors.New("QuizLogic.GenerateQuiz.difficulty", i18n.ERROR_INVALID_ARGUMENT, nil).Code(http.StatusBadRequest)
	}

	if _, err := NewCourseLogic(l.ctx, l.core).GetCourse(courseID); err != nil {
		return nil, err
	}

	pool, err := l.core.Store().ChunkStore().ListByCourse(l.ctx, l.TenantID(), courseID, 1, quizChunkPoolSize)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("QuizLogic.GenerateQuiz.ChunkStore.ListByCourse", i18n.ERROR_INTERNAL, err)
	}
	if len(pool) == 0 {
		return nil, errors.New("QuizLogic.GenerateQuiz.nomaterial", i18n.ERROR_NO_COURSE_MATERIAL, nil).
			Code(http.StatusBadRequest).Kind(errors.KindQuizGeneration)
	}

	selected := SelectDiverseChunks(pool, quizChunkLimit)
	ranked := lo.Map(selected, func(item types.Chunk, _ int) types.RankedChunk {
		return types.RankedChunk{Chunk: item}
	})
	chunkRefs := lo.Map(selected, func(item types.Chunk, _ int) string { return item.ID })

	messages := []ai.MessageContext{
		{Role: types.USER_ROLE_SYSTEM.String(), Content: ai.PROMPT_QUIZ_EN},
		{Role: types.USER_ROLE_USER.String(), Content: ai.BuildQuizUserPrompt(count, difficulty, ranked)},
	}

	var (
		valid   []types.QuizQuestion
		lastErr error
	)
	attempts := l.core.Cfg().RAG.QuizMaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			l.core.Metrics().QuizRetryInc()
		}

		llmTimer := l.core.Metrics().LLMRequestTimer("quiz")
		resp, err := l.core.Srv().AI().Generate(l.ctx, messages, ai.GenerateOptions{Temperature: 0.7})
		llmTimer.ObserveDuration()
		if err != nil {
			l.core.Metrics().LLMErrorInc(string(errors.KindOf(err)))
			return nil, errors.Trace("QuizLogic.GenerateQuiz.Generate", err)
		}

		questions, err := ParseQuizResponse(resp.Message)
		if err != nil {
			lastErr = err
			continue
		}

		batch := lo.Filter(questions, func(q types.QuizQuestion, _ int) bool { return q.Valid() })
		valid = mergeQuestions(valid, batch)
		if len(valid) >= count {
			valid = valid[:count]
			break
		}
		lastErr = fmt.Errorf("model returned %d valid questions, want %d", len(valid), count)
	}

	if len(valid) == 0 {
		return nil, errors.New("QuizLogic.GenerateQuiz.invalid", i18n.ERROR_QUIZ_GENERATION, lastErr).
			Code(http.StatusBadGateway).Kind(errors.KindQuizGeneration)
	}

	for i := range valid {
		valid[i].ID = utils.GenUniqIDStr()
		valid[i].Seq = i + 1
		valid[i].ChunkRefs = chunkRefs
	}

	quiz := types.Quiz{
		ID:         utils.GenUniqIDStr(),
		TenantID:   l.TenantID(),
		CourseID:   courseID,
		Title:      fmt.Sprintf("%s quiz (%d questions)", difficulty, len(valid)),
		Difficulty: difficulty,
		Questions:  valid,
	}

	if err := l.core.Store().QuizStore().Create(l.ctx, quiz); err != nil {
		return nil, errors.New("QuizLogic.GenerateQuiz.QuizStore.Create", i18n.ERROR_INTERNAL, err)
	}

	if len(valid) < count {
		// Stored what we got, but tell the caller it is short.
		return &quiz, errors.New("QuizLogic.GenerateQuiz.partial", i18n.ERROR_QUIZ_GENERATION, lastErr).
			Code(http.StatusPartialContent).Kind(errors.KindQuizGeneration).
			WithData(map[string]interface{}{
				"quiz_id":   quiz.ID,
				"requested": count,
				"generated": len(valid),
			})
	}

	return &quiz, nil
}

func (l *QuizLogic) GetQuiz(quizID string) (*types.Quiz, error) {
	quiz, err := l.core.Store().QuizStore().GetQuiz(l.ctx, l.TenantID(), quizID)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("QuizLogic.GetQuiz.QuizStore.GetQuiz", i18n.ERROR_INTERNAL, err)
	}
	if quiz == nil || err == sql.ErrNoRows {
		return nil, errors.New("QuizLogic.GetQuiz.notfound", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}
	return quiz, nil
}

func (l *QuizLogic) ListQuizzes(courseID string, page, pageSize uint64) ([]types.Quiz, error) {
	list, err := l.core.Store().QuizStore().ListByCourse(l.ctx, l.TenantID(), courseID, page, pageSize)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("QuizLogic.ListQuizzes.QuizStore.ListByCourse", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}

func (l *QuizLogic) DeleteQuiz(quizID string) error {
	quiz, err := l.GetQuiz(quizID)
	if err != nil {
		return err
	}

	// attempts stay as grading history
	if err := l.core.Store().QuizStore().Delete(l.ctx, l.TenantID(), quiz.ID); err != nil {
		return errors.New("QuizLogic.DeleteQuiz.QuizStore.Delete", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

func (l *QuizLogic) GetAttempt(attemptID string) (*types.QuizAttempt, error) {
	attempt, err := l.core.Store().QuizAttemptStore().GetAttempt(l.ctx, l.TenantID(), attemptID)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("QuizLogic.GetAttempt.QuizAttemptStore.GetAttempt", i18n.ERROR_INTERNAL, err)
	}
	if attempt == nil || err == sql.ErrNoRows {
		return nil, errors.New("QuizLogic.GetAttempt.notfound", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}
	return attempt, nil
}

func (l *QuizLogic) ListAttempts(quizID string, page, pageSize uint64) ([]types.QuizAttempt, error) {
	quiz, err := l.GetQuiz(quizID)
	if err != nil {
		return nil, err
	}

	list, err := l.core.Store().QuizAttemptStore().ListByQuiz(l.ctx, l.TenantID(), quiz.ID, page, pageSize)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("QuizLogic.ListAttempts.QuizAttemptStore.ListByQuiz", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}

type GradeResult struct {
	AttemptID string           `json:"attempt_id"`
	Correct   int              `json:"correct"`
	Total     int              `json:"total"`
	Score     float64          `json:"score"`
	Review    []QuestionReview `json:"review"`
}

type QuestionReview struct {
	QuestionID   string `json:"question_id"`
	AnswerIndex  int    `json:"answer_index"`
	CorrectIndex int    `json:"correct_index"`
	Correct      bool   `json:"correct"`
	Explanation  string `json:"explanation"`
}

// GradeAttempt scores a submission against the stored quiz and records
// the attempt. Unanswered questions count as wrong.
func (l *QuizLogic) GradeAttempt(quizID string, answers types.QuizAnswers) (*GradeResult, error) {
	quiz, err := l.GetQuiz(quizID)
	if err != nil {
		return nil, err
	}

	correct, review := GradeQuiz(quiz.Questions, answers)

	attempt := types.QuizAttempt{
		ID:       utils.GenUniqIDStr(),
		TenantID: l.TenantID(),
		QuizID:   quiz.ID,
		UserID:   l.UserID(),
		Answers:  answers,
		Correct:  correct,
		Total:    len(quiz.Questions),
		Score:    float64(correct) / float64(len(quiz.Questions)),
	}

	if err := l.core.Store().QuizAttemptStore().Create(l.ctx, attempt); err != nil {
		return nil, errors.New("QuizLogic.GradeAttempt.QuizAttemptStore.Create", i18n.ERROR_INTERNAL, err)
	}

	return &GradeResult{
		AttemptID: attempt.ID,
		Correct:   attempt.Correct,
		Total:     attempt.Total,
		Score:     attempt.Score,
		Review:    review,
	}, nil
}

// GradeQuiz is the pure scoring rule shared by grading and tests.
func GradeQuiz(questions types.QuizQuestions, answers types.QuizAnswers) (int, []QuestionReview) {
	answered := make(map[string]int, len(answers))
	for _, a := range answers {
		answered[a.QuestionID] = a.AnswerIndex
	}

	correct := 0
	review := make([]QuestionReview, 0, len(questions))
	for _, q := range questions {
		idx, ok := answered[q.ID]
		if !ok {
			idx = -1
		}
		hit := idx == q.CorrectIndex
		if hit {
			correct++
		}
		review = append(review, QuestionReview{
			QuestionID:   q.ID,
			AnswerIndex:  idx,
			CorrectIndex: q.CorrectIndex,
			Correct:      hit,
			Explanation:  q.Explanation,
		})
	}
	return correct, review
}

// ParseQuizResponse decodes the model's question array, tolerating a
// markdown code fence around the JSON.
func ParseQuizResponse(raw string) ([]types.QuizQuestion, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var questions []types.QuizQuestion
	if err := json.Unmarshal([]byte(text), &questions); err != nil {
		return nil, fmt.Errorf("quiz response is not a question array: %w", err)
	}
	return questions, nil
}

// SelectDiverseChunks picks up to limit chunks round-robin across
// documents so one long document cannot crowd out the rest.
func SelectDiverseChunks(pool []types.Chunk, limit int) []types.Chunk {
	if limit <= 0 || len(pool) <= limit {
		return pool
	}

	byDoc := make(map[string][]types.Chunk)
	var docOrder []string
	for _, c := range pool {
		if _, ok := byDoc[c.DocumentID]; !ok {
			docOrder = append(docOrder, c.DocumentID)
		}
		byDoc[c.DocumentID] = append(byDoc[c.DocumentID], c)
	}

	var selected []types.Chunk
	for len(selected) < limit {
		progressed := false
		for _, docID := range docOrder {
			if len(byDoc[docID]) == 0 {
				continue
			}
			selected = append(selected, byDoc[docID][0])
			byDoc[docID] = byDoc[docID][1:]
			progressed = true
			if len(selected) == limit {
				break
			}
		}
		if !progressed {
			break
		}
	}
	return selected
}

// mergeQuestions appends new questions, skipping duplicate prompts.
func mergeQuestions(have, add []types.QuizQuestion) []types.QuizQuestion {
	seen := make(map[string]struct{}, len(have))
	for _, q := range have {
		seen[q.Question] = struct{}{}
	}
	for _, q := range add {
		if _, ok := seen[q.Question]; ok {
			continue
		}
		seen[q.Question] = struct{}{}
		have = append(have, q)
	}
	return have
}
