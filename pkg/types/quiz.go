package types

import (
	"encoding/json"
	"fmt"
)

type QuizDifficulty string

const (
	QUIZ_DIFFICULTY_BEGINNER     QuizDifficulty = "beginner"
	QUIZ_DIFFICULTY_INTERMEDIATE QuizDifficulty = "intermediate"
	QUIZ_DIFFICULTY_ADVANCED     QuizDifficulty = "advanced"
)

type Quiz struct {
	ID         string         `json:"id" db:"id"`
	TenantID   string         `json:"tenant_id" db:"tenant_id"`
	CourseID   string         `json:"course_id" db:"course_id"`
	Title      string         `json:"title" db:"title"`
	Difficulty QuizDifficulty `json:"difficulty" db:"difficulty"`
	Questions  QuizQuestions  `json:"questions" db:"questions"`
	CreatedAt  int64          `json:"created_at" db:"created_at"`
}

type QuizQuestion struct {
	ID           string   `json:"id"`
	Seq          int      `json:"seq"`
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
	ChunkRefs    []string `json:"chunk_refs"`
}

// Valid enforces the acceptance rules for a generated item: non-empty
// prompt, at least two options, correct index within range.
func (q QuizQuestion) Valid() bool {
	if q.Question == "" {
		return false
	}
	if len(q.Options) < 2 {
		return false
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return false
	}
	return true
}

type QuizQuestions []QuizQuestion

func (s QuizQuestions) Value() (interface{}, error) {
	if s == nil {
		s = QuizQuestions{}
	}
	return json.Marshal(s)
}

func (s *QuizQuestions) Scan(src interface{}) error {
	switch src := src.(type) {
	case []byte:
		return s.scanBytes(src)
	case string:
		return s.scanBytes([]byte(src))
	case nil:
		*s = nil
		return nil
	}
	return fmt.Errorf("pq: cannot convert %T to QuizQuestions", src)
}

func (s *QuizQuestions) scanBytes(src []byte) error {
	if len(src) == 0 {
		*s = QuizQuestions{}
		return nil
	}
	return json.Unmarshal(src, s)
}

type QuizAnswer struct {
	QuestionID  string `json:"question_id"`
	AnswerIndex int    `json:"answer_index"` // -1 means unanswered
}

type QuizAnswers []QuizAnswer

func (s QuizAnswers) Value() (interface{}, error) {
	if s == nil {
		s = QuizAnswers{}
	}
	return json.Marshal(s)
}

func (s *QuizAnswers) Scan(src interface{}) error {
	switch src := src.(type) {
	case []byte:
		return s.scanBytes(src)
	case string:
		return s.scanBytes([]byte(src))
	case nil:
		*s = nil
		return nil
	}
	return fmt.Errorf("pq: cannot convert %T to QuizAnswers", src)
}

func (s *QuizAnswers) scanBytes(src []byte) error {
	if len(src) == 0 {
		*s = QuizAnswers{}
		return nil
	}
	return json.Unmarshal(src, s)
}

// QuizAttempt is created on submission and immutable after grading.
type QuizAttempt struct {
	ID        string      `json:"id" db:"id"`
	TenantID  string      `json:"tenant_id" db:"tenant_id"`
	QuizID    string      `json:"quiz_id" db:"quiz_id"`
	UserID    string      `json:"user_id" db:"user_id"`
	Answers   QuizAnswers `json:"answers" db:"answers"`
	Correct   int         `json:"correct" db:"correct"`
	Total     int         `json:"total" db:"total"`
	Score     float64     `json:"score" db:"score"`
	CreatedAt int64       `json:"created_at" db:"created_at"`
}
