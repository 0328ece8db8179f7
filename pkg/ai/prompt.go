package ai

import (
	"fmt"
	"strings"

	"github.com/studyhall-ai/studyhall/pkg/types"
)

const PROMPT_TUTOR_EN = `You are a patient course tutor. Answer the learner's question using only the course material provided below. If the material does not cover the question, say so plainly instead of guessing. Answer in the learner's language.`

const PROMPT_TUTOR_CN = `你是一名耐心的课程辅导老师。请仅根据下方提供的课程资料回答学员的问题。如果资料没有覆盖该问题，请直接说明，不要臆测。请使用学员提问的语言回答。`

const PROMPT_TUTOR_NO_CONTEXT_EN = `You are a patient course tutor. No course material matched the learner's question. Answer from general knowledge, and tell the learner the course material does not cover this topic.`

const PROMPT_QUIZ_EN = `You are an expert quiz author for online courses. Write multiple-choice questions strictly based on the course material provided below. Return ONLY a JSON array, no prose, where every element has this shape:
{"question": "...", "options": ["...", "...", "...", "..."], "correct_index": 0, "explanation": "..."}
Each question must have at least two options and exactly one correct answer, referenced by correct_index.`

const PROMPT_NAMED_SESSION_EN = `Summarize the user's first question into a short session title, at most six words, in the question's language. Return the title only.`

// materialHeader separates the tutor instruction from the retrieved
// chunks. Assemble charges its token cost together with the first
// admitted chunk.
const materialHeader = "\n\nCourse material:\n"

// TutorPromptForLang picks the default tutor prompt for the language
// detected in the learner's question.
func TutorPromptForLang(lang string) string {
	switch lang {
	case "Mandarin":
		return PROMPT_TUTOR_CN
	default:
		return PROMPT_TUTOR_EN
	}
}

// BuildTutorSystemPrompt renders the tutor system message, appending
// the retrieved material when there is any. An empty chunk list is a
// valid input, generation then proceeds without course context.
func BuildTutorSystemPrompt(base string, chunks []types.RankedChunk) string {
	if base == "" {
		if len(chunks) == 0 {
			return PROMPT_TUTOR_NO_CONTEXT_EN
		}
		base = PROMPT_TUTOR_EN
	}
	if len(chunks) == 0 {
		return base
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString(materialHeader)
	for i, c := range chunks {
		b.WriteString(fmt.Sprintf("[%d] %s\n", i+1, c.Content))
	}
	return b.String()
}

// BuildQuizUserPrompt renders the quiz generation request.
func BuildQuizUserPrompt(count int, difficulty types.QuizDifficulty, chunks []types.RankedChunk) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Write %d %s difficulty questions based on this course material:\n\n", count, difficulty))
	for i, c := range chunks {
		b.WriteString(fmt.Sprintf("[%d] %s\n", i+1, c.Content))
	}
	return b.String()
}
