package srv

import (
	"github.com/studyhall-ai/studyhall/pkg/ai"
	"github.com/studyhall-ai/studyhall/pkg/ai/openai"
)

// AIDriver is everything the logic layer needs from a model provider:
// embeddings for the index and completions for tutoring and quizzes.
type AIDriver interface {
	ai.Embedder
	ai.Generator
}

func ApplyAI(cfg openai.Config) ApplyFunc {
	return func(s *Srv) {
		s.ai = NewAI(cfg)
		s.tokenCounter = ai.NewTokenCounter(cfg.ChatModel)
	}
}

// ApplyAIDriver injects a ready driver, used by tests.
func ApplyAIDriver(driver AIDriver, counter ai.TokenCounter) ApplyFunc {
	return func(s *Srv) {
		s.ai = driver
		s.tokenCounter = counter
	}
}

func NewAI(cfg openai.Config) AIDriver {
	return openai.New(cfg)
}
