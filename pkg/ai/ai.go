package ai

import (
	"context"

	"github.com/sashabaranov/go-openai"
)

type MessageContext = openai.ChatCompletionMessage

// Embedder turns text into fixed-length vectors. Order of the result
// follows the order of the input.
type Embedder interface {
	EmbeddingForQuery(ctx context.Context, content []string) (EmbeddingResult, error)
	EmbeddingForDocument(ctx context.Context, title string, content []string) (EmbeddingResult, error)
	Dimension() int
}

// Generator wraps the chat completion call. It keeps no state beyond
// the network call so chat and quiz paths share one client.
type Generator interface {
	Generate(ctx context.Context, messages []MessageContext, opts GenerateOptions) (*GenerateResponse, error)
	Model() string
	Lang() string
}

type GenerateOptions struct {
	Temperature     float32
	MaxOutputTokens int
	JSONResponse    bool
}

type GenerateResponse struct {
	Message string
	Usage   Usage
}

type EmbeddingResult struct {
	Model string
	Data  [][]float32
	Usage Usage
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

const (
	MODEL_BASE_LANGUAGE_EN = "en"
	MODEL_BASE_LANGUAGE_CN = "zh"
)
