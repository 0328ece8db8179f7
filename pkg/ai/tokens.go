package ai

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sashabaranov/go-openai"
)

// TokenCounter measures a string in model tokens. The default counter
// is tiktoken backed; tests inject a deterministic one.
type TokenCounter func(text string) int

var (
	encoderCache sync.Map // model -> *tiktoken.Tiktoken
)

func encodingForModel(model string) (*tiktoken.Tiktoken, error) {
	if v, ok := encoderCache.Load(model); ok {
		return v.(*tiktoken.Tiktoken), nil
	}
	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("encoding for model: %w", err)
	}
	encoderCache.Store(model, tkm)
	return tkm, nil
}

// NewTokenCounter returns a counter for the given model. When the
// tokenizer tables cannot be resolved it degrades to a rune/4 estimate
// so ingestion keeps working offline.
func NewTokenCounter(model string) TokenCounter {
	tkm, err := encodingForModel(model)
	if err != nil {
		return EstimateTokens
	}
	return func(text string) int {
		return len(tkm.Encode(text, nil, nil))
	}
}

// EstimateTokens is the fallback heuristic, roughly four characters
// per token for latin text.
func EstimateTokens(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	return n/4 + 1
}

// NumTokens counts a whole message list including the per-message
// envelope overhead the chat format adds.
func NumTokens(messages []openai.ChatCompletionMessage, model string) (numTokens int, err error) {
	var tokensPerMessage int
	switch model {
	case "gpt-3.5-turbo-0301":
		tokensPerMessage = 4
	default:
		if !strings.Contains(model, "gpt-3.5") && !strings.Contains(model, "gpt-4") {
			model = "gpt-4-0613"
		}
		tokensPerMessage = 3
	}

	tkm, err := encodingForModel(model)
	if err != nil {
		return 0, err
	}

	for _, message := range messages {
		numTokens += tokensPerMessage
		numTokens += len(tkm.Encode(message.Content, nil, nil))
		numTokens += len(tkm.Encode(message.Role, nil, nil))
	}
	numTokens += 3 // reply is primed with <|start|>assistant<|message|>
	return numTokens, nil
}
