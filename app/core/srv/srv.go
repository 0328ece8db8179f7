package srv

import (
	"github.com/studyhall-ai/studyhall/pkg/ai"
)

type ApplyFunc func(*Srv)

// Srv holds the external service drivers the engine talks to.
type Srv struct {
	ai           AIDriver
	tokenCounter ai.TokenCounter
}

func SetupSrvs(opts ...ApplyFunc) *Srv {
	a := &Srv{}

	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (s *Srv) AI() AIDriver {
	return s.ai
}

// TokenCounter counts tokens with the chat model's encoding.
func (s *Srv) TokenCounter() ai.TokenCounter {
	return s.tokenCounter
}
