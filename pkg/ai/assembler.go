package ai

import (
	"fmt"
	"net/http"

	"github.com/samber/lo"

	"github.com/studyhall-ai/studyhall/pkg/errors"
	"github.com/studyhall-ai/studyhall/pkg/i18n"
	"github.com/studyhall-ai/studyhall/pkg/types"
)

// Per-message envelope overhead of the chat format, matching NumTokens.
const (
	tokensPerMessage = 3
	tokensPriming    = 3
)

const defaultChunkRatio = 0.6

type AssembleInput struct {
	// SystemPrompt is the tutor instruction without any material. Empty
	// selects the built-in default.
	SystemPrompt string
	// Chunks are ranked highest score first. May be empty.
	Chunks []types.RankedChunk
	// History is the session's bounded window, oldest first.
	History []types.ChatMessage
	// UserMessage is the current question and must always survive intact.
	UserMessage string
	// TokenBudget caps the whole assembled prompt.
	TokenBudget int
	// ChunkRatio is the share of the leftover budget reserved for
	// retrieved material, defaults to 0.6.
	ChunkRatio float64
	// Count measures text in tokens, defaults to EstimateTokens.
	Count TokenCounter
}

type Assembled struct {
	Messages   []MessageContext
	ChunkRefs  []string
	TokenCount int
}

// Assemble merges system instructions, retrieved chunks and history
// into a prompt that never exceeds the budget. Chunks are admitted
// highest score first, history newest first (so trimming drops the
// oldest turns). When even system + current user message will not fit,
// the call fails instead of truncating the user's question.
func Assemble(in AssembleInput) (*Assembled, error) {
	count := in.Count
	if count == nil {
		count = EstimateTokens
	}
	ratio := in.ChunkRatio
	if ratio <= 0 || ratio > 1 {
		ratio = defaultChunkRatio
	}

	baseCost := count(in.SystemPrompt)
	if in.SystemPrompt == "" {
		// Either default tutor prompt can end up as the system message,
		// depending on whether any chunk is admitted. Budget the larger.
		baseCost = count(PROMPT_TUTOR_EN)
		if noCtx := count(PROMPT_TUTOR_NO_CONTEXT_EN); noCtx > baseCost {
			baseCost = noCtx
		}
	}

	baseTokens := baseCost + tokensPerMessage
	userTokens := count(in.UserMessage) + tokensPerMessage
	skeleton := baseTokens + userTokens + tokensPriming
	if skeleton > in.TokenBudget {
		return nil, errors.New("ai.Assemble.skeleton", i18n.ERROR_CONTEXT_OVERFLOW,
			fmt.Errorf("minimal prompt needs %d tokens, budget is %d", skeleton, in.TokenBudget)).
			Kind(errors.KindContextOverflow).Code(http.StatusRequestEntityTooLarge)
	}

	remaining := in.TokenBudget - skeleton

	chunkBudget := int(float64(remaining) * ratio)
	headerCost := count(materialHeader)
	var used []types.RankedChunk
	for _, c := range in.Chunks {
		cost := count(chunkLine(len(used)+1, c))
		if len(used) == 0 {
			// The first admitted chunk also pays for the material header
			// the system prompt grows by.
			cost += headerCost
		}
		if cost > chunkBudget {
			continue
		}
		chunkBudget -= cost
		remaining -= cost
		used = append(used, c)
	}

	var history []types.ChatMessage
	for i := len(in.History) - 1; i >= 0; i-- {
		msg := in.History[i]
		cost := count(msg.Message) + tokensPerMessage
		if cost > remaining {
			break
		}
		remaining -= cost
		history = append([]types.ChatMessage{msg}, history...)
	}

	system := BuildTutorSystemPrompt(in.SystemPrompt, used)
	messages := make([]MessageContext, 0, len(history)+2)
	messages = append(messages, MessageContext{Role: types.USER_ROLE_SYSTEM.String(), Content: system})
	for _, msg := range history {
		messages = append(messages, MessageContext{Role: msg.Role.String(), Content: msg.Message})
	}
	messages = append(messages, MessageContext{Role: types.USER_ROLE_USER.String(), Content: in.UserMessage})

	// Recount the emitted messages rather than reporting the running
	// accounting, so the figure reflects what actually goes on the wire.
	total := tokensPriming
	for _, m := range messages {
		total += count(m.Content) + tokensPerMessage
	}

	return &Assembled{
		Messages:   messages,
		ChunkRefs:  lo.Map(used, func(c types.RankedChunk, _ int) string { return c.ID }),
		TokenCount: total,
	}, nil
}

func chunkLine(no int, c types.RankedChunk) string {
	return fmt.Sprintf("[%d] %s\n", no, c.Content)
}
