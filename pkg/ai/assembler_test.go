package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall-ai/studyhall/pkg/errors"
	"github.com/studyhall-ai/studyhall/pkg/types"
)

// words counts whitespace separated words, deterministic for tests.
func words(text string) int {
	return len(strings.Fields(text))
}

func rankedChunk(id, content string, score float64) types.RankedChunk {
	c := types.RankedChunk{Score: score}
	c.ID = id
	c.Content = content
	return c
}

func historyMsg(role types.MessageUserRole, msg string) types.ChatMessage {
	return types.ChatMessage{Role: role, Message: msg}
}

func TestAssembleWithinBudget(t *testing.T) {
	in := AssembleInput{
		Chunks: []types.RankedChunk{
			rankedChunk("c1", "photosynthesis converts light into chemical energy", 0.92),
			rankedChunk("c2", "chlorophyll absorbs red and blue light", 0.85),
		},
		History: []types.ChatMessage{
			historyMsg(types.USER_ROLE_USER, "hello"),
			historyMsg(types.USER_ROLE_ASSISTANT, "hi, ask me about the course"),
		},
		UserMessage: "what is photosynthesis?",
		TokenBudget: 500,
		Count:       words,
	}

	out, err := Assemble(in)
	require.NoError(t, err)

	assert.LessOrEqual(t, out.TokenCount, in.TokenBudget)
	assert.Equal(t, []string{"c1", "c2"}, out.ChunkRefs)

	require.GreaterOrEqual(t, len(out.Messages), 2)
	assert.Equal(t, "system", out.Messages[0].Role)
	assert.Contains(t, out.Messages[0].Content, "photosynthesis converts light")
	last := out.Messages[len(out.Messages)-1]
	assert.Equal(t, "user", last.Role)
	assert.Equal(t, "what is photosynthesis?", last.Content)
}

func TestAssembleTrimsOldestHistoryFirst(t *testing.T) {
	long := strings.Repeat("word ", 40)
	in := AssembleInput{
		History: []types.ChatMessage{
			historyMsg(types.USER_ROLE_USER, long+"oldest"),
			historyMsg(types.USER_ROLE_ASSISTANT, "short answer one"),
			historyMsg(types.USER_ROLE_USER, "short question two"),
		},
		UserMessage: "current question",
		TokenBudget: 80,
		Count:       words,
	}

	out, err := Assemble(in)
	require.NoError(t, err)

	joined := ""
	for _, m := range out.Messages {
		joined += m.Content + "\n"
	}
	assert.NotContains(t, joined, "oldest")
	assert.Contains(t, joined, "short answer one")
	assert.Contains(t, joined, "short question two")
	assert.Contains(t, joined, "current question")
}

func TestAssembleNoChunksStillValid(t *testing.T) {
	out, err := Assemble(AssembleInput{
		UserMessage: "What is photosynthesis?",
		History: []types.ChatMessage{
			historyMsg(types.USER_ROLE_USER, "hi"),
		},
		TokenBudget: 300,
		Count:       words,
	})
	require.NoError(t, err)

	assert.Empty(t, out.ChunkRefs)
	assert.Equal(t, "system", out.Messages[0].Role)
	assert.NotContains(t, out.Messages[0].Content, "Course material:")
	assert.Equal(t, "What is photosynthesis?", out.Messages[len(out.Messages)-1].Content)
}

// recount applies the same per-message accounting Assemble uses.
func recount(messages []MessageContext) int {
	total := tokensPriming
	for _, m := range messages {
		total += words(m.Content) + tokensPerMessage
	}
	return total
}

func TestAssembleChargesMaterialHeader(t *testing.T) {
	in := AssembleInput{
		SystemPrompt: "sys",
		Chunks:       []types.RankedChunk{rankedChunk("c1", "aa", 0.9)},
		UserMessage:  "hello",
		TokenBudget:  14,
		Count:        words,
	}

	out, err := Assemble(in)
	require.NoError(t, err)

	// the material header would push the chunk past the budget, so the
	// chunk is dropped rather than smuggled in uncounted
	assert.Empty(t, out.ChunkRefs)
	assert.NotContains(t, out.Messages[0].Content, "Course material:")
	assert.LessOrEqual(t, recount(out.Messages), in.TokenBudget)

	in.TokenBudget = 24
	out, err = Assemble(in)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1"}, out.ChunkRefs)
	assert.Contains(t, out.Messages[0].Content, "Course material:")
	assert.Equal(t, recount(out.Messages), out.TokenCount)
	assert.LessOrEqual(t, out.TokenCount, in.TokenBudget)
}

func TestAssembleOverflowIsAnError(t *testing.T) {
	_, err := Assemble(AssembleInput{
		UserMessage: strings.Repeat("question ", 200),
		TokenBudget: 50,
		Count:       words,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.KindContextOverflow))
}

func TestAssembleChunkBudgetSharePreservesHistoryRoom(t *testing.T) {
	var chunks []types.RankedChunk
	for i := 0; i < 20; i++ {
		chunks = append(chunks, rankedChunk("c", strings.Repeat("material ", 30), 0.9))
	}
	in := AssembleInput{
		Chunks: chunks,
		History: []types.ChatMessage{
			historyMsg(types.USER_ROLE_USER, "earlier question"),
		},
		UserMessage: "now",
		TokenBudget: 200,
		ChunkRatio:  0.5,
		Count:       words,
	}

	out, err := Assemble(in)
	require.NoError(t, err)
	assert.LessOrEqual(t, out.TokenCount, in.TokenBudget)

	joined := ""
	for _, m := range out.Messages {
		joined += m.Content + "\n"
	}
	assert.Contains(t, joined, "earlier question")
}
