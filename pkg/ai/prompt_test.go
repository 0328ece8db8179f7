package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/studyhall-ai/studyhall/pkg/types"
)

func TestBuildTutorSystemPromptAppendsMaterial(t *testing.T) {
	chunks := []types.RankedChunk{
		{Chunk: types.Chunk{ID: "c1", Content: "Photosynthesis converts light into energy."}},
		{Chunk: types.Chunk{ID: "c2", Content: "Chlorophyll absorbs red and blue light."}},
	}

	prompt := BuildTutorSystemPrompt("", chunks)
	assert.True(t, strings.HasPrefix(prompt, PROMPT_TUTOR_EN))
	assert.Contains(t, prompt, "[1] Photosynthesis")
	assert.Contains(t, prompt, "[2] Chlorophyll")
}

func TestBuildTutorSystemPromptWithoutMaterial(t *testing.T) {
	assert.Equal(t, PROMPT_TUTOR_NO_CONTEXT_EN, BuildTutorSystemPrompt("", nil))

	custom := "You are a study buddy."
	assert.Equal(t, custom, BuildTutorSystemPrompt(custom, nil))
}

func TestTutorPromptForLang(t *testing.T) {
	assert.Equal(t, PROMPT_TUTOR_CN, TutorPromptForLang("Mandarin"))
	assert.Equal(t, PROMPT_TUTOR_EN, TutorPromptForLang("English"))
	assert.Equal(t, PROMPT_TUTOR_EN, TutorPromptForLang(""))
}
