package openaiapi

import (
	"testing"

	"github.com/firebase/genkit/go/ai"
	goopenai "github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateResponse(t *testing.T) {
	resp := translateResponse(&goopenai.ChatCompletion{
		Choices: []goopenai.ChatCompletionChoice{
			{
				Message:      goopenai.ChatCompletionMessage{Content: "Tell a joke about dogs."},
				FinishReason: "length",
			},
		},
		Usage: goopenai.CompletionUsage{PromptTokens: 3, CompletionTokens: 5, TotalTokens: 8},
	})

	assert.Equal(t, ai.FinishReasonLength, resp.FinishReason)
	assert.Equal(t, "Tell a joke about dogs.", resp.Text())
	assert.Equal(t, 8, resp.Usage.TotalTokens)
}

func TestTranslateResponseWithoutChoices(t *testing.T) {
	resp := translateResponse(&goopenai.ChatCompletion{})
	require.NotNil(t, resp.Message)
	assert.Equal(t, ai.FinishReasonUnknown, resp.FinishReason)
	assert.Empty(t, resp.Text())
}

func TestTranslateFinishReason(t *testing.T) {
	assert.Equal(t, ai.FinishReasonStop, translateFinishReason("stop"))
	assert.Equal(t, ai.FinishReasonBlocked, translateFinishReason("content_filter"))
	assert.Equal(t, ai.FinishReasonOther, translateFinishReason("function_call"))
	assert.Equal(t, ai.FinishReasonUnknown, translateFinishReason(""))
}

func TestTranslateChunk(t *testing.T) {
	assert.Nil(t, translateChunk(goopenai.ChatCompletionChunk{}))

	chunk := translateChunk(goopenai.ChatCompletionChunk{
		Choices: []goopenai.ChatCompletionChunkChoice{
			{Delta: goopenai.ChatCompletionChunkChoicesDelta{Content: "Hel"}},
		},
	})
	require.NotNil(t, chunk)
	assert.Equal(t, "Hel", chunk.Text())
}
