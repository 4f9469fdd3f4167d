package googleai

import (
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/habiliai/oursgpt/internal/genkit/plugins/pluginconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestConvertRequest(t *testing.T) {
	contents, config, err := convertRequest(&ai.ModelRequest{
		Messages: []*ai.Message{
			ai.NewSystemTextMessage("You are OursGPT."),
			{
				Role: ai.RoleUser,
				Content: []*ai.Part{
					ai.NewMediaPart("image/png", "data:image/png;base64,aW1n"),
					ai.NewTextPart("what is this?"),
				},
			},
			ai.NewModelTextMessage("a picture"),
		},
	})
	require.NoError(t, err)

	require.NotNil(t, config.SystemInstruction)
	assert.Equal(t, "You are OursGPT.", config.SystemInstruction.Parts[0].Text)

	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	require.Len(t, contents[0].Parts, 2)
	require.NotNil(t, contents[0].Parts[0].InlineData)
	assert.Equal(t, []byte("img"), contents[0].Parts[0].InlineData.Data)
	assert.Equal(t, "image/png", contents[0].Parts[0].InlineData.MIMEType)
	assert.Equal(t, "what is this?", contents[0].Parts[1].Text)
	assert.Equal(t, "model", contents[1].Role)
}

func TestConvertMediaRejectsBadData(t *testing.T) {
	_, err := convertMedia(ai.NewMediaPart("image/png", "data:image/png,raw"))
	assert.Error(t, err)

	_, err = convertMedia(ai.NewMediaPart("image/png", "not base64!"))
	assert.Error(t, err)

	part, err := convertMedia(ai.NewMediaPart("image/jpeg", "https://example.com/cat.jpg"))
	require.NoError(t, err)
	require.NotNil(t, part.FileData)
	assert.Equal(t, "https://example.com/cat.jpg", part.FileData.FileURI)
}

func TestApplyConfig(t *testing.T) {
	config := &genai.GenerateContentConfig{}
	require.NoError(t, applyCommonConfig(&ai.GenerationCommonConfig{Temperature: 0.7, TopP: 0.95, MaxOutputTokens: 8192}, config))
	require.NotNil(t, config.Temperature)
	assert.InDelta(t, 0.7, *config.Temperature, 1e-6)
	assert.InDelta(t, 0.95, *config.TopP, 1e-6)
	assert.EqualValues(t, 8192, config.MaxOutputTokens)
	assert.Nil(t, config.TopK)

	config = &genai.GenerateContentConfig{}
	require.NoError(t, applyImageConfig(&pluginconfig.ImageConfig{AspectRatio: "1:1", ImageSize: "1K"}, config))
	require.NotNil(t, config.ImageConfig)
	assert.Equal(t, "1:1", config.ImageConfig.AspectRatio)
	assert.Equal(t, "1K", config.ImageConfig.ImageSize)

	config = &genai.GenerateContentConfig{}
	require.NoError(t, applyImageConfig(nil, config))
	assert.Nil(t, config.ImageConfig)
}

func TestTranslateResponse(t *testing.T) {
	resp := translateResponse(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Role: "model",
					Parts: []*genai.Part{
						{Text: "thinking...", Thought: true},
						{Text: "Here you go."},
						{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("img")}},
					},
				},
				FinishReason: genai.FinishReasonStop,
			},
		},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     4,
			CandidatesTokenCount: 6,
			TotalTokenCount:      10,
		},
	})

	assert.Equal(t, ai.FinishReasonStop, resp.FinishReason)
	require.Len(t, resp.Message.Content, 2)
	assert.Equal(t, "Here you go.", resp.Message.Content[0].Text)
	assert.True(t, resp.Message.Content[1].IsMedia())
	assert.Equal(t, "data:image/png;base64,aW1n", resp.Message.Content[1].Text)
	assert.Equal(t, 10, resp.Usage.TotalTokens)
}

func TestTranslateBlockedPrompt(t *testing.T) {
	resp := translateResponse(&genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
	})
	assert.Equal(t, ai.FinishReasonBlocked, resp.FinishReason)
	assert.Empty(t, resp.Message.Content)
}

func TestMergeText(t *testing.T) {
	media := ai.NewMediaPart("image/png", "data:image/png;base64,aW1n")
	merged := mergeText([]*ai.Part{ai.NewTextPart("Hel"), ai.NewTextPart("lo"), media, ai.NewTextPart("!")})

	require.Len(t, merged, 3)
	assert.Equal(t, "Hello", merged[0].Text)
	assert.Same(t, media, merged[1])
	assert.Equal(t, "!", merged[2].Text)
}
