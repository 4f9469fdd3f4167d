package openaiapi

import (
	"context"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
	"github.com/habiliai/oursgpt/internal/genkit/plugins/pluginconfig"
	goopenai "github.com/openai/openai-go"
	"github.com/pkg/errors"
)

// DefineImageModel registers an Images API model. The prompt is the text of
// the last user message; the image comes back as a base64 media part.
func DefineImageModel(g *genkit.Genkit, client *goopenai.Client, labelPrefix, provider, name string) ai.Model {
	meta := &ai.ModelInfo{
		Label:    labelPrefix + " - " + name,
		Supports: &pluginconfig.ImageOutput,
	}
	return genkit.DefineModel(
		g,
		provider,
		name,
		meta,
		func(ctx context.Context, req *ai.ModelRequest, _ core.StreamCallback[*ai.ModelResponseChunk]) (*ai.ModelResponse, error) {
			return generateImage(ctx, client, name, req)
		},
	)
}

func generateImage(ctx context.Context, client *goopenai.Client, model string, input *ai.ModelRequest) (*ai.ModelResponse, error) {
	params, err := convertImageRequest(model, input)
	if err != nil {
		return nil, err
	}

	res, err := client.Images.Generate(ctx, params)
	if err != nil {
		return nil, err
	}

	m := &ai.Message{Role: ai.RoleModel}
	for _, img := range res.Data {
		if img.B64JSON == "" {
			continue
		}
		m.Content = append(m.Content, ai.NewMediaPart("image/png", "data:image/png;base64,"+img.B64JSON))
	}

	finishReason := ai.FinishReasonStop
	if len(m.Content) == 0 {
		finishReason = ai.FinishReasonBlocked
	}
	return &ai.ModelResponse{
		Message:      m,
		FinishReason: finishReason,
		Request:      input,
	}, nil
}

func convertImageRequest(model string, input *ai.ModelRequest) (goopenai.ImageGenerateParams, error) {
	var prompt string
	for i := len(input.Messages) - 1; i >= 0; i-- {
		if input.Messages[i].Role == ai.RoleUser {
			prompt = input.Messages[i].Text()
			break
		}
	}
	if prompt == "" {
		return goopenai.ImageGenerateParams{}, errors.New("image generation requires a text prompt")
	}

	var c pluginconfig.ImageConfig
	if err := pluginconfig.Decode(input.Config, &c); err != nil {
		return goopenai.ImageGenerateParams{}, err
	}

	return goopenai.ImageGenerateParams{
		Prompt:         goopenai.F(prompt),
		Model:          goopenai.F(goopenai.ImageModel(model)),
		N:              goopenai.Int(1),
		ResponseFormat: goopenai.F(goopenai.ImageGenerateParamsResponseFormatB64JSON),
		Size:           goopenai.F(imageSize(c.AspectRatio)),
	}, nil
}

func imageSize(aspectRatio string) goopenai.ImageGenerateParamsSize {
	switch aspectRatio {
	case "16:9", "3:2", "4:3":
		return goopenai.ImageGenerateParamsSize1792x1024
	case "9:16", "2:3", "3:4":
		return goopenai.ImageGenerateParamsSize1024x1792
	default:
		return goopenai.ImageGenerateParamsSize1024x1024
	}
}
