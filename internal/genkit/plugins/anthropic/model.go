package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
	"github.com/habiliai/oursgpt/internal/genkit/plugins/pluginconfig"
)

// DefineModel creates and registers a new generative model with Genkit.
func DefineModel(g *genkit.Genkit, client *anthropic.Client, labelPrefix, provider, modelName, apiModelName string, caps ai.ModelSupports) ai.Model {
	meta := &ai.ModelInfo{
		Label:    labelPrefix + " - " + modelName,
		Supports: &caps,
	}

	return genkit.DefineModel(
		g,
		provider,
		modelName,
		meta,
		func(ctx context.Context, req *ai.ModelRequest, cb core.StreamCallback[*ai.ModelResponseChunk]) (*ai.ModelResponse, error) {
			if cb == nil {
				return generate(ctx, client, req, apiModelName)
			}
			return generateStream(ctx, client, req, apiModelName, cb)
		},
	)
}

func generate(ctx context.Context, client *anthropic.Client, genRequest *ai.ModelRequest, apiModelName string) (*ai.ModelResponse, error) {
	params, err := buildMessageParams(genRequest, apiModelName)
	if err != nil {
		return nil, err
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic message generation failed: %w", err)
	}

	r := translateResponse(*resp)
	r.Request = genRequest
	return r, nil
}

func generateStream(ctx context.Context, client *anthropic.Client, genRequest *ai.ModelRequest, apiModelName string, cb core.StreamCallback[*ai.ModelResponseChunk]) (*ai.ModelResponse, error) {
	params, err := buildMessageParams(genRequest, apiModelName)
	if err != nil {
		return nil, err
	}

	stream := client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			return nil, fmt.Errorf("error accumulating message: %w", err)
		}

		switch event := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := event.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				chunk := &ai.ModelResponseChunk{
					Content: []*ai.Part{ai.NewTextPart(delta.Text)},
				}
				if err := cb(ctx, chunk); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("anthropic streaming error: %w", err)
	}

	r := translateResponse(message)
	r.Request = genRequest
	return r, nil
}

func buildMessageParams(genRequest *ai.ModelRequest, apiModelName string) (anthropic.MessageNewParams, error) {
	messages, systems, err := convertMessages(genRequest.Messages)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	params := anthropic.MessageNewParams{
		Model:    anthropic.Model(apiModelName),
		Messages: messages,
	}

	for _, system := range systems {
		if strings.TrimSpace(system) == "" {
			continue
		}
		params.System = append(params.System, anthropic.TextBlockParam{
			Text: system,
		})
	}

	// fields absent from the request config keep their defaults
	config := defaultModelConfig()
	if err := pluginconfig.Decode(genRequest.Config, &config); err != nil {
		return anthropic.MessageNewParams{}, err
	}

	if config.MaxOutputTokens <= 0 {
		return anthropic.MessageNewParams{}, fmt.Errorf("maxOutputTokens is required")
	}
	params.MaxTokens = int64(config.MaxOutputTokens)
	if config.Temperature > 0 {
		params.Temperature = anthropic.Float(config.Temperature)
	}
	if config.TopP > 0 {
		params.TopP = anthropic.Float(config.TopP)
	}
	if config.TopK > 0 {
		params.TopK = anthropic.Int(int64(config.TopK))
	}
	if len(config.StopSequences) > 0 {
		params.StopSequences = config.StopSequences
	}

	if config.ExtendedThinkingEnabled {
		budgetRatio := config.ExtendedThinkingBudgetRatio
		if budgetRatio == 0 {
			budgetRatio = 0.25
		}

		// the API rejects budgets under 1024 tokens
		budget := int64(float64(config.MaxOutputTokens) * budgetRatio)
		if budget >= 1024 {
			params.Thinking = anthropic.ThinkingConfigParamOfEnabled(budget)
		}
	}

	return params, nil
}

func convertMessages(messages []*ai.Message) ([]anthropic.MessageParam, []string, error) {
	var systems []string
	var anthropicMessages []anthropic.MessageParam

	for _, msg := range messages {
		var role anthropic.MessageParamRole
		switch msg.Role {
		case ai.RoleUser:
			role = anthropic.MessageParamRoleUser
		case ai.RoleModel:
			role = anthropic.MessageParamRoleAssistant
		case ai.RoleSystem:
			for _, part := range msg.Content {
				if part.IsText() && part.Text != "" {
					systems = append(systems, part.Text)
				}
			}
			continue
		default:
			return nil, nil, fmt.Errorf("unsupported message role: %s", msg.Role)
		}

		content, err := convertContent(msg.Content)
		if err != nil {
			return nil, nil, err
		}

		anthropicMessages = append(anthropicMessages, anthropic.MessageParam{
			Role:    role,
			Content: content,
		})
	}

	return anthropicMessages, systems, nil
}

func convertContent(parts []*ai.Part) ([]anthropic.ContentBlockParamUnion, error) {
	var blocks []anthropic.ContentBlockParamUnion

	for _, part := range parts {
		switch {
		case part.IsText():
			blocks = append(blocks, anthropic.NewTextBlock(part.Text))
		case part.IsMedia():
			data := part.Text
			if strings.HasPrefix(data, "http://") || strings.HasPrefix(data, "https://") {
				blocks = append(blocks, anthropic.NewImageBlock(anthropic.URLImageSourceParam{
					URL: data,
				}))
				continue
			}

			contentType := part.ContentType
			if rest, ok := strings.CutPrefix(data, "data:"); ok {
				mimeType, payload, found := strings.Cut(rest, ";base64,")
				if !found {
					return nil, fmt.Errorf("media part is not a base64 data URI")
				}
				data = payload
				if contentType == "" {
					contentType = mimeType
				}
			}

			blocks = append(blocks, anthropic.NewImageBlock(anthropic.Base64ImageSourceParam{
				Data:      data,
				MediaType: getAnthropicMediaType(contentType),
			}))
		default:
			return nil, fmt.Errorf("unsupported part in a request: %#v", part)
		}
	}

	return blocks, nil
}

func translateResponse(resp anthropic.Message) *ai.ModelResponse {
	r := &ai.ModelResponse{}

	m := &ai.Message{
		Role: ai.RoleModel,
	}
	for _, content := range resp.Content {
		switch block := content.AsAny().(type) {
		case anthropic.TextBlock:
			m.Content = append(m.Content, ai.NewTextPart(block.Text))
		case anthropic.ThinkingBlock:
			m.Content = append(m.Content, ai.NewReasoningPart(block.Thinking, []byte(block.Signature)))
		}
	}
	r.Message = m

	switch resp.StopReason {
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence, anthropic.StopReasonToolUse:
		r.FinishReason = ai.FinishReasonStop
	case anthropic.StopReasonMaxTokens:
		r.FinishReason = ai.FinishReasonLength
	default:
		if resp.StopReason != "" {
			r.FinishReason = ai.FinishReasonOther
		}
	}

	if resp.Usage.InputTokens > 0 || resp.Usage.OutputTokens > 0 {
		r.Usage = &ai.GenerationUsage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
			TotalTokens:  int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		}
	}

	return r
}

func getAnthropicMediaType(mimeType string) anthropic.Base64ImageSourceMediaType {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return anthropic.Base64ImageSourceMediaTypeImageJPEG
	case "image/png":
		return anthropic.Base64ImageSourceMediaTypeImagePNG
	case "image/gif":
		return anthropic.Base64ImageSourceMediaTypeImageGIF
	case "image/webp":
		return anthropic.Base64ImageSourceMediaTypeImageWebP
	default:
		return anthropic.Base64ImageSourceMediaTypeImageJPEG
	}
}
