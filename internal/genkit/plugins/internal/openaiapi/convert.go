package openaiapi

import (
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/habiliai/oursgpt/internal/genkit/plugins/pluginconfig"
	goopenai "github.com/openai/openai-go"
)

func convertRequest(model string, input *ai.ModelRequest) (goopenai.ChatCompletionNewParams, error) {
	messages, err := convertMessages(input.Messages)
	if err != nil {
		return goopenai.ChatCompletionNewParams{}, err
	}

	chatCompletionRequest := goopenai.ChatCompletionNewParams{
		Model:    goopenai.F(goopenai.ChatModel(model)),
		Messages: goopenai.F(messages),
	}

	var c pluginconfig.GenerationReasoningConfig
	if err := pluginconfig.Decode(input.Config, &c); err != nil {
		return goopenai.ChatCompletionNewParams{}, err
	}
	if c.MaxOutputTokens != 0 {
		chatCompletionRequest.MaxTokens = goopenai.Int(int64(c.MaxOutputTokens))
	}
	if len(c.StopSequences) > 0 {
		chatCompletionRequest.Stop = goopenai.F[goopenai.ChatCompletionNewParamsStopUnion](goopenai.ChatCompletionNewParamsStopArray(c.StopSequences))
	}
	if c.Temperature != 0 {
		chatCompletionRequest.Temperature = goopenai.Float(c.Temperature)
	}
	if c.TopP != 0 {
		chatCompletionRequest.TopP = goopenai.Float(c.TopP)
	}
	if c.ReasoningEffort != "" {
		chatCompletionRequest.ReasoningEffort = goopenai.F(goopenai.ChatCompletionReasoningEffort(c.ReasoningEffort))
	}

	return chatCompletionRequest, nil
}

func convertMessages(messages []*ai.Message) ([]goopenai.ChatCompletionMessageParamUnion, error) {
	var msgs []goopenai.ChatCompletionMessageParamUnion

	for _, m := range messages {
		switch m.Role {
		case ai.RoleSystem:
			msgs = append(msgs, goopenai.SystemMessage(m.Text()))
		case ai.RoleUser:
			var multiContent []goopenai.ChatCompletionContentPartUnionParam
			for _, p := range m.Content {
				part, err := convertPart(p)
				if err != nil {
					return nil, err
				}
				multiContent = append(multiContent, part)
			}
			msgs = append(msgs, goopenai.UserMessageParts(multiContent...))
		case ai.RoleModel:
			msgs = append(msgs, goopenai.ChatCompletionAssistantMessageParam{
				Role: goopenai.F(goopenai.ChatCompletionAssistantMessageParamRoleAssistant),
				Content: goopenai.F([]goopenai.ChatCompletionAssistantMessageParamContentUnion{
					goopenai.TextPart(m.Text()),
				}),
			})
		default:
			return nil, fmt.Errorf("unsupported OpenAI role %s", m.Role)
		}
	}

	return msgs, nil
}

func convertPart(part *ai.Part) (res goopenai.ChatCompletionContentPartUnionParam, err error) {
	switch {
	case part.IsText():
		res = goopenai.TextPart(part.Text)
	case part.IsMedia():
		res = goopenai.ChatCompletionContentPartImageParam{
			Type: goopenai.F(goopenai.ChatCompletionContentPartImageTypeImageURL),
			ImageURL: goopenai.F(goopenai.ChatCompletionContentPartImageImageURLParam{
				URL:    goopenai.F(part.Text),
				Detail: goopenai.F(goopenai.ChatCompletionContentPartImageImageURLDetailAuto),
			}),
		}
	default:
		err = fmt.Errorf("unknown part type in a request: %#v", part)
	}
	return
}
