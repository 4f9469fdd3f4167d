package openaiapi

import (
	"github.com/firebase/genkit/go/ai"
	goopenai "github.com/openai/openai-go"
)

func translateResponse(resp *goopenai.ChatCompletion) *ai.ModelResponse {
	r := &ai.ModelResponse{
		Message: &ai.Message{Role: ai.RoleModel},
	}
	if len(resp.Choices) > 0 {
		translateCandidate(resp.Choices[0], r)
	} else {
		r.FinishReason = ai.FinishReasonUnknown
	}

	r.Usage = &ai.GenerationUsage{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:  int(resp.Usage.TotalTokens),
	}
	return r
}

func translateCandidate(choice goopenai.ChatCompletionChoice, r *ai.ModelResponse) {
	r.FinishReason = translateFinishReason(string(choice.FinishReason))
	r.Message = &ai.Message{
		Role:    ai.RoleModel,
		Content: []*ai.Part{ai.NewTextPart(choice.Message.Content)},
	}
}

func translateFinishReason(reason string) ai.FinishReason {
	switch reason {
	case "stop", "tool_calls":
		return ai.FinishReasonStop
	case "length":
		return ai.FinishReasonLength
	case "content_filter":
		return ai.FinishReasonBlocked
	case "function_call":
		return ai.FinishReasonOther
	default:
		return ai.FinishReasonUnknown
	}
}

// translateChunk returns nil for chunks that carry no text.
func translateChunk(chunk goopenai.ChatCompletionChunk) *ai.ModelResponseChunk {
	if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
		return nil
	}
	return &ai.ModelResponseChunk{
		Content: []*ai.Part{ai.NewTextPart(chunk.Choices[0].Delta.Content)},
	}
}
