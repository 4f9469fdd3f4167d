package googleai

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/habiliai/oursgpt/internal/genkit/plugins/pluginconfig"
	"google.golang.org/genai"
)

func convertRequest(req *ai.ModelRequest) ([]*genai.Content, *genai.GenerateContentConfig, error) {
	config := &genai.GenerateContentConfig{}

	var contents []*genai.Content
	for _, m := range req.Messages {
		switch m.Role {
		case ai.RoleSystem:
			if text := m.Text(); text != "" {
				config.SystemInstruction = &genai.Content{
					Parts: []*genai.Part{{Text: text}},
				}
			}
			continue
		case ai.RoleUser, ai.RoleModel:
		default:
			return nil, nil, fmt.Errorf("unsupported message role: %s", m.Role)
		}

		parts, err := convertParts(m.Content)
		if err != nil {
			return nil, nil, err
		}
		if len(parts) == 0 {
			continue
		}

		role := string(genai.RoleUser)
		if m.Role == ai.RoleModel {
			role = string(genai.RoleModel)
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	return contents, config, nil
}

func convertParts(parts []*ai.Part) ([]*genai.Part, error) {
	var out []*genai.Part
	for _, p := range parts {
		switch {
		case p.IsText():
			if p.Text != "" {
				out = append(out, &genai.Part{Text: p.Text})
			}
		case p.IsMedia():
			part, err := convertMedia(p)
			if err != nil {
				return nil, err
			}
			out = append(out, part)
		default:
			return nil, fmt.Errorf("unsupported part in a request: %#v", p)
		}
	}
	return out, nil
}

func convertMedia(p *ai.Part) (*genai.Part, error) {
	if strings.HasPrefix(p.Text, "http://") || strings.HasPrefix(p.Text, "https://") {
		return &genai.Part{FileData: &genai.FileData{FileURI: p.Text, MIMEType: p.ContentType}}, nil
	}

	mimeType := p.ContentType
	payload := p.Text
	if rest, ok := strings.CutPrefix(payload, "data:"); ok {
		var found bool
		var uriMimeType string
		uriMimeType, payload, found = strings.Cut(rest, ";base64,")
		if !found {
			return nil, fmt.Errorf("media part is not a base64 data URI")
		}
		if mimeType == "" {
			mimeType = uriMimeType
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode media part: %w", err)
	}
	return &genai.Part{InlineData: &genai.Blob{Data: data, MIMEType: mimeType}}, nil
}

func applyCommonConfig(in any, config *genai.GenerateContentConfig) error {
	var c ai.GenerationCommonConfig
	if err := pluginconfig.Decode(in, &c); err != nil {
		return err
	}
	if c.Temperature != 0 {
		config.Temperature = genai.Ptr(float32(c.Temperature))
	}
	if c.TopP != 0 {
		config.TopP = genai.Ptr(float32(c.TopP))
	}
	if c.TopK != 0 {
		config.TopK = genai.Ptr(float32(c.TopK))
	}
	if c.MaxOutputTokens != 0 {
		config.MaxOutputTokens = int32(c.MaxOutputTokens)
	}
	if len(c.StopSequences) > 0 {
		config.StopSequences = c.StopSequences
	}
	return nil
}

func applyImageConfig(in any, config *genai.GenerateContentConfig) error {
	var c pluginconfig.ImageConfig
	if err := pluginconfig.Decode(in, &c); err != nil {
		return err
	}
	if c.AspectRatio != "" || c.ImageSize != "" {
		config.ImageConfig = &genai.ImageConfig{
			AspectRatio: c.AspectRatio,
			ImageSize:   c.ImageSize,
		}
	}
	return nil
}

func translateResponse(resp *genai.GenerateContentResponse) *ai.ModelResponse {
	r := &ai.ModelResponse{
		Message:      &ai.Message{Role: ai.RoleModel},
		FinishReason: translateFinishReason(resp),
		Usage:        translateUsage(resp),
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		r.Message.Content = translateParts(resp.Candidates[0].Content.Parts)
	}
	return r
}

// translateChunk returns nil for stream responses without visible content.
func translateChunk(resp *genai.GenerateContentResponse) *ai.ModelResponseChunk {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	parts := translateParts(resp.Candidates[0].Content.Parts)
	if len(parts) == 0 {
		return nil
	}
	return &ai.ModelResponseChunk{Content: parts}
}

func translateParts(parts []*genai.Part) []*ai.Part {
	var out []*ai.Part
	for _, p := range parts {
		switch {
		case p == nil || p.Thought:
		case p.InlineData != nil:
			out = append(out, ai.NewMediaPart(
				p.InlineData.MIMEType,
				"data:"+p.InlineData.MIMEType+";base64,"+base64.StdEncoding.EncodeToString(p.InlineData.Data),
			))
		case p.Text != "":
			out = append(out, ai.NewTextPart(p.Text))
		}
	}
	return out
}

// mergeText joins adjacent text parts of a streamed reply into one.
func mergeText(parts []*ai.Part) []*ai.Part {
	var (
		out  []*ai.Part
		text strings.Builder
	)
	flush := func() {
		if text.Len() > 0 {
			out = append(out, ai.NewTextPart(text.String()))
			text.Reset()
		}
	}
	for _, p := range parts {
		if p.IsText() {
			text.WriteString(p.Text)
			continue
		}
		flush()
		out = append(out, p)
	}
	flush()
	return out
}

func translateFinishReason(resp *genai.GenerateContentResponse) ai.FinishReason {
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return ai.FinishReasonBlocked
		}
		return ai.FinishReasonUnknown
	}
	switch resp.Candidates[0].FinishReason {
	case genai.FinishReasonStop:
		return ai.FinishReasonStop
	case genai.FinishReasonMaxTokens:
		return ai.FinishReasonLength
	case genai.FinishReasonSafety, genai.FinishReasonRecitation, genai.FinishReasonBlocklist,
		genai.FinishReasonProhibitedContent, genai.FinishReasonSPII, genai.FinishReasonImageSafety:
		return ai.FinishReasonBlocked
	case "":
		return ai.FinishReasonUnknown
	default:
		return ai.FinishReasonOther
	}
}

func translateUsage(resp *genai.GenerateContentResponse) *ai.GenerationUsage {
	if resp.UsageMetadata == nil {
		return nil
	}
	return &ai.GenerationUsage{
		InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
		OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
	}
}
