package googleai

import (
	"context"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
	"github.com/habiliai/oursgpt/internal/genkit/plugins/pluginconfig"
	"google.golang.org/genai"
)

func defineModel(g *genkit.Genkit, p *Plugin, name string, caps ai.ModelSupports) ai.Model {
	meta := &ai.ModelInfo{
		Label:    labelPrefix + " - " + name,
		Supports: &caps,
	}
	return genkit.DefineModel(
		g,
		provider,
		name,
		meta,
		func(ctx context.Context, req *ai.ModelRequest, cb core.StreamCallback[*ai.ModelResponseChunk]) (*ai.ModelResponse, error) {
			client, err := p.client(ctx)
			if err != nil {
				return nil, err
			}

			contents, config, err := convertRequest(req)
			if err != nil {
				return nil, err
			}
			if err := applyCommonConfig(req.Config, config); err != nil {
				return nil, err
			}

			if cb == nil {
				return generate(ctx, client, name, req, contents, config)
			}
			return generateStream(ctx, client, name, req, contents, config, cb)
		},
	)
}

func defineImageModel(g *genkit.Genkit, p *Plugin, name string) ai.Model {
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
			client, err := p.client(ctx)
			if err != nil {
				return nil, err
			}

			contents, config, err := convertRequest(req)
			if err != nil {
				return nil, err
			}
			if err := applyImageConfig(req.Config, config); err != nil {
				return nil, err
			}

			return generate(ctx, client, name, req, contents, config)
		},
	)
}

func generate(
	ctx context.Context,
	client *genai.Client,
	model string,
	req *ai.ModelRequest,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*ai.ModelResponse, error) {
	resp, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, err
	}

	r := translateResponse(resp)
	r.Request = req
	return r, nil
}

func generateStream(
	ctx context.Context,
	client *genai.Client,
	model string,
	req *ai.ModelRequest,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
	cb core.StreamCallback[*ai.ModelResponseChunk],
) (*ai.ModelResponse, error) {
	var (
		parts []*ai.Part
		last  *genai.GenerateContentResponse
	)
	for resp, err := range client.Models.GenerateContentStream(ctx, model, contents, config) {
		if err != nil {
			return nil, err
		}
		last = resp

		chunk := translateChunk(resp)
		if chunk == nil {
			continue
		}
		parts = append(parts, chunk.Content...)
		if err := cb(ctx, chunk); err != nil {
			return nil, err
		}
	}

	r := &ai.ModelResponse{
		Message:      &ai.Message{Role: ai.RoleModel, Content: mergeText(parts)},
		FinishReason: ai.FinishReasonUnknown,
		Request:      req,
	}
	if last != nil {
		r.FinishReason = translateFinishReason(last)
		r.Usage = translateUsage(last)
	}
	return r, nil
}
