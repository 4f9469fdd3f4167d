package openaiapi

import (
	"context"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core"
	"github.com/firebase/genkit/go/genkit"
	goopenai "github.com/openai/openai-go"
)

// DefineModel registers a chat completion model. Streaming requests go
// through the streaming endpoint and hand every text delta to the callback.
func DefineModel(g *genkit.Genkit, client *goopenai.Client, labelPrefix, provider, name string, caps ai.ModelSupports) ai.Model {
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
			if cb == nil {
				return generate(ctx, client, name, req)
			}
			return generateStream(ctx, client, name, req, cb)
		},
	)
}

func generate(
	ctx context.Context,
	client *goopenai.Client,
	model string,
	input *ai.ModelRequest,
) (*ai.ModelResponse, error) {
	req, err := convertRequest(model, input)
	if err != nil {
		return nil, err
	}

	res, err := client.Chat.Completions.New(ctx, req)
	if err != nil {
		return nil, err
	}

	r := translateResponse(res)
	r.Request = input
	return r, nil
}

func generateStream(
	ctx context.Context,
	client *goopenai.Client,
	model string,
	input *ai.ModelRequest,
	cb core.StreamCallback[*ai.ModelResponseChunk],
) (*ai.ModelResponse, error) {
	req, err := convertRequest(model, input)
	if err != nil {
		return nil, err
	}

	stream := client.Chat.Completions.NewStreaming(ctx, req)
	defer stream.Close()

	acc := goopenai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if c := translateChunk(chunk); c != nil {
			if err := cb(ctx, c); err != nil {
				return nil, err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, err
	}

	r := translateResponse(&acc.ChatCompletion)
	r.Request = input
	return r, nil
}
