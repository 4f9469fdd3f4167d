package xai

import (
	"context"
	"fmt"
	"os"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/habiliai/oursgpt/internal/genkit/plugins/internal/openaiapi"
	"github.com/habiliai/oursgpt/internal/genkit/plugins/pluginconfig"
	goopenai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	provider    = "xai"
	labelPrefix = "XAI"
	apiKeyEnv   = "XAI_API_KEY"
	baseUrl     = "https://api.x.ai/v1"
)

var (
	knownCaps = map[string]ai.ModelSupports{
		"grok-3":           pluginconfig.Multimodal,
		"grok-3-fast":      pluginconfig.Multimodal,
		"grok-3-mini":      pluginconfig.BasicText,
		"grok-3-mini-fast": pluginconfig.BasicText,
		"grok-2-vision":    pluginconfig.Multimodal,
	}

	knownImageModels = []string{
		"grok-2-image",
	}
)

type Plugin struct {
	// The API key to access the service for XAI.
	// If empty, the values of the environment variables XAI_API_KEY will be consulted.
	APIKey string
}

var (
	_ genkit.Plugin = (*Plugin)(nil)
)

// Name implements genkit.Plugin.
func (o *Plugin) Name() string {
	return provider
}

// Init implements genkit.Plugin.
func (o *Plugin) Init(_ context.Context, g *genkit.Genkit) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("%s.Init: %w", provider, err)
		}
	}()

	apiKey := o.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(apiKeyEnv)
		if apiKey == "" {
			return fmt.Errorf("XAI API key not found in environment variable: %s", apiKeyEnv)
		}
	}

	client := goopenai.NewClient(
		option.WithBaseURL(baseUrl),
		option.WithAPIKey(apiKey),
	)

	for model, caps := range knownCaps {
		openaiapi.DefineModel(g, client, labelPrefix, provider, model, caps)
	}
	for _, model := range knownImageModels {
		openaiapi.DefineImageModel(g, client, labelPrefix, provider, model)
	}

	return nil
}

// Model returns the [ai.Model] with the given name.
// It returns nil if the model was not defined.
func Model(g *genkit.Genkit, name string) ai.Model {
	return genkit.LookupModel(g, provider, name)
}
