package openai

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
	provider    = "openai"
	labelPrefix = "OpenAI"
	apiKeyEnv   = "OPENAI_API_KEY"
)

var (
	knownCaps = map[string]ai.ModelSupports{
		"o3":                          pluginconfig.BasicText,
		"o4-mini":                     pluginconfig.BasicText,
		goopenai.ChatModelO3Mini:      pluginconfig.BasicText,
		goopenai.ChatModelGPT4o:       pluginconfig.Multimodal,
		goopenai.ChatModelGPT4oMini:   pluginconfig.Multimodal,
		goopenai.ChatModelGPT4Turbo:   pluginconfig.Multimodal,
		goopenai.ChatModelGPT3_5Turbo: pluginconfig.BasicText,
		"gpt-4.1":                     pluginconfig.Multimodal,
		"gpt-4.1-mini":                pluginconfig.Multimodal,
	}

	knownImageModels = []string{
		"dall-e-3",
		"dall-e-2",
	}
)

type Plugin struct {
	// The API key to access the service.
	// If empty, the values of the environment variables OPENAI_API_KEY will be consulted.
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
			return fmt.Errorf("OpenAI requires setting %s in the environment. You can get an API key at https://platform.openai.com/api-keys", apiKeyEnv)
		}
	}

	client := goopenai.NewClient(
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
