package genkit

import (
	"context"
	"log/slog"

	"github.com/firebase/genkit/go/genkit"
	"github.com/habiliai/oursgpt/config"
	"github.com/habiliai/oursgpt/credential"
	"github.com/habiliai/oursgpt/internal/genkit/plugins/anthropic"
	"github.com/habiliai/oursgpt/internal/genkit/plugins/googleai"
	"github.com/habiliai/oursgpt/internal/genkit/plugins/openai"
	"github.com/habiliai/oursgpt/internal/genkit/plugins/xai"
	"github.com/habiliai/oursgpt/internal/mylog"
	"github.com/pkg/errors"
)

// NewGenkit registers one plugin per configured provider. The Google AI
// plugin is always registered and asks creds for its key on every request;
// the others are only registered when their key is configured.
func NewGenkit(
	ctx context.Context,
	modelConf *config.ModelConfig,
	logConf *config.LogConfig,
	creds credential.Provider,
	logger *mylog.Logger,
) (*genkit.Genkit, error) {
	plugins := []genkit.Plugin{
		&googleai.Plugin{
			APIKey:  modelConf.GeminiAPIKey,
			KeyFunc: keyFunc(modelConf.GeminiAPIKey, creds),
		},
	}
	if modelConf.OpenAIAPIKey != "" {
		plugins = append(plugins, &openai.Plugin{
			APIKey: modelConf.OpenAIAPIKey,
		})
	}
	if modelConf.AnthropicAPIKey != "" {
		plugins = append(plugins, &anthropic.Plugin{
			APIKey:         modelConf.AnthropicAPIKey,
			RequestTimeout: modelConf.RequestTimeout,
		})
	}
	if modelConf.XAIAPIKey != "" {
		plugins = append(plugins, &xai.Plugin{
			APIKey: modelConf.XAIAPIKey,
		})
	}

	g, err := genkit.Init(
		ctx,
		genkit.WithPlugins(plugins...),
		genkit.WithDefaultModel(modelConf.ChatModel),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to init genkit")
	}

	genkit.RegisterSpanProcessor(g,
		&loggingSpanProcessor{
			verbose: logConf.TraceVerbose,
			logger:  logger,
		},
	)

	logger.Debug("genkit initialized",
		slog.Int("plugins", len(plugins)),
		slog.String("chat_model", modelConf.ChatModel),
		slog.String("image_model", modelConf.ImageModel),
	)

	return g, nil
}

// a key from the credential provider wins over the configured one
func keyFunc(configured string, creds credential.Provider) googleai.KeyFunc {
	if creds == nil {
		return nil
	}
	return func(ctx context.Context) string {
		if key := creds.APIKey(ctx); key != "" {
			return key
		}
		return configured
	}
}
