package googleai

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/habiliai/oursgpt/internal/genkit/plugins/pluginconfig"
	"google.golang.org/genai"
)

const (
	provider    = "googleai"
	labelPrefix = "Google AI"
)

var (
	apiKeyEnvs = []string{"GEMINI_API_KEY", "API_KEY"}

	knownCaps = map[string]ai.ModelSupports{
		"gemini-3.1-pro-preview": pluginconfig.Multimodal,
		"gemini-2.5-pro":         pluginconfig.Multimodal,
		"gemini-2.5-flash":       pluginconfig.Multimodal,
		"gemini-2.5-flash-lite":  pluginconfig.Multimodal,
	}

	knownImageModels = []string{
		"gemini-3.1-flash-image-preview",
		"gemini-2.5-flash-image",
	}
)

// KeyFunc returns the API key to use for one request. An empty key fails the
// request without calling the API.
type KeyFunc func(ctx context.Context) string

type Plugin struct {
	// APIKey is used when KeyFunc is nil. If both are empty, GEMINI_API_KEY
	// and then API_KEY are consulted on every request.
	APIKey string

	// KeyFunc resolves the key right before each call, so a key connected
	// after start-up takes effect without re-initialising genkit.
	KeyFunc KeyFunc

	mu      sync.Mutex
	clients map[string]*genai.Client
}

var (
	_ genkit.Plugin = (*Plugin)(nil)
)

// Name implements genkit.Plugin.
func (p *Plugin) Name() string {
	return provider
}

// Init implements genkit.Plugin. No client is created here; see KeyFunc.
func (p *Plugin) Init(_ context.Context, g *genkit.Genkit) error {
	for model, caps := range knownCaps {
		defineModel(g, p, model, caps)
	}
	for _, model := range knownImageModels {
		defineImageModel(g, p, model)
	}
	return nil
}

// Model returns the [ai.Model] with the given name.
// It returns nil if the model was not defined.
func Model(g *genkit.Genkit, name string) ai.Model {
	return genkit.LookupModel(g, provider, name)
}

func (p *Plugin) apiKey(ctx context.Context) string {
	if p.KeyFunc != nil {
		return p.KeyFunc(ctx)
	}
	if p.APIKey != "" {
		return p.APIKey
	}
	for _, env := range apiKeyEnvs {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return ""
}

// client returns a client bound to the current key. Clients are cached per
// key.
func (p *Plugin) client(ctx context.Context) (*genai.Client, error) {
	key := p.apiKey(ctx)
	if key == "" {
		return nil, fmt.Errorf("%s: unauthenticated, no API key configured", provider)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[key]; ok {
		return c, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create client: %w", provider, err)
	}
	if p.clients == nil {
		p.clients = map[string]*genai.Client{}
	}
	p.clients[key] = c
	return c, nil
}
