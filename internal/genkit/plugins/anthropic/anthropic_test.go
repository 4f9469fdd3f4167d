package anthropic

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPluginRequiresKey(t *testing.T) {
	t.Setenv(apiKeyEnv, "")
	_, err := genkit.Init(context.Background(), genkit.WithPlugins(&Plugin{}))
	assert.ErrorContains(t, err, apiKeyEnv)

	t.Setenv(apiKeyEnv, "from-env")
	_, err = genkit.Init(context.Background(), genkit.WithPlugins(&Plugin{}))
	assert.NoError(t, err)
}

func TestPluginDefaultsRequestTimeout(t *testing.T) {
	p := &Plugin{APIKey: "test-key"}
	_, err := genkit.Init(context.Background(), genkit.WithPlugins(p))
	require.NoError(t, err)
	assert.Equal(t, defaultRequestTimeout, p.RequestTimeout)
	assert.Equal(t, provider, p.Name())
}

func TestKnownModelsAreRegistered(t *testing.T) {
	g, err := genkit.Init(context.Background(), genkit.WithPlugins(&Plugin{APIKey: "test-key"}))
	require.NoError(t, err)

	for name := range knownModels {
		assert.NotNil(t, Model(g, name), name)
	}
	assert.Nil(t, Model(g, "claude-2-legacy"))
}
