package credential_test

import (
	"testing"

	"github.com/habiliai/oursgpt/credential"
	"github.com/habiliai/oursgpt/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvProvider(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")

	p := credential.NewEnvProvider()
	assert.False(t, p.HasCredential(t.Context()))
	assert.True(t, errors.Is(p.RequestCredential(t.Context()), errors.ErrAuth))

	t.Setenv("API_KEY", "fallback")
	assert.Equal(t, "fallback", p.APIKey(t.Context()))

	t.Setenv("GEMINI_API_KEY", "primary")
	assert.Equal(t, "primary", p.APIKey(t.Context()))
	assert.True(t, p.HasCredential(t.Context()))
}

func TestStaticProvider(t *testing.T) {
	p := credential.NewStaticProvider("")
	assert.False(t, p.HasCredential(t.Context()))

	p.SetAPIKey("key")
	assert.True(t, p.HasCredential(t.Context()))
	assert.Equal(t, "key", p.APIKey(t.Context()))
}

func TestPromptProvider(t *testing.T) {
	t.Run("Given a fallback key, when nothing was entered, then the fallback is used", func(t *testing.T) {
		p := credential.NewPromptProvider(credential.NewStaticProvider("from-env"), func(string) (string, error) {
			t.Fatal("should not ask")
			return "", nil
		})
		assert.Equal(t, "from-env", p.APIKey(t.Context()))
	})

	t.Run("Given no key, when the user enters one, then it is used", func(t *testing.T) {
		var asked string
		p := credential.NewPromptProvider(credential.NewStaticProvider(""), func(message string) (string, error) {
			asked = message
			return "  typed-key \n", nil
		})
		require.False(t, p.HasCredential(t.Context()))

		require.NoError(t, p.RequestCredential(t.Context()))
		assert.Equal(t, "Gemini API key:", asked)
		assert.Equal(t, "typed-key", p.APIKey(t.Context()))
	})

	t.Run("Given an empty answer, then the request fails with ErrAuth", func(t *testing.T) {
		p := credential.NewPromptProvider(nil, func(string) (string, error) { return " ", nil })
		err := p.RequestCredential(t.Context())
		assert.True(t, errors.Is(err, errors.ErrAuth))
		assert.False(t, p.HasCredential(t.Context()))
	})
}
