package credential

import (
	"context"
	"os"
	"sync"

	"github.com/habiliai/oursgpt/errors"
)

type (
	// Provider supplies the backend API key. RequestCredential asks the user
	// for a (new) key where that is possible and fails with errors.ErrAuth
	// where it is not.
	Provider interface {
		HasCredential(ctx context.Context) bool
		RequestCredential(ctx context.Context) error
		APIKey(ctx context.Context) string
	}

	// EnvProvider reads the key from the environment on every call, so a key
	// exported after start-up is picked up.
	EnvProvider struct {
		Keys []string
	}

	// StaticProvider holds a key set in code. SetAPIKey replaces it.
	StaticProvider struct {
		mu  sync.RWMutex
		key string
	}
)

var (
	_ Provider = (*EnvProvider)(nil)
	_ Provider = (*StaticProvider)(nil)

	DefaultEnvKeys = []string{"GEMINI_API_KEY", "API_KEY"}
)

func NewEnvProvider() *EnvProvider {
	return &EnvProvider{Keys: DefaultEnvKeys}
}

func (p *EnvProvider) APIKey(_ context.Context) string {
	for _, key := range p.Keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func (p *EnvProvider) HasCredential(ctx context.Context) bool {
	return p.APIKey(ctx) != ""
}

func (p *EnvProvider) RequestCredential(_ context.Context) error {
	return errors.Wrapf(errors.ErrAuth, "set one of %v to connect an API key", p.Keys)
}

func NewStaticProvider(key string) *StaticProvider {
	return &StaticProvider{key: key}
}

func (p *StaticProvider) APIKey(_ context.Context) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.key
}

func (p *StaticProvider) HasCredential(ctx context.Context) bool {
	return p.APIKey(ctx) != ""
}

func (p *StaticProvider) RequestCredential(_ context.Context) error {
	return errors.Wrapf(errors.ErrAuth, "no way to request a new API key")
}

func (p *StaticProvider) SetAPIKey(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.key = key
}
