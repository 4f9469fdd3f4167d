package credential

import (
	"context"
	"strings"
	"sync"

	"github.com/AlecAivazis/survey/v2"
	"github.com/habiliai/oursgpt/errors"
)

// AskFunc prompts for a secret. survey.AskOne with a Password question is
// the default.
type AskFunc func(message string) (string, error)

// PromptProvider asks the user for a key on the terminal. A key entered
// this way overrides the fallback for the rest of the process.
type PromptProvider struct {
	fallback Provider
	ask      AskFunc

	mu  sync.RWMutex
	key string
}

var _ Provider = (*PromptProvider)(nil)

func NewPromptProvider(fallback Provider, ask AskFunc) *PromptProvider {
	if ask == nil {
		ask = surveyPassword
	}
	return &PromptProvider{fallback: fallback, ask: ask}
}

func surveyPassword(message string) (string, error) {
	var answer string
	if err := survey.AskOne(&survey.Password{Message: message}, &answer); err != nil {
		return "", err
	}
	return answer, nil
}

func (p *PromptProvider) APIKey(ctx context.Context) string {
	p.mu.RLock()
	key := p.key
	p.mu.RUnlock()
	if key != "" {
		return key
	}
	if p.fallback == nil {
		return ""
	}
	return p.fallback.APIKey(ctx)
}

func (p *PromptProvider) HasCredential(ctx context.Context) bool {
	return p.APIKey(ctx) != ""
}

func (p *PromptProvider) RequestCredential(_ context.Context) error {
	answer, err := p.ask("Gemini API key:")
	if err != nil {
		return errors.Wrapf(errors.ErrAuth, "failed to read API key: %v", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return errors.Wrapf(errors.ErrAuth, "no API key entered")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.key = answer
	return nil
}
