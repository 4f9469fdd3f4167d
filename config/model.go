package config

import (
	"strings"
	"time"
)

const (
	DefaultSystemInstruction = "You are OursGPT, a highly intelligent and friendly AI assistant. Use Markdown for all formatting. Be concise, professional, and helpful."
)

type ModelConfig struct {
	// ChatModel and ImageModel are genkit model names in provider/model form.
	ChatModel  string `yaml:"chatModel" json:"chatModel"`
	ImageModel string `yaml:"imageModel" json:"imageModel"`

	SystemInstruction string  `yaml:"systemInstruction" json:"systemInstruction"`
	Temperature       float64 `yaml:"temperature" json:"temperature"`
	TopP              float64 `yaml:"topP" json:"topP"`
	MaxOutputTokens   int     `yaml:"maxOutputTokens" json:"maxOutputTokens"`

	RequestTimeout time.Duration `yaml:"requestTimeout" json:"requestTimeout"`

	GeminiAPIKey    string `yaml:"geminiApiKey" json:"-"`
	OpenAIAPIKey    string `yaml:"openaiApiKey" json:"-"`
	AnthropicAPIKey string `yaml:"anthropicApiKey" json:"-"`
	XAIAPIKey       string `yaml:"xaiApiKey" json:"-"`
}

func NewModelConfig() *ModelConfig {
	return &ModelConfig{
		ChatModel:         "googleai/gemini-3.1-pro-preview",
		ImageModel:        "googleai/gemini-3.1-flash-image-preview",
		SystemInstruction: DefaultSystemInstruction,
		Temperature:       0.7,
		TopP:              0.95,
		MaxOutputTokens:   8192,
		RequestTimeout:    10 * time.Minute,
	}
}

// Provider returns the provider part of a provider/model name.
func Provider(modelName string) string {
	provider, _, ok := strings.Cut(modelName, "/")
	if !ok {
		return ""
	}
	return provider
}
