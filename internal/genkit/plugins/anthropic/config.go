package anthropic

import "github.com/firebase/genkit/go/ai"

type ExtendedThinkingConfig struct {
	ExtendedThinkingEnabled     bool    `json:"extendedThinkingEnabled,omitempty"`
	ExtendedThinkingBudgetRatio float64 `json:"extendedThinkingBudgetRatio,omitempty"`
}

type modelConfig struct {
	ai.GenerationCommonConfig
	ExtendedThinkingConfig
}

const defaultMaxOutputTokens = 8192

func defaultModelConfig() modelConfig {
	return modelConfig{
		GenerationCommonConfig: ai.GenerationCommonConfig{
			MaxOutputTokens: defaultMaxOutputTokens,
		},
	}
}
