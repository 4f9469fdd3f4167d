package pluginconfig

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

type (
	GenerationReasoningConfig struct {
		ai.GenerationCommonConfig
		ReasoningEffort string `json:"reasoningEffort,omitempty"`
	}

	// ImageConfig is the request config understood by image models.
	ImageConfig struct {
		AspectRatio string `json:"aspectRatio,omitempty"`
		ImageSize   string `json:"imageSize,omitempty"`
	}
)

// Decode copies a model request config into out. genkit passes the config
// through as the caller gave it, so in may be a struct, a pointer to one or
// a map. Fields absent from in keep their value in out.
func Decode(in any, out any) error {
	if in == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		Squash:           true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	if err := decoder.Decode(in); err != nil {
		return errors.Wrapf(err, "failed to decode model config")
	}
	return nil
}
