package pluginconfig

import "github.com/firebase/genkit/go/ai"

var (
	BasicText = ai.ModelSupports{
		Multiturn:  true,
		SystemRole: true,
		Media:      false,
	}

	Multimodal = ai.ModelSupports{
		Multiturn:  true,
		SystemRole: true,
		Media:      true,
	}

	// ImageOutput models take a text prompt (optionally with reference
	// images) and answer with media parts.
	ImageOutput = ai.ModelSupports{
		Multiturn:  false,
		SystemRole: false,
		Media:      true,
	}
)
