package generation

import (
	"bytes"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/habiliai/oursgpt/entity"
	"github.com/habiliai/oursgpt/errors"
)

var imagePromptTemplate = template.Must(
	template.New("image_prompt").Funcs(sprig.TxtFuncMap()).Parse(
		`{{ .Prompt | trim }}. Style: {{ .Modifier }}. Masterpiece, high resolution, stunning visuals.`,
	),
)

// ImagePrompt expands a user prompt with the style's modifier.
func ImagePrompt(prompt string, style entity.ImageStyle) (string, error) {
	var buf bytes.Buffer
	if err := imagePromptTemplate.Execute(&buf, map[string]any{
		"Prompt":   prompt,
		"Modifier": style.Modifier(),
	}); err != nil {
		return "", errors.Wrapf(err, "failed to render image prompt")
	}
	return buf.String(), nil
}

// RenderSystemInstruction executes instruction as a text/template with the
// sprig functions, so configured instructions can refer to {{ .Now }}.
// Instructions without template actions come back unchanged.
func RenderSystemInstruction(instruction string, now time.Time) (string, error) {
	tmpl, err := template.New("system_instruction").Funcs(sprig.TxtFuncMap()).Parse(instruction)
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse system instruction")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]any{"Now": now}); err != nil {
		return "", errors.Wrapf(err, "failed to render system instruction")
	}
	return buf.String(), nil
}
