package entity

import (
	"strings"
	"time"

	"github.com/habiliai/oursgpt/errors"
)

type ImageStyle string

const (
	ImageStyleRealistic    ImageStyle = "realistic"
	ImageStyleAnime        ImageStyle = "anime"
	ImageStyleCinematic    ImageStyle = "cinematic"
	ImageStyle3D           ImageStyle = "3D"
	ImageStyleIllustration ImageStyle = "illustration"
)

type (
	StyleInfo struct {
		ID       ImageStyle `json:"id"`
		Name     string     `json:"name"`
		Modifier string     `json:"modifier"`
	}

	GeneratedImage struct {
		ID        string     `json:"id"`
		URL       string     `json:"url"`
		Prompt    string     `json:"prompt"`
		Style     ImageStyle `json:"style"`
		Timestamp time.Time  `json:"timestamp"`
	}
)

var styles = []StyleInfo{
	{
		ID:       ImageStyleRealistic,
		Name:     "Realistic",
		Modifier: "photorealistic, hyper-detailed, 8k, professional photography, highly detailed textures",
	},
	{
		ID:       ImageStyleAnime,
		Name:     "Anime",
		Modifier: "modern high-quality anime style, vibrant colors, clean lines, digital art masterpiece",
	},
	{
		ID:       ImageStyleCinematic,
		Name:     "Cinematic",
		Modifier: "cinematic lighting, dramatic atmosphere, depth of field, movie still quality",
	},
	{
		ID:       ImageStyle3D,
		Name:     "3D Render",
		Modifier: "octane render, 3D stylized masterpiece, high fidelity, trending on artstation",
	},
	{
		ID:       ImageStyleIllustration,
		Name:     "Illustration",
		Modifier: "artistic digital illustration, creative concept art, professional quality",
	},
}

func ImageStyles() []StyleInfo {
	return append([]StyleInfo(nil), styles...)
}

// ParseImageStyle accepts a style id case-insensitively.
func ParseImageStyle(s string) (ImageStyle, error) {
	for _, info := range styles {
		if strings.EqualFold(string(info.ID), s) {
			return info.ID, nil
		}
	}
	return "", errors.Wrapf(errors.ErrInvalidParams, "unknown image style %q", s)
}

func (s ImageStyle) Info() (StyleInfo, bool) {
	for _, info := range styles {
		if info.ID == s {
			return info, true
		}
	}
	return StyleInfo{}, false
}

func (s ImageStyle) Modifier() string {
	info, _ := s.Info()
	return info.Modifier
}

func (s ImageStyle) DisplayName() string {
	info, ok := s.Info()
	if !ok {
		return string(s)
	}
	return info.Name
}
