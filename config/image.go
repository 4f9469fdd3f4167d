package config

type ImageConfig struct {
	// HistoryLimit caps the number of generated images kept. Oldest entries
	// are trimmed first. Zero keeps everything.
	HistoryLimit int `yaml:"historyLimit" json:"historyLimit"`

	AspectRatio string `yaml:"aspectRatio" json:"aspectRatio"`
	Size        string `yaml:"size" json:"size"`
}

func NewImageConfig() *ImageConfig {
	return &ImageConfig{
		HistoryLimit: 50,
		AspectRatio:  "1:1",
		Size:         "1K",
	}
}
