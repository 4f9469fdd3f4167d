package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/habiliai/oursgpt/errors"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
)

type Config struct {
	Log      *LogConfig      `yaml:"log" json:"log"`
	Model    *ModelConfig    `yaml:"model" json:"model"`
	Storage  *StorageConfig  `yaml:"storage" json:"storage"`
	Image    *ImageConfig    `yaml:"image" json:"image"`
	Server   *ServerConfig   `yaml:"server" json:"server"`
	Settings *SettingsConfig `yaml:"settings" json:"settings"`
}

func NewConfig() *Config {
	return &Config{
		Log:      NewLogConfig(),
		Model:    NewModelConfig(),
		Storage:  NewStorageConfig(),
		Image:    NewImageConfig(),
		Server:   NewServerConfig(),
		Settings: NewSettingsConfig(),
	}
}

func DefaultConfigFile() string {
	return filepath.Join(HomeDir(), "config.yaml")
}

// Load builds the configuration from defaults, the YAML file at path (or the
// default file when path is empty and it exists), .env and the environment.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile()); err == nil {
			path = DefaultConfigFile()
		}
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.Wrapf(err, "failed to load .env")
		}
	}
	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) LoadFile(path string) error {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read config file: %s", path)
	}

	// Decoding through a map leaves every key the file does not mention at
	// its current value.
	var raw map[string]any
	if err := yaml.Unmarshal(bytes, &raw); err != nil {
		return errors.Wrapf(err, "failed to unmarshal config file: %s", path)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "yaml",
		Result:      c,
		ErrorUnused: true,
		DecodeHook:  mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return errors.WithStack(err)
	}
	if err := decoder.Decode(raw); err != nil {
		return errors.Wrapf(errors.ErrInvalidConfig, "config file %s: %v", path, err)
	}

	return nil
}

// ApplyEnv overrides values with environment variables. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(dst *string, keys ...string) {
		for _, key := range keys {
			if v, ok := lookup(key); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	// GEMINI_API_KEY wins over the generic API_KEY.
	str(&c.Model.GeminiAPIKey, "GEMINI_API_KEY", "API_KEY")
	str(&c.Model.OpenAIAPIKey, "OPENAI_API_KEY")
	str(&c.Model.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	str(&c.Model.XAIAPIKey, "XAI_API_KEY")
	str(&c.Model.ChatModel, "OURSGPT_CHAT_MODEL")
	str(&c.Model.ImageModel, "OURSGPT_IMAGE_MODEL")
	str(&c.Log.LogLevel, "OURSGPT_LOG_LEVEL", "LOG_LEVEL")
	str(&c.Log.LogHandler, "OURSGPT_LOG_HANDLER", "LOG_HANDLER")
	str(&c.Storage.Driver, "OURSGPT_STORAGE_DRIVER")
	str(&c.Storage.SqlitePath, "OURSGPT_DB_PATH")

	if v, ok := lookup("OURSGPT_PORT"); ok {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

func (c *Config) Validate() error {
	switch {
	case c.Model.ChatModel == "":
		return errors.Wrapf(errors.ErrInvalidConfig, "model.chatModel is required")
	case c.Model.ImageModel == "":
		return errors.Wrapf(errors.ErrInvalidConfig, "model.imageModel is required")
	case c.Model.Temperature < 0 || c.Model.Temperature > 2:
		return errors.Wrapf(errors.ErrInvalidConfig, "model.temperature must be within [0, 2], got %v", c.Model.Temperature)
	case c.Model.TopP < 0 || c.Model.TopP > 1:
		return errors.Wrapf(errors.ErrInvalidConfig, "model.topP must be within [0, 1], got %v", c.Model.TopP)
	case c.Image.HistoryLimit < 0:
		return errors.Wrapf(errors.ErrInvalidConfig, "image.historyLimit must not be negative")
	case c.Storage.Driver != StorageDriverSqlite && c.Storage.Driver != StorageDriverMemory:
		return errors.Wrapf(errors.ErrInvalidConfig, "unknown storage driver: %s", c.Storage.Driver)
	case c.Storage.Driver == StorageDriverSqlite && c.Storage.SqlitePath == "":
		return errors.Wrapf(errors.ErrInvalidConfig, "storage.sqlitePath is required for sqlite")
	case c.Settings.DefaultTheme != "dark" && c.Settings.DefaultTheme != "light":
		return errors.Wrapf(errors.ErrInvalidConfig, "settings.defaultTheme must be dark or light")
	}
	return nil
}
