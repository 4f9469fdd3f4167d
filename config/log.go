package config

type LogConfig struct {
	LogLevel   string `yaml:"logLevel" json:"logLevel"`
	LogHandler string `yaml:"logHandler" json:"logHandler"`

	// TraceVerbose keeps long span attributes (prompts, responses) in logs.
	TraceVerbose bool `yaml:"traceVerbose" json:"traceVerbose"`
}

func NewLogConfig() *LogConfig {
	return &LogConfig{
		LogLevel:   "info",
		LogHandler: "default",
	}
}
