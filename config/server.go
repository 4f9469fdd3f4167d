package config

type ServerConfig struct {
	Port           int      `yaml:"port" json:"port"`
	AllowedOrigins []string `yaml:"allowedOrigins" json:"allowedOrigins"`
}

func NewServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:           3001,
		AllowedOrigins: []string{"*"},
	}
}

type SettingsConfig struct {
	DefaultTheme string `yaml:"defaultTheme" json:"defaultTheme"`
}

func NewSettingsConfig() *SettingsConfig {
	return &SettingsConfig{
		DefaultTheme: "dark",
	}
}
