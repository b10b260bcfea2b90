package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "markerdui.cfg.json"

// EnvPrefix prefixes environment overrides, e.g. MARKERDUI_HOST_RESOURCE.
const EnvPrefix = "MARKERDUI"

// HostConfig holds the host bridge settings.
type HostConfig struct {
	BaseURL  string        `json:"baseUrl" mapstructure:"baseUrl"`
	Resource string        `json:"resource" mapstructure:"resource"`
	Timeout  time.Duration `json:"timeout" mapstructure:"timeout"`
}

// Config is the resolved service configuration.
type Config struct {
	Addr          string
	LogLevel      string
	LogFile       string
	FrameInterval time.Duration
	DefaultColor  string
	Host          HostConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFile", "")
	v.SetDefault("frameInterval", "16ms")
	v.SetDefault("marker.defaultColor", "#ffffff")

	v.SetDefault("host.baseUrl", "https://")
	v.SetDefault("host.resource", "markerdui")
	v.SetDefault("host.timeout", "5s")
}

// Load reads configuration from the JSON file in configDir, if present, and
// from MARKERDUI_* environment variables, on top of the defaults.
func Load(configDir string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(FileName)
	v.SetConfigType("json")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := Config{
		Addr:          v.GetString("addr"),
		LogLevel:      v.GetString("logLevel"),
		LogFile:       v.GetString("logFile"),
		FrameInterval: v.GetDuration("frameInterval"),
		DefaultColor:  v.GetString("marker.defaultColor"),
		Host: HostConfig{
			BaseURL:  v.GetString("host.baseUrl"),
			Resource: v.GetString("host.resource"),
			Timeout:  v.GetDuration("host.timeout"),
		},
	}
	if cfg.FrameInterval <= 0 {
		return Config{}, fmt.Errorf("frameInterval must be positive, got %s", cfg.FrameInterval)
	}
	return cfg, nil
}
