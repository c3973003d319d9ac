package knorry

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the file form of default Options.
//
//	dataType: json
//	timeout: 5s
//	withCredentials: false
//	easyMode: true
//	headers:
//	  X-Client: knorry
//	auth:
//	  username: gunnar
//	  password: gneg
type Config struct {
	DataType        DataType          `yaml:"dataType"`
	Headers         map[string]string `yaml:"headers"`
	Timeout         string            `yaml:"timeout"`
	WithCredentials *bool             `yaml:"withCredentials"`
	EasyMode        *bool             `yaml:"easyMode"`
	Auth            *Auth             `yaml:"auth"`
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(raw)
}

// ParseConfig decodes a YAML config document.
func ParseConfig(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("knorry: parse config: %w", err)
	}
	return &cfg, nil
}

// Options converts the config into call options.
func (cfg *Config) Options() (Options, error) {
	opts := Options{
		DataType:        cfg.DataType,
		Headers:         cfg.Headers,
		WithCredentials: cfg.WithCredentials,
		EasyMode:        cfg.EasyMode,
		Auth:            cfg.Auth,
	}
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return Options{}, fmt.Errorf("knorry: invalid timeout %q: %w", cfg.Timeout, err)
		}
		opts.Timeout = Duration(d)
	}
	if problems := validateOptions("config", opts); len(problems) > 0 {
		return Options{}, &ClientError{
			Type:    ErrorTypeValidation,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", problems),
		}
	}
	return opts, nil
}
