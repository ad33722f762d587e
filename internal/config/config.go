package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable that points at the config file.
const EnvPath = "WORKBENCH_CONFIG"

// Config holds all workbench configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Attention AttentionConfig `yaml:"attention"`
	Logging   LoggingConfig   `yaml:"logging"`
	Model     ModelConfig     `yaml:"model"`
}

type ServerConfig struct {
	Bind string `yaml:"bind" validate:"required"`
	Port int    `yaml:"port" validate:"min=1,max=65535"`
}

type AttentionConfig struct {
	TotalSTI        float64       `yaml:"total_sti" validate:"gt=0"`
	FocusBoundary   float64       `yaml:"focus_boundary" validate:"gt=0,lte=100"` // percent of total_sti
	CycleIterations int           `yaml:"cycle_iterations" validate:"min=1"`
	CycleInterval   time.Duration `yaml:"cycle_interval" validate:"min=0"` // 0 disables the background cycle
}

type LoggingConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

type ModelConfig struct {
	Path string `yaml:"path"` // empty loads the built-in psoriasis model
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37778,
		},
		Attention: AttentionConfig{
			TotalSTI:        1000,
			FocusBoundary:   0.3,
			CycleIterations: 5,
			CycleInterval:   time.Minute,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

var validate = validator.New()

// Validate checks every field constraint.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load reads the YAML file at path over the defaults. An empty path falls
// back to $WORKBENCH_CONFIG; a missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
