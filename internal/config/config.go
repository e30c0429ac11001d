package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	DBPathKey        = "db.path"
	LoadPathsKey     = "load.paths"
	LoadWorkersKey   = "load.workers"
	LoadBatchSizeKey = "load.batch_size"
	LogLevelKey      = "log.level"
	RenderColorKey   = "render.color"
)

var validate = validator.New()

type Config struct {
	DB struct {
		Path string `koanf:"path" validate:"required"`
	} `koanf:"db"`
	Load struct {
		Paths     []string `koanf:"paths"`
		Workers   int      `koanf:"workers" validate:"min=1"`
		BatchSize int      `koanf:"batch_size" validate:"min=1,max=500"`
	} `koanf:"load"`
	Log struct {
		Level string `koanf:"level" validate:"oneof=debug info warn error"`
	} `koanf:"log"`
	Render struct {
		Color bool `koanf:"color"`
	} `koanf:"render"`
}

// PromptExtractPaths lists the directories the loader walks when run from config.
func (c Config) PromptExtractPaths() []string {
	return c.Load.Paths
}

// envOverrides are applied on top of the config file.
type envOverrides struct {
	DBPath   *string `env:"PNGINFO_DB_PATH"`
	LogLevel *string `env:"PNGINFO_LOG_LEVEL"`
	Workers  *int    `env:"PNGINFO_WORKERS"`
}

func defaults() map[string]any {
	return map[string]any{
		DBPathKey:        "pnginfo.sqlite",
		LoadPathsKey:     []string{},
		LoadWorkersKey:   runtime.NumCPU(),
		LoadBatchSizeKey: 25,
		LogLevelKey:      "info",
		RenderColorKey:   true,
	}
}

// LoadConfig builds the configuration: defaults, then the file at path (YAML or
// TOML by extension, skipped when path is empty), then PNGINFO_* environment
// variables, optionally seeded from a .env file.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML()
	default:
		return yaml.Parser()
	}
}

func applyEnv(cfg *Config) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	var o envOverrides
	if _, err := env.UnmarshalFromEnviron(&o); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	if o.DBPath != nil {
		cfg.DB.Path = *o.DBPath
	}
	if o.LogLevel != nil {
		cfg.Log.Level = *o.LogLevel
	}
	if o.Workers != nil {
		cfg.Load.Workers = *o.Workers
	}
	return nil
}
