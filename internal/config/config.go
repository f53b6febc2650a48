package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-core-fx/config"
	"github.com/go-playground/validator/v10"
)

type repositoryConfig struct {
	Root          string `koanf:"root"`
	IdentityScope string `koanf:"identity_scope" validate:"oneof=system global local"`
}

type logConfig struct {
	MaxItems int    `koanf:"max_items" validate:"min=1,max=1000"`
	Order    string `koanf:"order"     validate:"oneof=default committer_time"`
}

type storageConfig struct {
	DataDir  string `koanf:"data_dir"  validate:"required_without=InMemory"`
	InMemory bool   `koanf:"in_memory"`
}

type watcherConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Debounce time.Duration `koanf:"debounce" validate:"min=0"`
}

type Config struct {
	Repository repositoryConfig `koanf:"repository"`
	Log        logConfig        `koanf:"log"`
	Storage    storageConfig    `koanf:"storage"`
	Watcher    watcherConfig    `koanf:"watcher"`
}

func Default() Config {
	//nolint:exhaustruct,mnd //default values
	return Config{
		Repository: repositoryConfig{
			IdentityScope: "system",
		},

		Log: logConfig{
			MaxItems: 10,
			Order:    "default",
		},

		Storage: storageConfig{
			DataDir: "./data",
		},

		Watcher: watcherConfig{
			Enabled:  true,
			Debounce: 250 * time.Millisecond,
		},
	}
}

func New(validate *validator.Validate) (Config, error) {
	cfg := Default()

	options := []config.Option{}
	if yamlPath := os.Getenv("CONFIG_PATH"); yamlPath != "" {
		options = append(options, config.WithLocalYAML(yamlPath))
	}

	if err := config.Load(&cfg, options...); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
