package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Options holds process-level knobs read from the environment. User
// settings live in the JSON store; these only shape how the process
// itself runs.
type Options struct {
	ConfigPath string `envconfig:"CONFIG_PATH"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty  bool   `envconfig:"LOG_PRETTY" default:"true"`
}

// LoadOptions reads WHISPERKEY_* environment variables, with a local
// .env file layered in when present.
func LoadOptions() (Options, error) {
	_ = godotenv.Load()

	var opts Options
	if err := envconfig.Process("whisperkey", &opts); err != nil {
		return Options{}, fmt.Errorf("parse environment: %w", err)
	}

	if opts.ConfigPath == "" {
		path, err := DefaultPath()
		if err != nil {
			return Options{}, err
		}
		opts.ConfigPath = path
	}
	return opts, nil
}
