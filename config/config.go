package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/achilleasa/lumen/document"
	"github.com/achilleasa/lumen/log"
	"github.com/pelletier/go-toml/v2"
)

// Config is the contents of a configuration file.
type Config struct {
	// Log verbosity (debug, info, notice, warning, error).
	LogLevel log.Level `toml:"log_level"`

	// Per logger module verbosity overrides, e.g. archive = "debug".
	ModuleLevels map[string]log.Level `toml:"module_levels,omitempty"`

	Document document.Options `toml:"document"`
}

// Get the default configuration.
func Default() Config {
	return Config{
		LogLevel: log.Notice,
		Document: document.DefaultOptions(),
	}
}

// Load a configuration file on top of the defaults. Unknown keys are
// reported as errors.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err = dec.Decode(&cfg); err != nil {
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			return cfg, fmt.Errorf("config: %s: %s", path, strictErr.String())
		}
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Apply the configured log levels.
func (c Config) ApplyLogLevels() {
	log.SetLevel(c.LogLevel)
	for module, level := range c.ModuleLevels {
		log.SetModuleLevel(module, level)
	}
}

// Write the configuration as TOML. The archive password is never written.
func Save(cfg Config, path string) error {
	cfg.Document.Password = ""
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
