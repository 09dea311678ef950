package config

import (
	"encoding/json"
	"os"
)

type Config struct {
	Database struct {
		Path string `json:"path"`
	} `json:"database"`

	Diff struct {
		ContextLines int `json:"context_lines"`
		// MaxFileLines caps diff input size; the LCS table is quadratic in
		// line count. Zero disables the cap.
		MaxFileLines int `json:"max_file_lines"`
	} `json:"diff"`

	Cache struct {
		Size int `json:"size"`
	} `json:"cache"`

	LogLevel string `json:"log_level"` // debug, info, warn, error
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	var cfg Config
	cfg.Diff.ContextLines = 3
	cfg.Diff.MaxFileLines = 10000
	cfg.Cache.Size = 128
	cfg.LogLevel = "info"
	return &cfg
}

// Load reads a JSON config file, falling back to defaults for absent
// fields. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
