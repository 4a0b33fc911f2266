package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"svw.info/numbermaster/internal/domain"
	"svw.info/numbermaster/internal/logging"
)

// DefaultPath is where the commands look for configuration when --config is not given.
const DefaultPath = "numbermaster.yaml"

// Config holds all numbermaster configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Game    GameConfig    `yaml:"game"`
	Solver  SolverConfig  `yaml:"solver"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Addr              string `yaml:"addr"`
	ReadHeaderTimeout string `yaml:"read_header_timeout"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Driver is fs, sqlite or memory.
	Driver string `yaml:"driver"`
	// Path is a directory for fs and a database file for sqlite.
	Path string `yaml:"path"`
}

// GameConfig tunes new sessions.
type GameConfig struct {
	StartLevel int `yaml:"start_level"`
	// Seed fixes the layout sequence. 0 draws a random seed.
	Seed     uint64 `yaml:"seed"`
	Autosave bool   `yaml:"autosave"`
}

// SolverConfig bounds the diagnostic solver.
type SolverConfig struct {
	MaxNodes int    `yaml:"max_nodes"`
	Timeout  string `yaml:"timeout"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ValidDrivers lists the storage backends.
var ValidDrivers = []string{"fs", "sqlite", "memory"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: "5s",
		},
		Storage: StorageConfig{
			Driver: "fs",
			Path:   "data",
		},
		Game: GameConfig{
			StartLevel: 1,
			Autosave:   true,
		},
		Solver: SolverConfig{
			MaxNodes: 200_000,
			Timeout:  "2s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the defaults.
// Environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() error {
	if addr := os.Getenv("NUMBERMASTER_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if driver := os.Getenv("NUMBERMASTER_STORE"); driver != "" {
		c.Storage.Driver = driver
	}
	if dir := os.Getenv("NUMBERMASTER_DATA_DIR"); dir != "" {
		c.Storage.Path = dir
	}
	if lvl := os.Getenv("NUMBERMASTER_LOG_LEVEL"); lvl != "" {
		c.Logging.Level = lvl
	}
	if seed := os.Getenv("NUMBERMASTER_SEED"); seed != "" {
		n, err := strconv.ParseUint(seed, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid NUMBERMASTER_SEED: %w", err)
		}
		c.Game.Seed = n
	}
	return nil
}

// GetReadHeaderTimeout returns the server header timeout as a duration.
func (c *Config) GetReadHeaderTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ReadHeaderTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// GetSolverTimeout returns the solver deadline as a duration.
func (c *Config) GetSolverTimeout() time.Duration {
	d, err := time.ParseDuration(c.Solver.Timeout)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validDriver := false
	for _, d := range ValidDrivers {
		if c.Storage.Driver == d {
			validDriver = true
			break
		}
	}
	if !validDriver {
		return fmt.Errorf("invalid storage driver: %s (valid: %v)", c.Storage.Driver, ValidDrivers)
	}
	if c.Storage.Driver != "memory" && c.Storage.Path == "" {
		return fmt.Errorf("storage path required for driver %s", c.Storage.Driver)
	}
	if c.Game.StartLevel < 1 || c.Game.StartLevel > domain.MaxLevel {
		return fmt.Errorf("game start_level must be between 1 and %d, got %d", domain.MaxLevel, c.Game.StartLevel)
	}
	if c.Solver.MaxNodes < 0 {
		return fmt.Errorf("solver max_nodes must not be negative, got %d", c.Solver.MaxNodes)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging format: %s (valid: json, console)", c.Logging.Format)
	}
	return nil
}
