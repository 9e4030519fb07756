package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Difficulty int            `yaml:"difficulty"`
	Miner      MinerConfig    `yaml:"miner"`
	Queue      QueueConfig    `yaml:"queue"`
	SigCache   SigCacheConfig `yaml:"sigcache"`
	Tally      TallyConfig    `yaml:"tally"`
	Session    SessionConfig  `yaml:"session"`
	Log        LogConfig      `yaml:"log"`
}

type MinerConfig struct {
	// ID is credited in reward transactions. Empty means a random id.
	ID string `yaml:"id"`
	// Interval between background mining attempts; 0 mines only on demand.
	Interval time.Duration `yaml:"interval"`
}

type QueueConfig struct {
	Size int `yaml:"size"`
}

type SigCacheConfig struct {
	Size int `yaml:"size"`
}

type TallyConfig struct {
	// PaillierBits enables the homomorphic cross-check when non-zero.
	PaillierBits int `yaml:"paillier-bits"`
}

type SessionConfig struct {
	Duration time.Duration `yaml:"duration"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() *Config {
	return &Config{
		Difficulty: 4,
		Miner:      MinerConfig{Interval: 0},
		Queue:      QueueConfig{Size: 256},
		SigCache:   SigCacheConfig{Size: 4096},
		Tally:      TallyConfig{PaillierBits: 0},
		Session:    SessionConfig{Duration: 24 * time.Hour},
		Log:        LogConfig{Level: "info"},
	}
}

// Load reads a YAML file over the defaults. Fields missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	config := Default()

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	d.SetStrict(true)
	if err := d.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Difficulty < 0 || c.Difficulty > 64 {
		return fmt.Errorf("difficulty must be between 0 and 64, got %d", c.Difficulty)
	}
	if c.Miner.Interval < 0 {
		return fmt.Errorf("miner interval must not be negative")
	}
	if c.Queue.Size <= 0 {
		return fmt.Errorf("queue size must be positive, got %d", c.Queue.Size)
	}
	if c.SigCache.Size <= 0 {
		return fmt.Errorf("sigcache size must be positive, got %d", c.SigCache.Size)
	}
	if c.Tally.PaillierBits != 0 && c.Tally.PaillierBits < 256 {
		return fmt.Errorf("paillier-bits must be 0 or at least 256, got %d", c.Tally.PaillierBits)
	}
	if c.Session.Duration <= 0 {
		return fmt.Errorf("session duration must be positive")
	}
	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "error", "crit":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}
