package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so yaml values like "2s" parse naturally.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string

	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	d.Duration = parsed

	return nil
}

type NodeConfig struct {
	Address      string `yaml:"address"`
	NetworkMagic uint32 `yaml:"networkMagic"`
	KeepAlive    bool   `yaml:"keepAlive"`
}

type SyncConfig struct {
	RestartOnError bool     `yaml:"restartOnError"`
	RestartDelay   Duration `yaml:"restartDelay"`
	StartTries     int      `yaml:"startTries"`
}

type CursorDBConfig struct {
	Type string `yaml:"type"` // bbolt or leveldb
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level            string `yaml:"level"`
	JSONFormat       bool   `yaml:"jsonFormat"`
	FilePath         string `yaml:"filePath"`
	RotateMaxSizeMB  int    `yaml:"rotateMaxSizeMb"`
	RotateMaxBackups int    `yaml:"rotateMaxBackups"`
}

type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listenAddress"`
}

type AppConfig struct {
	Node     NodeConfig     `yaml:"node"`
	Sync     SyncConfig     `yaml:"sync"`
	CursorDB CursorDBConfig `yaml:"cursorDb"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

func DefaultConfig() *AppConfig {
	return &AppConfig{
		Sync: SyncConfig{
			RestartOnError: true,
			RestartDelay:   Duration{Duration: time.Second * 5},
		},
		CursorDB: CursorDBConfig{
			Type: "bbolt",
			Path: "cursors.db",
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
		Metrics: MetricsConfig{
			ListenAddress: "localhost:9090",
		},
	}
}

// Load reads a yaml config file on top of the defaults.
func Load(path string) (*AppConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("could not parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *AppConfig) Validate() error {
	if c.Node.Address == "" {
		return fmt.Errorf("node address not specified")
	}

	switch c.CursorDB.Type {
	case "", "bbolt", "leveldb":
	default:
		return fmt.Errorf("unknown cursor db type: %s", c.CursorDB.Type)
	}

	return nil
}
