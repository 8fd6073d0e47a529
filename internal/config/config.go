package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr   string       `yaml:"listen_addr" env:"REPLAYCORE_LISTEN_ADDR"`
	DB           DBConfig     `yaml:"db"`
	RegistryPath string       `yaml:"registry_path" env:"REPLAYCORE_REGISTRY_PATH"`
	ReportsDir   string       `yaml:"reports_dir" env:"REPLAYCORE_REPORTS_DIR"`
	Events       EventsConfig `yaml:"events"`
}

type DBConfig struct {
	// Driver selects the ledger backend: "memory" or "sqlite".
	Driver string `yaml:"driver" env:"REPLAYCORE_DB_DRIVER"`
	DSN    string `yaml:"dsn" env:"REPLAYCORE_DB_DSN"`
}

type EventsConfig struct {
	PubSubProject string `yaml:"pubsub_project" env:"REPLAYCORE_PUBSUB_PROJECT"`
	PubSubTopic   string `yaml:"pubsub_topic" env:"REPLAYCORE_PUBSUB_TOPIC"`
}

// Load reads the YAML config, expands ${VAR} references, applies environment
// overrides, and validates. Environment always wins over the file.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		// #nosec G304 -- path is operator-provided config path.
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}

		expanded := os.ExpandEnv(string(raw))
		expanded = strings.ReplaceAll(expanded, "\r\n", "\n")

		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.DB.Driver == "" {
		c.DB.Driver = "memory"
	}
}

func (c Config) Validate() error {
	switch c.DB.Driver {
	case "memory":
	case "sqlite":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required when db.driver is sqlite")
		}
	default:
		return fmt.Errorf("unsupported db.driver: %s", c.DB.Driver)
	}

	if c.Events.PubSubTopic != "" && c.Events.PubSubProject == "" {
		return fmt.Errorf("events.pubsub_project is required when events.pubsub_topic is set")
	}

	return nil
}
