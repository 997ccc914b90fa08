package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g. SPECGEST_SERVER_PORT.
const EnvPrefix = "SPECGEST_"

type Config struct {
	Server   Server   `koanf:"server"`
	Extract  Extract  `koanf:"extract"`
	Pipeline Pipeline `koanf:"pipeline"`
	Log      Log      `koanf:"log"`
}

type Server struct {
	Port           string `koanf:"port"`
	MaxConnections int    `koanf:"max_connections"`
	// Optional bearer token; empty disables auth.
	APIKey string `koanf:"api_key"`
}

type Extract struct {
	MaxUploadBytes int64         `koanf:"max_upload_bytes"`
	Timeout        time.Duration `koanf:"timeout"`
	StagingDir     string        `koanf:"staging_dir"`
	KeywordsFile   string        `koanf:"keywords_file"`
	StatsWindow    time.Duration `koanf:"stats_window"`
}

type Pipeline struct {
	WorkerCount  int           `koanf:"worker_count"`
	MaxQueueSize int           `koanf:"max_queue_size"`
	JobTTL       time.Duration `koanf:"job_ttl"`
}

type Log struct {
	Level string `koanf:"level"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: Server{
			Port:           "8090",
			MaxConnections: 256,
		},
		Extract: Extract{
			MaxUploadBytes: 52428800, // 50MB
			Timeout:        30 * time.Second,
			StatsWindow:    time.Hour,
		},
		Pipeline: Pipeline{
			WorkerCount:  4,
			MaxQueueSize: 100,
			JobTTL:       time.Hour,
		},
		Log: Log{Level: "info"},
	}
}

// Load builds the configuration from defaults, then the optional YAML file at
// path, then SPECGEST_* environment variables. SPECGEST_CONFIG names the file
// when path is empty.
func Load(path string) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// SPECGEST_EXTRACT_MAX_UPLOAD_BYTES -> extract.max_upload_bytes
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return cfg, fmt.Errorf("load environment: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(s, "_")
	if !ok {
		return s
	}
	return section + "." + field
}

func (c Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Server.MaxConnections <= 0 {
		return fmt.Errorf("server.max_connections must be positive")
	}
	if c.Extract.MaxUploadBytes <= 0 {
		return fmt.Errorf("extract.max_upload_bytes must be positive")
	}
	if c.Extract.Timeout <= 0 {
		return fmt.Errorf("extract.timeout must be positive")
	}
	if c.Pipeline.WorkerCount <= 0 {
		return fmt.Errorf("pipeline.worker_count must be positive")
	}
	if c.Pipeline.MaxQueueSize <= 0 {
		return fmt.Errorf("pipeline.max_queue_size must be positive")
	}
	if c.Pipeline.JobTTL <= 0 {
		return fmt.Errorf("pipeline.job_ttl must be positive")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses the configured log level.
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
