package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the file-based configuration shared by the serve and mcp
// commands. Flags override file values; the query API key may also come
// from QABOT_QUERY_API_KEY.
type Config struct {
	LogLevel string `yaml:"log_level"`
	Listen   string `yaml:"listen"`
	DevDesk  bool   `yaml:"dev_desk"`

	Tickets struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"tickets"`

	Query struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"query"`

	Redis struct {
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`
}

func defaultConfig() *Config {
	cfg := &Config{
		LogLevel: "info",
		Listen:   ":8080",
	}
	cfg.Redis.TTL = 24 * time.Hour
	return cfg
}

func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if key := os.Getenv("QABOT_QUERY_API_KEY"); key != "" {
		cfg.Query.APIKey = key
	}
	return cfg, nil
}

func parseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}
