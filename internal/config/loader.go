package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// FileEnv names the optional YAML config file.
const FileEnv = "BOOKHUB_CONFIG"

// LoadConfig builds a Config by layering, lowest precedence first:
//  1. Default()
//  2. the YAML file named by BOOKHUB_CONFIG, if set
//  3. environment variables (HTTP_PORT -> http_port), after .env is loaded
func LoadConfig() (*Config, error) {
	// A missing .env is fine, system env vars still apply.
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		slog.Warn("env_file_unreadable", "error", err)
	}

	k := koanf.New(".")

	if path := os.Getenv(FileEnv); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// Flat keys: underscores are kept so they match the koanf tags.
	envProvider := env.Provider("", ".", strings.ToLower)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.CORSOrigins = trimAll(cfg.CORSOrigins)
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = defaultCORSOrigins
	}
	cfg.AdminEmails = trimAll(cfg.AdminEmails)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.StorageDriver = strings.ToLower(cfg.StorageDriver)

	return cfg, nil
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
