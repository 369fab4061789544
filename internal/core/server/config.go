package server

import (
	"fmt"
	"net"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// EnvPrefix prefixes every environment variable the server reads, e.g.
// OXIDEDB_PORT or OXIDEDB_DOCS_PATH.
const EnvPrefix = "OXIDEDB_"

type Config struct {
	Host        string `koanf:"host"`
	Port        string `koanf:"port"`
	DocsPath    string `koanf:"docs_path"`
	LogLevel    string `koanf:"log_level"`
	LogFormat   string `koanf:"log_format"`
	MetricsAddr string `koanf:"metrics_addr"`
	Version     string `koanf:"-"`
}

func NewConfig() *Config {
	return &Config{
		Host:      "127.0.0.1",
		Port:      "6379",
		LogLevel:  "info",
		LogFormat: "console",
	}
}

// LoadFromEnv overrides fields from OXIDEDB_* environment variables.
func (c *Config) LoadFromEnv() error {
	k := koanf.New(".")
	transform := func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", transform), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return c.unmarshal(k)
}

// LoadFile overrides fields from a YAML file.
func (c *Config) LoadFile(path string) error {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load config file %s: %w", path, err)
	}
	return c.unmarshal(k)
}

func (c *Config) unmarshal(k *koanf.Koanf) error {
	if err := k.Unmarshal("", c); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// Addr is the listen address for the RESP port.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return fmt.Errorf("config missing port")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.LogFormat)
	}
	return nil
}
