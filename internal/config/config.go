// Package config loads the engine configuration from an optional YAML file
// overridden by VIBE_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Config is the complete engine configuration.
type Config struct {
	// WorkflowDir holds custom workflow YAML files. Bundled workflows are
	// always available; files here shadow them by name.
	WorkflowDir string `koanf:"workflow_dir"`

	// StateDir is where conversation state and plan documents live.
	StateDir string `koanf:"state_dir"`

	// ProjectPath is the project the agent is working on, handed to plugin
	// hooks.
	ProjectPath string `koanf:"project_path"`

	LogLevel string `koanf:"log_level"`

	Server  ServerConfig  `koanf:"server"`
	Redis   RedisConfig   `koanf:"redis"`
	Plugins PluginsConfig `koanf:"plugins"`
}

// ServerConfig selects and configures the serving transport.
type ServerConfig struct {
	// Transport is one of "stdio" (MCP over stdin/stdout), "sse" (MCP over
	// SSE) or "http" (REST).
	Transport string `koanf:"transport"`
	HTTPAddr  string `koanf:"http_addr"`
	SSEPort   int    `koanf:"sse_port"`
}

// RedisConfig enables distributed locking and shared state when Addr is set.
type RedisConfig struct {
	Addr   string `koanf:"addr"`
	Prefix string `koanf:"prefix"`
}

// PluginsConfig carries per-plugin settings maps, decoded by each plugin.
type PluginsConfig struct {
	Metrics    bool           `koanf:"metrics"`
	Tracker    map[string]any `koanf:"tracker"`
	Autocommit map[string]any `koanf:"autocommit"`
}

const defaults = `
state_dir: .vibe/state
project_path: .
log_level: info
server:
  transport: stdio
  http_addr: :8080
  sse_port: 8081
redis:
  prefix: "vibe:"
plugins:
  metrics: true
`

// Load reads configuration from the given YAML file (skipped when empty or
// missing) with environment overrides. VIBE_LOG_LEVEL maps to log_level,
// VIBE_SERVER_HTTP_ADDR to server.http_addr, and so on: the first
// underscore after the prefix separates section from field.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider([]byte(defaults)), kyaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err == nil {
			if err := k.Load(rawbytes.Provider(content), kyaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider("VIBE_", ".", transformEnv), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// transformEnv maps VIBE_SERVER_HTTP_ADDR to server.http_addr. Top-level
// keys (VIBE_LOG_LEVEL) are recognized explicitly since they contain
// underscores themselves.
func transformEnv(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, "VIBE_"))

	switch lower {
	case "workflow_dir", "state_dir", "project_path", "log_level":
		return lower
	}

	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}
