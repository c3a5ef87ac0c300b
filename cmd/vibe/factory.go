package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	vibe "github.com/mrsimpson/responsible-vibe-mcp-sub000"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/internal/config"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/internal/logging"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/adapters/file"
	redisAdapter "github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/adapters/redis"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/adapters/workflowdir"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/observability"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/plugin"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/plugins/autocommit"
	"github.com/mrsimpson/responsible-vibe-mcp-sub000/pkg/plugins/tracker"
)

// buildEnv bundles everything a command needs to run the engine.
type buildEnv struct {
	cfg     *config.Config
	logger  *slog.Logger
	engine  *vibe.Engine
	metrics *observability.Metrics
}

// buildEngine assembles the engine from configuration: workflow source,
// durable stores, optional redis locking, and the configured plugins.
func buildEngine(cmd *cobra.Command) (*buildEnv, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	logger := logging.New(logging.ParseLevel(cfg.LogLevel))

	store, err := file.NewStore(filepath.Join(cfg.StateDir, "conversations"))
	if err != nil {
		return nil, err
	}
	plans, err := file.NewPlanStore(filepath.Join(cfg.StateDir, "plans"))
	if err != nil {
		return nil, err
	}

	var plugins []plugin.Plugin

	var metrics *observability.Metrics
	if cfg.Plugins.Metrics {
		metrics = observability.NewMetrics()
		plugins = append(plugins, metrics)
	}

	trackerPlugin, err := tracker.New(cfg.Plugins.Tracker, logger)
	if err != nil {
		return nil, fmt.Errorf("tracker plugin: %w", err)
	}
	plugins = append(plugins, trackerPlugin)

	autocommitPlugin, err := autocommit.New(cfg.Plugins.Autocommit, logger)
	if err != nil {
		return nil, fmt.Errorf("autocommit plugin: %w", err)
	}
	plugins = append(plugins, autocommitPlugin)

	opts := []vibe.Option{
		vibe.WithLogger(logger),
		vibe.WithWorkflowSource(workflowdir.New(cfg.WorkflowDir)),
		vibe.WithStateStore(store),
		vibe.WithPlanStore(plans),
		vibe.WithProjectPath(cfg.ProjectPath),
		vibe.WithPlugins(plugins...),
	}

	if cfg.Redis.Addr != "" {
		client := backend.NewClient(&backend.Options{Addr: cfg.Redis.Addr})
		opts = append(opts,
			vibe.WithLocker(redisAdapter.NewLocker(client, cfg.Redis.Prefix)),
			vibe.WithStateStore(redisAdapter.NewStore(client, cfg.Redis.Prefix)),
		)
	}

	engine, err := vibe.New(opts...)
	if err != nil {
		return nil, err
	}

	return &buildEnv{cfg: cfg, logger: logger, engine: engine, metrics: metrics}, nil
}
