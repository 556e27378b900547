package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/spetersoncode/cellmate/agent"
	"github.com/spetersoncode/cellmate/config"
	"github.com/spetersoncode/cellmate/internal/tokens"
	"github.com/spetersoncode/cellmate/mcp"
	"github.com/spetersoncode/cellmate/provider"
	"github.com/spetersoncode/cellmate/skill"
	"github.com/spetersoncode/cellmate/store"
	"github.com/spetersoncode/cellmate/tool"
)

// app wires the shared collaborators every command needs.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	settings *config.Settings
	factory  *provider.Factory
	tools    *tool.Registry
	skills   *skill.Library
	remotes  []*mcp.RemoteRegistry
	manager  *agent.Manager
}

type appOptions struct {
	// metrics registers agent metrics with the default Prometheus registry.
	metrics bool
	// history persists session transcripts under the state directory.
	history bool
}

func newApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, log: slog.Default()}

	settings, err := config.NewSettings(cfg, nil)
	if err != nil {
		return nil, err
	}
	a.settings = settings

	a.factory = provider.NewFactory(
		provider.ConfigFromEnv().Merge(cfg.Providers),
		provider.WithLogger(a.log),
		provider.WithModelDefaults(cfg.Models),
	)

	a.skills, err = skill.LoadDir(cfg.SkillsDir)
	if err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}
	a.tools = tool.NewRegistry()
	if a.skills.Len() > 0 {
		a.tools.Add(skill.Tools(a.skills)...)
	}

	if err := a.connectMCP(ctx); err != nil {
		a.Close()
		return nil, err
	}

	managerOpts := []agent.Option{
		agent.WithLogger(a.log),
		agent.WithSkills(a.skills),
		agent.WithTokenCounter(tokens.New()),
	}
	if cfg.SystemPrompt != "" {
		managerOpts = append(managerOpts, agent.WithSystemPrompt(cfg.SystemPrompt))
	}
	if opts.metrics {
		managerOpts = append(managerOpts, agent.WithMetrics(agent.MustNewMetrics(prometheus.DefaultRegisterer)))
	}
	if opts.history {
		adapter, err := store.NewFileAdapter(filepath.Join(cfg.StateDir, "history"))
		if err != nil {
			a.Close()
			return nil, err
		}
		managerOpts = append(managerOpts, agent.WithHistoryAdapter(adapter))
	}

	a.manager = agent.NewManager(a.factory, a.tools, a.settings, managerOpts...)
	return a, nil
}

func (a *app) connectMCP(ctx context.Context) error {
	for _, srv := range a.cfg.MCPServers {
		remoteOpts := []mcp.RemoteOption{
			mcp.WithServerName(srv.Name),
			mcp.WithPrefix(srv.Prefix),
			mcp.WithLogger(a.log),
		}
		var (
			remote *mcp.RemoteRegistry
			err    error
		)
		if srv.URL != "" {
			remote, err = mcp.NewRemoteRegistrySSE(ctx, srv.URL, remoteOpts...)
		} else {
			remote, err = mcp.NewRemoteRegistry(ctx, srv.Command, srv.Env, srv.Args, remoteOpts...)
		}
		if err != nil {
			return fmt.Errorf("mcp server %s: %w", srv.Name, err)
		}
		a.remotes = append(a.remotes, remote)

		var regOpts []tool.RegisterOption
		if srv.RequireApproval {
			regOpts = append(regOpts, tool.WithApproval())
		}
		if _, err := remote.RegisterInto(a.tools, regOpts...); err != nil {
			return fmt.Errorf("mcp server %s: %w", srv.Name, err)
		}
	}
	return nil
}

// Close shuts down sessions and MCP connections.
func (a *app) Close() {
	if a.manager != nil {
		a.manager.Close()
	}
	var errs []error
	for _, r := range a.remotes {
		errs = append(errs, r.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.log.Warn("closing mcp connections", "error", err)
	}
}
