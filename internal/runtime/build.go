// Package runtime assembles the MCP server from built-in and manifest tools.
package runtime

import (
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codex-k8s/toolgate-mcp-server/internal/audit"
	"github.com/codex-k8s/toolgate-mcp-server/internal/manifest"
	"github.com/codex-k8s/toolgate-mcp-server/internal/registry"
	"github.com/codex-k8s/toolgate-mcp-server/internal/runtime/executor"
	"github.com/codex-k8s/toolgate-mcp-server/internal/tools"
	"github.com/codex-k8s/toolgate-mcp-server/internal/tools/command"
)

// Server identity used when Builder leaves it empty.
const (
	DefaultName    = "toolgate-mcp-server"
	DefaultVersion = "dev"
)

// Builder constructs an MCP server with its tool registry.
type Builder struct {
	// Name is the MCP server name.
	Name string
	// Version is the MCP server version.
	Version string
	// Executor admits and bounds every tool call.
	Executor *executor.Executor
	// Logger is used for structured logging.
	Logger *slog.Logger
	// Audit records tool events.
	Audit audit.Logger
	// Metrics records tool outcomes.
	Metrics registry.Recorder
}

// Build creates an MCP server exposing the core tools plus the tools and
// resources of m, which may be nil.
func (b Builder) Build(m *manifest.Manifest) (*mcp.Server, *registry.Registry, error) {
	if b.Executor == nil {
		return nil, nil, fmt.Errorf("executor is nil")
	}
	name, version := b.Name, b.Version
	if name == "" {
		name = DefaultName
	}
	if version == "" {
		version = DefaultVersion
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, nil)

	reg := registry.New(server, b.Executor,
		registry.WithLogger(b.Logger),
		registry.WithAudit(b.Audit),
		registry.WithMetrics(b.Metrics),
	)
	for _, def := range tools.Core(b.Executor) {
		if err := reg.Register(def); err != nil {
			return nil, nil, err
		}
	}

	if m != nil {
		defs, err := command.Definitions(m.Tools)
		if err != nil {
			return nil, nil, err
		}
		for _, def := range defs {
			if err := reg.Register(def); err != nil {
				return nil, nil, err
			}
		}
		tools.RegisterResources(server, m.Resources)
	}

	return server, reg, nil
}
