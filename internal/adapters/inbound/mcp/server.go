// Package mcp exposes adshift's catalog and migration services as MCP tools
// and resources.
package mcp

import (
	"context"

	"github.com/adshift/adshift/internal/application"
	"github.com/adshift/adshift/internal/domain"
	"github.com/mark3labs/mcp-go/server"
)

// Catalog answers read-only questions about platforms, schemas and rules.
type Catalog interface {
	Platforms() []string
	Targets() []string
	RuleSets() []string
	TransformNames() []string
	Schema(platform string) (domain.SchemaDefinition, error)
	Sample(platform string) (domain.RawRecord, error)
	Rules(platform string) (domain.TargetRules, error)
	Map(source string, raw domain.RawRecord) (*application.MapResult, error)
	Validate(platform string, record domain.CanonicalRecord) (domain.ValidationReport, error)
	ValidateRaw(platform string, raw domain.RawRecord) (domain.ValidationReport, error)
}

// Migrator runs migrations.
type Migrator interface {
	Migrate(ctx context.Context, req domain.MigrationRequest) *domain.MigrationReport
}

// NewServer creates an MCP server with every adshift tool and resource
// registered.
func NewServer(catalog Catalog, migrator Migrator, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"adshift",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	registerTools(s, catalog, migrator)
	registerResources(s, catalog)

	return s
}
