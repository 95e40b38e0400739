package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerResources registers all adshift MCP resources on the given server.
func registerResources(s *server.MCPServer, catalog Catalog) {
	// 1. adshift://platforms - platforms, rule sets and transforms
	s.AddResource(
		mcplib.NewResource(
			"adshift://platforms",
			"Platforms",
			mcplib.WithResourceDescription("Source platforms, target platforms, rule sets and transforms"),
			mcplib.WithMIMEType("application/json"),
		),
		func(_ context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
			return jsonContents(request.Params.URI, listPlatforms(catalog))
		},
	)

	// 2. adshift://schemas/{platform} - schema definition (resource template)
	s.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			"adshift://schemas/{platform}",
			"Schema",
			mcplib.WithTemplateDescription("Mapping schema of a source platform"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		func(_ context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
			platform, err := templateArg(request, "platform")
			if err != nil {
				return nil, err
			}
			def, err := catalog.Schema(platform)
			if err != nil {
				return nil, err
			}
			return jsonContents(request.Params.URI, def)
		},
	)

	// 3. adshift://rules/{target} - validation rules (resource template)
	s.AddResourceTemplate(
		mcplib.NewResourceTemplate(
			"adshift://rules/{target}",
			"Rules",
			mcplib.WithTemplateDescription("Validation rules of a target platform"),
			mcplib.WithTemplateMIMEType("application/json"),
		),
		func(_ context.Context, request mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
			target, err := templateArg(request, "target")
			if err != nil {
				return nil, err
			}
			rules, err := catalog.Rules(target)
			if err != nil {
				return nil, err
			}
			return jsonContents(request.Params.URI, rules)
		},
	)
}

// templateArg extracts a URI template variable populated by template matching.
func templateArg(request mcplib.ReadResourceRequest, name string) (string, error) {
	switch v := request.Params.Arguments[name].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case []string:
		if len(v) > 0 && v[0] != "" {
			return v[0], nil
		}
	}
	return "", fmt.Errorf("%s is required", name)
}

func jsonContents(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling resource: %w", err)
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
