package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/adshift/adshift/internal/domain"
)

// PlatformList is the payload of adshift_list_platforms and adshift://platforms.
type PlatformList struct {
	Sources    []string `json:"sources"`
	Targets    []string `json:"targets"`
	RuleSets   []string `json:"rule_sets"`
	Transforms []string `json:"transforms"`
}

func listPlatforms(c Catalog) PlatformList {
	return PlatformList{
		Sources:    c.Platforms(),
		Targets:    c.Targets(),
		RuleSets:   c.RuleSets(),
		Transforms: c.TransformNames(),
	}
}

// registerTools registers all adshift MCP tools on the given server.
func registerTools(s *server.MCPServer, catalog Catalog, migrator Migrator) {
	// 1. adshift_migrate
	s.AddTool(
		mcplib.NewTool("adshift_migrate",
			mcplib.WithDescription("Migrate one campaign from a source platform to a target platform. Returns the migration report."),
			mcplib.WithString("source", mcplib.Required(), mcplib.Description("Source platform, e.g. facebook")),
			mcplib.WithString("target", mcplib.Required(), mcplib.Description("Target platform, e.g. taboola")),
			mcplib.WithString("campaign_id", mcplib.Required(), mcplib.Description("Campaign id on the source platform")),
			mcplib.WithBoolean("dry_run", mcplib.Description("Map and validate without creating the campaign")),
			mcplib.WithObject("overrides", mcplib.Description("Canonical fields to replace after mapping; null removes a field")),
		),
		handleMigrate(migrator, false),
	)

	// 2. adshift_preview
	s.AddTool(
		mcplib.NewTool("adshift_preview",
			mcplib.WithDescription("Dry-run a migration: fetch, map and validate a campaign without creating it on the target"),
			mcplib.WithString("source", mcplib.Required(), mcplib.Description("Source platform")),
			mcplib.WithString("target", mcplib.Required(), mcplib.Description("Target platform")),
			mcplib.WithString("campaign_id", mcplib.Required(), mcplib.Description("Campaign id on the source platform")),
			mcplib.WithObject("overrides", mcplib.Description("Canonical fields to replace after mapping")),
		),
		handleMigrate(migrator, true),
	)

	// 3. adshift_map
	s.AddTool(
		mcplib.NewTool("adshift_map",
			mcplib.WithDescription("Map a raw source record to the canonical shape. Uses the schema's sample when no record is given."),
			mcplib.WithString("source", mcplib.Required(), mcplib.Description("Source platform whose schema to apply")),
			mcplib.WithObject("record", mcplib.Description("Raw source record")),
		),
		handleMap(catalog),
	)

	// 4. adshift_validate
	s.AddTool(
		mcplib.NewTool("adshift_validate",
			mcplib.WithDescription("Validate a record against a platform's rules. With source set, the record is mapped first."),
			mcplib.WithString("platform", mcplib.Required(), mcplib.Description("Platform whose rules apply")),
			mcplib.WithObject("record", mcplib.Required(), mcplib.Description("Record to validate")),
			mcplib.WithString("source", mcplib.Description("Source platform to map the record from before validating")),
		),
		handleValidate(catalog),
	)

	// 5. adshift_list_platforms
	s.AddTool(
		mcplib.NewTool("adshift_list_platforms",
			mcplib.WithDescription("List source platforms, target platforms, rule sets and transforms"),
		),
		func(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
			return jsonResult(listPlatforms(catalog))
		},
	)

	// 6. adshift_get_schema
	s.AddTool(
		mcplib.NewTool("adshift_get_schema",
			mcplib.WithDescription("Return a source platform's schema, or a platform's rules when it has no schema"),
			mcplib.WithString("platform", mcplib.Required(), mcplib.Description("Platform name")),
		),
		handleGetSchema(catalog),
	)

	// 7. adshift_get_sample
	s.AddTool(
		mcplib.NewTool("adshift_get_sample",
			mcplib.WithDescription("Return the sample raw record declared with a source platform's schema"),
			mcplib.WithString("platform", mcplib.Required(), mcplib.Description("Source platform")),
		),
		handleGetSample(catalog),
	)
}

func handleMigrate(migrator Migrator, preview bool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		source, err := request.RequireString("source")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		target, err := request.RequireString("target")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		campaignID, err := request.RequireString("campaign_id")
		if err != nil {
			return errorResult(err.Error()), nil
		}

		args := request.GetArguments()
		dryRun, _ := args["dry_run"].(bool)
		overrides, err := valueMap(args["overrides"])
		if err != nil {
			return errorResult(fmt.Sprintf("invalid overrides: %v", err)), nil
		}

		report := migrator.Migrate(ctx, domain.MigrationRequest{
			Source:     source,
			Target:     target,
			CampaignID: campaignID,
			DryRun:     dryRun || preview,
			Overrides:  overrides,
		})
		return jsonResult(report)
	}
}

func handleMap(catalog Catalog) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		source, err := request.RequireString("source")
		if err != nil {
			return errorResult(err.Error()), nil
		}

		raw, err := recordArg(request, "record")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		if raw == nil {
			if raw, err = catalog.Sample(source); err != nil {
				return errorResult(err.Error()), nil
			}
		}

		res, err := catalog.Map(source, raw)
		if err != nil {
			return errorResult(fmt.Sprintf("mapping failed: %v", err)), nil
		}
		return jsonResult(res)
	}
}

func handleValidate(catalog Catalog) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		platform, err := request.RequireString("platform")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		raw, err := recordArg(request, "record")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		if raw == nil {
			return errorResult("record is required"), nil
		}

		source, _ := request.GetArguments()["source"].(string)
		if source == "" {
			report, err := catalog.ValidateRaw(platform, raw)
			if err != nil {
				return errorResult(err.Error()), nil
			}
			return jsonResult(report)
		}

		res, err := catalog.Map(source, raw)
		if err != nil {
			return errorResult(fmt.Sprintf("mapping failed: %v", err)), nil
		}
		report, err := catalog.Validate(platform, res.Record)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return jsonResult(report)
	}
}

func handleGetSchema(catalog Catalog) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		platform, err := request.RequireString("platform")
		if err != nil {
			return errorResult(err.Error()), nil
		}

		def, err := catalog.Schema(platform)
		if err == nil {
			return jsonResult(def)
		}
		var notFound *domain.SchemaNotFoundError
		if !errors.As(err, &notFound) {
			return errorResult(err.Error()), nil
		}
		rules, err := catalog.Rules(platform)
		if err != nil {
			return errorResult(fmt.Sprintf("no schema or rules for %q", platform)), nil
		}
		return jsonResult(rules)
	}
}

func handleGetSample(catalog Catalog) server.ToolHandlerFunc {
	return func(_ context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
		platform, err := request.RequireString("platform")
		if err != nil {
			return errorResult(err.Error()), nil
		}
		sample, err := catalog.Sample(platform)
		if err != nil {
			return errorResult(err.Error()), nil
		}
		return jsonResult(sample)
	}
}

// recordArg returns the object argument name as a raw record, or nil when
// the argument is absent.
func recordArg(request mcplib.CallToolRequest, name string) (domain.RawRecord, error) {
	v, ok := request.GetArguments()[name]
	if !ok || v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an object", name)
	}
	return domain.NewRawRecord(m)
}

func valueMap(v any) (map[string]domain.Value, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object")
	}
	out := make(map[string]domain.Value, len(m))
	for k, x := range m {
		val, err := domain.FromAny(x)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[k] = val
	}
	return out, nil
}

// jsonResult marshals v to JSON and returns it as a text content result.
func jsonResult(v any) (*mcplib.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(string(data))},
	}, nil
}

// errorResult returns a tool result that indicates an error occurred.
func errorResult(msg string) *mcplib.CallToolResult {
	return &mcplib.CallToolResult{
		Content: []mcplib.Content{mcplib.NewTextContent(msg)},
		IsError: true,
	}
}
