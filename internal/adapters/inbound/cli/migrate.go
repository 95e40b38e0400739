package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/adshift/adshift/internal/adapters/outbound/tui"
	"github.com/adshift/adshift/internal/domain"
	"github.com/spf13/cobra"
)

// errNotMigrated signals a non-success outcome whose report was already printed.
var errNotMigrated = errors.New("migration did not succeed")

func newMigrateCmd() *cobra.Command {
	var (
		from       string
		to         string
		campaignID string
		jsonOutput bool
		dryRun     bool
		overrides  []string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate one campaign to another platform",
		Long:  "Fetch a campaign from the source platform, map it to the target's shape, validate it and create it on the target.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseOverrides(overrides)
			if err != nil {
				return err
			}

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			report := a.migrations.Migrate(cmd.Context(), domain.MigrationRequest{
				Source:     from,
				Target:     to,
				CampaignID: campaignID,
				DryRun:     dryRun,
				Overrides:  parsed,
			})

			if jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderMigration(report))
			}

			if report.Outcome != domain.OutcomeSuccess {
				return fmt.Errorf("%w: %s", errNotMigrated, report.Outcome)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Source platform (e.g. facebook)")
	cmd.Flags().StringVar(&to, "to", "taboola", "Target platform")
	cmd.Flags().StringVar(&campaignID, "id", "", "Source campaign id")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Map and validate without creating the campaign")
	cmd.Flags().StringArrayVar(&overrides, "override", nil, "Override a canonical field after mapping (field=value, value may be JSON; null removes the field)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}

// parseOverrides turns field=value pairs into canonical values. Values that
// parse as JSON keep their type; anything else is a string.
func parseOverrides(pairs []string) (map[string]domain.Value, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]domain.Value, len(pairs))
	for _, pair := range pairs {
		field, raw, ok := strings.Cut(pair, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid --override %q (want field=value)", pair)
		}
		var v domain.Value
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = domain.String(raw)
		}
		out[field] = v
	}
	return out, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
