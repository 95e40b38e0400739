package cli

import (
	"fmt"

	"github.com/adshift/adshift/internal/adapters/outbound/batchfile"
	"github.com/adshift/adshift/internal/adapters/outbound/tui"
	"github.com/adshift/adshift/internal/domain"
	"github.com/spf13/cobra"
)

func newMigrateBatchCmd() *cobra.Command {
	var (
		file       string
		from       string
		to         string
		idField    string
		dryRun     bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "migrate-batch",
		Short: "Migrate campaigns exported to a JSON, JSON Lines or CSV file",
		Long: "Read already-exported source campaigns from a file and migrate each of them. " +
			"CSV headers may use dotted paths (targeting.geo) for nested fields.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := batchfile.Read(file)
			if err != nil {
				return err
			}

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			batch, err := a.migrations.MigrateRecords(cmd.Context(), domain.BatchRequest{
				Source:  from,
				Target:  to,
				Records: records,
				IDField: idField,
				DryRun:  dryRun,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				if err := writeJSON(cmd, batch); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderBatch(batch))
			}

			if batch.Failed+batch.Partial > 0 {
				return fmt.Errorf("%w: %d of %d records", errNotMigrated, batch.Failed+batch.Partial, len(batch.Reports))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Batch file (.json, .jsonl, .ndjson or .csv)")
	cmd.Flags().StringVar(&from, "from", "", "Source platform of the records")
	cmd.Flags().StringVar(&to, "to", "taboola", "Target platform")
	cmd.Flags().StringVar(&idField, "id-field", "", "Record field holding the source campaign id (defaults to id, then name)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Map and validate without creating campaigns")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the batch report as JSON")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}
