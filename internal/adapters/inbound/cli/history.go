package cli

import (
	"fmt"

	"github.com/adshift/adshift/internal/adapters/outbound/tui"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent migration reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.store == nil {
				return fmt.Errorf("report store is disabled (report_store.kind: none)")
			}
			reports, err := a.store.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("loading history: %w", err)
			}

			if jsonOutput {
				return writeJSON(cmd, reports)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderHistory(reports))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of reports to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
