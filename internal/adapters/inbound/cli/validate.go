package cli

import (
	"errors"
	"fmt"

	"github.com/adshift/adshift/internal/adapters/outbound/tui"
	"github.com/adshift/adshift/internal/domain"
	"github.com/spf13/cobra"
)

var errInvalidRecord = errors.New("record is not valid")

func newValidateCmd() *cobra.Command {
	var (
		platform   string
		from       string
		file       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a record against a platform's rules",
		Long: "Validate a record against the rules of --platform. With --from the record is first mapped " +
			"with that source's schema; without --file the source's sample record is used.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" && file == "" {
				return fmt.Errorf("either --file or --from is required")
			}

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var report domain.ValidationReport
			if from != "" {
				raw, err := sourceRecord(a, from, file)
				if err != nil {
					return err
				}
				res, err := a.catalog.Map(from, raw)
				if err != nil {
					return err
				}
				report, err = a.catalog.Validate(platform, res.Record)
				if err != nil {
					return err
				}
			} else {
				raw, err := sourceRecord(a, "", file)
				if err != nil {
					return err
				}
				report, err = a.catalog.ValidateRaw(platform, raw)
				if err != nil {
					return err
				}
			}

			if jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderValidation(report))
			}

			if !report.Pass {
				return fmt.Errorf("%w: %d issues", errInvalidRecord, len(report.Issues))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "taboola", "Platform whose rules the record must satisfy")
	cmd.Flags().StringVar(&from, "from", "", "Map the record with this source platform's schema first")
	cmd.Flags().StringVar(&file, "file", "", "File holding a single record")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the validation report as JSON")

	return cmd
}
