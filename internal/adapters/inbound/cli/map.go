package cli

import (
	"fmt"

	"github.com/adshift/adshift/internal/adapters/outbound/batchfile"
	"github.com/adshift/adshift/internal/adapters/outbound/tui"
	"github.com/adshift/adshift/internal/domain"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

func newMapCmd() *cobra.Command {
	var (
		from       string
		file       string
		jsonOutput bool
		dump       bool
	)

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Preview how a source record maps to the canonical shape",
		Long:  "Apply a source platform's schema to a record without fetching, validating or submitting. Uses the schema's sample record when --file is not given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			raw, err := sourceRecord(a, from, file)
			if err != nil {
				return err
			}
			res, err := a.catalog.Map(from, raw)
			if err != nil {
				return err
			}

			switch {
			case dump:
				spew.Fdump(cmd.OutOrStdout(), res.Record.Native())
				return nil
			case jsonOutput:
				return writeJSON(cmd, res)
			default:
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderRecord(res.Platform, res.Record, res.Warnings))
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Source platform")
	cmd.Flags().StringVar(&file, "file", "", "JSON, JSON Lines or CSV file holding a single source record")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the mapped record as JSON")
	cmd.Flags().BoolVar(&dump, "dump", false, "Dump the mapped record's Go values")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

// sourceRecord reads a single record from file, or returns the sample of
// platform's schema when file is empty.
func sourceRecord(a *app, platform, file string) (domain.RawRecord, error) {
	if file == "" {
		return a.catalog.Sample(platform)
	}
	records, err := batchfile.Read(file)
	if err != nil {
		return nil, err
	}
	if len(records) != 1 {
		return nil, fmt.Errorf("%s holds %d records, expected one", file, len(records))
	}
	return records[0], nil
}
