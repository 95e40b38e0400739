package cli

import (
	"errors"
	"fmt"

	"github.com/adshift/adshift/internal/adapters/outbound/tui"
	"github.com/adshift/adshift/internal/domain"
	"github.com/spf13/cobra"
)

func newSchemasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "Inspect schemas, rules and transforms",
	}
	cmd.AddCommand(newSchemasListCmd())
	cmd.AddCommand(newSchemasShowCmd())
	return cmd
}

type platformList struct {
	Sources    []string `json:"sources"`
	Targets    []string `json:"targets"`
	RuleSets   []string `json:"rule_sets"`
	Transforms []string `json:"transforms"`
}

func newSchemasListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List source platforms, targets and transforms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			list := platformList{
				Sources:    a.catalog.Platforms(),
				Targets:    a.catalog.Targets(),
				RuleSets:   a.catalog.RuleSets(),
				Transforms: a.catalog.TransformNames(),
			}
			if jsonOutput {
				return writeJSON(cmd, list)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderPlatforms(list.Sources, list.Targets, list.Transforms))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newSchemasShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		sample     bool
	)

	cmd := &cobra.Command{
		Use:   "show <platform>",
		Short: "Show a source schema or a platform's rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if sample {
				rec, err := a.catalog.Sample(name)
				if err != nil {
					return err
				}
				return writeJSON(cmd, rec)
			}

			def, err := a.catalog.Schema(name)
			var notFound *domain.SchemaNotFoundError
			switch {
			case err == nil:
				if jsonOutput {
					return writeJSON(cmd, def)
				}
				fmt.Fprint(cmd.OutOrStdout(), tui.RenderSchema(def))
				return nil
			case !errors.As(err, &notFound):
				return err
			}

			rules, err := a.catalog.Rules(name)
			if err != nil {
				return fmt.Errorf("no schema or rules for %q", name)
			}
			if jsonOutput {
				return writeJSON(cmd, rules)
			}
			fmt.Fprint(cmd.OutOrStdout(), tui.RenderRules(rules))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&sample, "sample", false, "Print the schema's sample record as JSON")
	return cmd
}
