package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adshift/adshift/internal/adapters/outbound/config"
	"github.com/adshift/adshift/internal/domain"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Generate a .adshift.yaml configuration file",
		Long:  "Create a .adshift.yaml that runs in demo mode: bundled schemas, sample sources and an in-memory target.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			absPath, err := filepath.Abs(path)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			dest := filepath.Join(absPath, config.FileName)

			if !force {
				if _, err := os.Stat(dest); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", config.FileName)
				}
			}

			if err := os.WriteFile(dest, []byte(generateConfig(domain.DefaultConfig())), 0644); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", config.FileName)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing "+config.FileName)

	return cmd
}

func generateConfig(cfg domain.AppConfig) string {
	var b strings.Builder

	b.WriteString("# adshift configuration\n\n")
	b.WriteString("# schemas_dir: schemas   # defaults to the bundled schemas\n")
	b.WriteString("# rules_dir: rules\n\n")

	retry := cfg.EffectiveRetry()
	b.WriteString("retry:\n")
	fmt.Fprintf(&b, "  max_attempts: %d\n", retry.MaxAttempts)
	fmt.Fprintf(&b, "  base_delay: %s\n", retry.BaseDelay)
	fmt.Fprintf(&b, "  max_delay: %s\n", retry.MaxDelay)
	fmt.Fprintf(&b, "  multiplier: %g\n", retry.Multiplier)
	fmt.Fprintf(&b, "  jitter: %g\n\n", retry.Jitter)

	b.WriteString("sources:\n")
	for _, name := range sortedKeys(cfg.Sources) {
		fmt.Fprintf(&b, "  %s:\n    kind: %s\n", name, cfg.Sources[name].Kind)
	}
	b.WriteString(`  # facebook:
  #   kind: http
  #   base_url: https://graph.facebook.com
  #   path_template: /v19.0/{id}
  #   headers:
  #     Authorization: Bearer <token>
  #   rate_limit: 5
`)
	b.WriteString("\ntargets:\n")
	for _, name := range sortedKeys(cfg.Targets) {
		fmt.Fprintf(&b, "  %s:\n    kind: %s\n", name, cfg.Targets[name].Kind)
	}
	b.WriteString(`  # taboola:
  #   kind: http
  #   url: https://backstage.taboola.com/backstage/api/1.0/<account>/campaigns/
`)

	fmt.Fprintf(&b, "\nreport_store:\n  kind: %s\n", cfg.ReportStore.Kind)
	b.WriteString(`  # kind: postgres
  # dsn: postgres://adshift@localhost/adshift?sslmode=disable
`)
	fmt.Fprintf(&b, "\nbatch_concurrency: %d\n", cfg.BatchConcurrency)

	return b.String()
}
