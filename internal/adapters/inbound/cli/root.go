package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adshift",
		Short: "Move ad campaigns between platforms",
		Long: "adshift maps campaigns from one ad platform's data model to another's with declarative schemas, " +
			"validates them against the target's rules and submits them.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().String("dir", ".", "Project directory containing .adshift.yaml")
	cmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newMigrateBatchCmd())
	cmd.AddCommand(newMapCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newSchemasCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newMCPCmd())
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

// Execute runs the root command. Cancelling ctx stops an in-flight
// migration, which is then reported as cancelled.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// newLogger builds the text logger on stderr selected by --log-level.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(flagString(cmd, "log-level"))); err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})), nil
}

func flagString(cmd *cobra.Command, name string) string {
	if f := cmd.Flag(name); f != nil {
		return f.Value.String()
	}
	return ""
}
