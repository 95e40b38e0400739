package cli

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	mcpadapter "github.com/adshift/adshift/internal/adapters/inbound/mcp"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server commands",
		Long:  "Commands for running the adshift MCP (Model Context Protocol) server.",
	}
	cmd.AddCommand(newMCPServeCmd())
	return cmd
}

func newMCPServeCmd() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start adshift MCP server (stdio)",
		Long:  "Start the adshift MCP server using stdio transport. This lets AI assistants preview, validate and run campaign migrations.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if metricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", a.metrics.Handler())
				srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						fmt.Fprintf(cmd.ErrOrStderr(), "metrics server: %v\n", err)
					}
				}()
				defer srv.Close()
			}

			s := mcpadapter.NewServer(a.catalog, a.migrations, version)
			return server.ServeStdio(s)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	return cmd
}
