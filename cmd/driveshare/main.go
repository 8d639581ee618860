// DriveShare Core - dataserv-client supervisor
//
// This is the main entry point for driveshare-core. It runs the farmer
// client (dataserv-client) on behalf of each configured drive:
//   - starts, replaces and terminates client processes
//   - relays their output to the log, the IPC bus and MQTT
//   - records run history in SQLite and optionally InfluxDB
//   - serves an HTTP and WebSocket control API
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Running the bare binary serves.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "driveshare",
		Short:         "driveshare: dataserv-client supervisor",
		Long:          `driveshare runs dataserv-client for each configured drive and exposes an HTTP API to control it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", getConfigPath(),
		"path to config file (env DRIVESHARE_CONFIG)")

	root.AddCommand(
		newServeCmd(&configPath),
		newTokenCmd(&configPath),
		newValidateCmd(&configPath),
		newVersionCmd(),
	)
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the supervisor and API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), *configPath)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "driveshare %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

// getConfigPath returns the configuration file path.
// Uses DRIVESHARE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("DRIVESHARE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
