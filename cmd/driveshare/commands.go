package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/driveshare-core/internal/auth"
	"github.com/nerrad567/driveshare-core/internal/dataserv"
	"github.com/nerrad567/driveshare-core/internal/infrastructure/config"
	"github.com/nerrad567/driveshare-core/internal/process"
	"github.com/nerrad567/driveshare-core/internal/shutdown"
)

// newTokenCmd mints an API bearer token signed with the configured secret.
func newTokenCmd(configPath *string) *cobra.Command {
	var (
		subject string
		role    string
		ttl     int
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API access token",
		Long: `Mints an HS256 access token for the HTTP API, signed with security.jwt.secret.
Viewers may read drives, processes and output; operators may also start and stop
processes and edit drives.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if ttl == 0 {
				ttl = cfg.Security.JWT.AccessTokenTTL
			}

			token, err := auth.GenerateAccessToken(auth.Operator{
				Subject: subject,
				Role:    auth.Role(role),
			}, cfg.Security.JWT.Secret, ttl)
			if err != nil {
				return fmt.Errorf("minting token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "operator name recorded in the token")
	cmd.Flags().StringVarP(&role, "role", "r", string(auth.RoleViewer), "viewer or operator")
	cmd.Flags().IntVar(&ttl, "ttl", 0, "lifetime in minutes (default security.jwt.access_token_ttl)")
	//nolint:errcheck // flag is defined above
	cmd.MarkFlagRequired("subject")
	return cmd
}

// newValidateCmd checks the configured dataserv-client with --version
// without starting the API.
func newValidateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that the configured dataserv-client runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			sup := dataserv.New(dataserv.Config{
				DataDir:  cfg.DataDir,
				Binary:   cfg.Dataserv.Binary,
				Runner:   process.ExecRunner{Timeout: cfg.GetRunTimeout()},
				Shutdown: shutdown.NewRegistry(),
			})
			defer sup.Close()

			v, err := sup.ValidateClient(cmd.Context(), "")
			if err != nil {
				return fmt.Errorf("%s: %w", sup.Binary(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", sup.Binary(), v)
			return nil
		},
	}
}
