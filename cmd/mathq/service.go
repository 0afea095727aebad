package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/mathq/internal/cli"
	"github.com/Veraticus/mathq/internal/common"
	"github.com/spf13/cobra"
)

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in to the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}

			if err := client.Login(cmd.Context()); err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Logged in"))
			return err
		},
	}
}

func healthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}

			attempts, _ := cmd.Flags().GetInt("attempts")
			ctx := cmd.Context()
			err = common.WithRetry(ctx, func() error {
				return client.Health(ctx)
			}, common.RetryOptions{
				MaxAttempts:  attempts,
				InitialDelay: 500 * time.Millisecond,
				MaxDelay:     5 * time.Second,
			})
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatError(client.BaseURL()+" is unreachable"))
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(client.BaseURL()+" is up"))
			return err
		},
	}

	// Render's free tier sleeps idle services, so the first calls may fail.
	cmd.Flags().Int("attempts", 3, "attempts before giving up")

	return cmd
}
