package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rambosorn/khadimy/internal/admin"
	"github.com/rambosorn/khadimy/internal/app"
)

var grantCmd = &cobra.Command{
	Use:   "grant [role] [action]",
	Short: "Grant a content API action to a role",
	Long: `Persists a permission row, e.g.

  khadimy grant public api::event.event.find`,
	Args: cobra.ExactArgs(2),
	RunE: runGrant,
}

var revokeCmd = &cobra.Command{
	Use:   "revoke [role] [action]",
	Short: "Revoke a content API action from a role",
	Args:  cobra.ExactArgs(2),
	RunE:  runRevoke,
}

func runGrant(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	created, err := admin.Grant(ctx, rt.Permissions, rt.Registry, args[0], args[1])
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "granted %s to %s\n", args[1], args[0])
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s already holds %s\n", args[0], args[1])
	}
	return nil
}

func runRevoke(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := admin.Revoke(ctx, rt.Permissions, rt.Registry, args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "revoked %s from %s\n", args[1], args[0])
	return nil
}
