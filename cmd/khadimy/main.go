package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rambosorn/khadimy/internal/config"
	"github.com/rambosorn/khadimy/internal/logging"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "khadimy",
	Short: "khadimy content tooling",
	Long: `Tooling around the khadimy CMS.

Available commands:
  site   - Serve the public site data endpoints
  seed   - Run the bootstrap seeder once
  fetch  - Query the content API and print normalized records
  grant  - Grant a content API action to a role
  revoke - Revoke a content API action from a role`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Log)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(siteCmd, seedCmd, fetchCmd, grantCmd, revokeCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
