package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rambosorn/khadimy/internal/app"
	"github.com/rambosorn/khadimy/internal/cmsclient"
)

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Serve the public site data endpoints",
	Long: `Serves /site/* page data loaded from the content API at CMS_URL
(or STRAPI_URL). The port comes from site.port.`,
	RunE: runSite,
}

func runSite(cmd *cobra.Command, args []string) error {
	client := cmsclient.New(cfg.CMS.BaseURL(), cmsclient.WithLogger(logger))
	srv := app.NewSiteServer(cfg, logger, client)

	addr := fmt.Sprintf(":%d", cfg.Site.Port)
	logger.Info("starting site server", zap.String("addr", addr), zap.String("cms", client.BaseURL()))
	return srv.Listen(addr)
}
