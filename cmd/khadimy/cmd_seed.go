package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rambosorn/khadimy/internal/app"
	"github.com/rambosorn/khadimy/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run the bootstrap seeder once",
	Long: `Creates the system tables and runs the bootstrap seeder: public read
permissions, the home hero, the about-us page, the site identity and the
default topics. Running it again changes nothing.`,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	report := rt.Seed(ctx)
	printReport(cmd, report)
	if !report.OK() {
		return fmt.Errorf("seeding finished with %d failure(s)", len(report.Failures))
	}
	return nil
}

func printReport(cmd *cobra.Command, r *seed.Report) {
	out := cmd.OutOrStdout()
	if !r.PublicRole {
		fmt.Fprintln(out, "public role: missing, permissions skipped")
	}
	fmt.Fprintf(out, "granted:   %d %s\n", len(r.Granted), strings.Join(r.Granted, ", "))
	fmt.Fprintf(out, "created:   %d %s\n", len(r.Created), strings.Join(r.Created, ", "))
	fmt.Fprintf(out, "published: %d %s\n", len(r.Published), strings.Join(r.Published, ", "))
	for _, f := range r.Failures {
		fmt.Fprintf(out, "failure:   %s\n", f)
	}
}
