package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rambosorn/khadimy/internal/cmsclient"
)

var (
	fetchParams []string
	fetchDryRun bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [endpoint]",
	Short: "Query the content API and print normalized records",
	Long: `Issues one GET against the content API and prints the flattened records
as JSON, whatever the server's envelope version.

Example:
  khadimy fetch /courses -p 'filters[slug][$eq]=go-basics' -p populate=cover`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringArrayVarP(&fetchParams, "param", "p", nil, "query parameter key=value (repeatable)")
	fetchCmd.Flags().BoolVar(&fetchDryRun, "dry-run", false, "print the request URL without sending it")
}

func parseParams(raw []string) (cmsclient.Params, error) {
	params := make(cmsclient.Params, 0, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected key=value", kv)
		}
		params = params.With(key, value)
	}
	return params, nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	params, err := parseParams(fetchParams)
	if err != nil {
		return err
	}
	endpoint := "/" + strings.TrimPrefix(args[0], "/")
	client := cmsclient.New(cfg.CMS.BaseURL(), cmsclient.WithLogger(logger))

	if fetchDryRun {
		fmt.Fprintln(cmd.OutOrStdout(), client.URL(endpoint, params))
		return nil
	}

	res, err := client.Get(cmd.Context(), endpoint, params)
	if err != nil {
		return err
	}
	var out any = res.Records
	if res.Single {
		out, _ = res.One()
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
