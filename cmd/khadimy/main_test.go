package main

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rambosorn/khadimy/internal/cmsclient"
	"github.com/rambosorn/khadimy/internal/seed"
)

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"filters[slug][$eq]=a=b", "populate=*"})
	require.NoError(t, err)
	assert.Equal(t, cmsclient.Params{
		{Key: "filters[slug][$eq]", Value: "a=b"},
		{Key: "populate", Value: "*"},
	}, params)

	_, err = parseParams([]string{"populate"})
	assert.Error(t, err)
	_, err = parseParams([]string{"=x"})
	assert.Error(t, err)
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	printReport(cmd, &seed.Report{
		Granted:  []string{"api::course.course.find"},
		Failures: []string{"topic:seo: boom"},
	})

	out := buf.String()
	assert.Contains(t, out, "public role: missing")
	assert.Contains(t, out, "granted:   1 api::course.course.find")
	assert.Contains(t, out, "failure:   topic:seo: boom")
}

func TestFetch_DryRun(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CMS_URL", "https://cms.example.com/admin/")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"fetch", "courses", "-p", "populate=*", "--dry-run"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		fetchParams, fetchDryRun = nil, false
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "https://cms.example.com/api/courses?populate=%2A\n", buf.String())
}
