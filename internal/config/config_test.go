package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBaseURL(t *testing.T) {
	cases := map[string]string{
		"":                                  DefaultCMSURL,
		"https://cms.example.com":           "https://cms.example.com",
		"https://cms.example.com/":          "https://cms.example.com",
		"https://cms.example.com/admin":     "https://cms.example.com",
		"https://cms.example.com/admin/":    "https://cms.example.com",
		"  http://localhost:1337/admin/  ":  "http://localhost:1337",
		"https://cms.example.com/administr": "https://cms.example.com/administr",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeBaseURL(in), "input %q", in)
	}
}

func TestParseOrigins(t *testing.T) {
	assert.Equal(t, FallbackOrigins, ParseOrigins(""))
	assert.Equal(t, FallbackOrigins, ParseOrigins("   "))
	assert.Equal(t,
		[]string{"https://a.example", "https://b.example"},
		ParseOrigins(" https://a.example, ,https://b.example "),
	)
}

func TestParseOrigins_FallbackIsCopied(t *testing.T) {
	origins := ParseOrigins("")
	origins[0] = "mutated"
	assert.Equal(t, "http://localhost:5173", FallbackOrigins[0])
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "v5", cfg.API.ResponseFormat)
	assert.True(t, cfg.Seed.Enabled)
	assert.Equal(t, "bootstrap_debug.log", cfg.Seed.LogPath)
	assert.Equal(t, []string{"api::registration.registration.create"}, cfg.Permissions.Public)
}

func TestValidate_RejectsUnknownDriver(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "mysql"
	assert.Error(t, Validate(cfg))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CMS_URL", "https://cms.example.com/admin/")
	t.Setenv("CORS_ORIGINS", "https://one.example,https://two.example")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("SERVER_PORT", "8081")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://cms.example.com", cfg.CMS.BaseURL())
	assert.Equal(t, []string{"https://one.example", "https://two.example"}, cfg.CORS.AllowedOrigins())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 8081, cfg.Server.Port)
}

func TestLoad_MalformedDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(".env", []byte("CMS_URL=\"https://cms.example.com\n"), 0o600))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load .env")
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Driver: "sqlite", Path: "/tmp/data", Name: "khadimy"}
	assert.Equal(t, "/tmp/data/khadimy.db", d.DSN())
	assert.True(t, d.IsSQLite())

	pg := DatabaseConfig{Driver: "postgres", User: "u", Password: "p", Host: "db", Port: 5432, Name: "cms"}
	assert.Equal(t, "postgres://u:p@db:5432/cms?sslmode=disable", pg.DSN())
}
