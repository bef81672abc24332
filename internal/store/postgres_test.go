package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/rambosorn/khadimy/internal/config"
	"github.com/rambosorn/khadimy/internal/metadata"
)

// startPostgres runs a throwaway PostgreSQL container. Set KHADIMY_PG_TESTS=1 to enable.
func startPostgres(t *testing.T) config.DatabaseConfig {
	t.Helper()
	if os.Getenv("KHADIMY_PG_TESTS") != "1" {
		t.Skip("set KHADIMY_PG_TESTS=1 to run PostgreSQL tests")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "khadimy",
			"POSTGRES_PASSWORD": "khadimy",
			"POSTGRES_DB":       "khadimy",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	var p int
	_, err = fmt.Sscan(port.Port(), &p)
	require.NoError(t, err)

	return config.DatabaseConfig{
		Driver: "postgres", Host: host, Port: p,
		User: "khadimy", Password: "khadimy", Name: "khadimy", PoolSize: 4,
	}
}

func TestPostgres_BootstrapAndMigrate(t *testing.T) {
	cfg := startPostgres(t)
	ctx := context.Background()

	s, err := New(ctx, cfg)
	require.NoError(t, err)
	defer s.Close()

	admin := AdminSeed{Email: "admin@khadimy.com", Password: "s3cret"}
	require.NoError(t, s.Bootstrap(ctx, admin, zap.NewNop()))
	require.NoError(t, s.Bootstrap(ctx, admin, zap.NewNop()))
	require.NoError(t, NewMigrator(s).MigrateAll(ctx, metadata.ContentTypes()))
	require.NoError(t, NewMigrator(s).MigrateAll(ctx, metadata.ContentTypes()))

	var roles int
	require.NoError(t, s.DB.QueryRowxContext(ctx, "SELECT COUNT(*) FROM up_roles").Scan(&roles))
	assert.Equal(t, 3, roles)

	_, err = s.DB.ExecContext(ctx, "INSERT INTO topics (document_id, slug) VALUES ('a', 'seo')")
	require.NoError(t, err)
	_, err = s.DB.ExecContext(ctx, "INSERT INTO topics (document_id, slug) VALUES ('b', 'seo')")
	assert.ErrorIs(t, MapError(s.Dialect, err), ErrUniqueViolation)
}
