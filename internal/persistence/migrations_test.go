package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeMigrations(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func TestLoadMigrationsOrdersSQLFiles(t *testing.T) {
	dir := writeMigrations(t, map[string]string{
		"0002_b.sql": "SELECT 2;",
		"0001_a.sql": "SELECT 1;",
		"README.md":  "not a migration",
	})
	require.NoError(t, os.Mkdir(filepath.Join(dir, "0003_dir.sql"), 0o700))

	got, err := LoadMigrations(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "0001_a.sql", got[0].Name)
	assert.Equal(t, "SELECT 1;", got[0].SQL)
	assert.Len(t, got[0].Checksum, 64)
	assert.NotEqual(t, got[0].Checksum, got[1].Checksum)

	_, err = LoadMigrations(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestPendingSkipsAppliedAndRejectsEdits(t *testing.T) {
	all := []Migration{
		{Name: "0001_a.sql", Checksum: "aaa"},
		{Name: "0002_b.sql", Checksum: "bbb"},
	}

	pending, err := Pending(all, map[string]string{"0001_a.sql": "aaa"})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "0002_b.sql", pending[0].Name)

	pending, err = Pending(all, nil)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	_, err = Pending(all, map[string]string{"0001_a.sql": "edited"})
	assert.ErrorContains(t, err, "0001_a.sql changed")
}

func TestRunMigrationsWithoutPoolIsNoop(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil, "does-not-matter", zap.NewNop()))
}

func TestRunMigrationsAppliesEachFileOnce(t *testing.T) {
	dsn := os.Getenv("PORTAL_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("Skipping Postgres tests: PORTAL_TEST_POSTGRES_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	schema := fmt.Sprintf("migrations_test_%d", time.Now().UnixNano())
	admin, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer admin.Close()
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	defer admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	defer pool.Close()

	// Not idempotent on purpose: a second run would fail if it re-applied.
	dir := writeMigrations(t, map[string]string{
		"0001_rooms.sql": "CREATE TABLE rooms (id TEXT PRIMARY KEY);",
	})
	require.NoError(t, RunMigrations(ctx, pool, dir, zap.NewNop()))
	require.NoError(t, RunMigrations(ctx, pool, dir, zap.NewNop()))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "0002_broken.sql"), []byte("CREATE TABLE broken (;"), 0o600))
	require.Error(t, RunMigrations(ctx, pool, dir, zap.NewNop()))

	var names []string
	rows, err := pool.Query(ctx, "SELECT name FROM schema_migrations ORDER BY name")
	require.NoError(t, err)
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"0001_rooms.sql"}, names)
}
