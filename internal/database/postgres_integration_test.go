//go:build integration

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"socialhub/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func pgConfig(dbName string) *config.Config {
	return &config.Config{
		Env:          "test",
		DBDriver:     "postgres",
		DBHost:       getEnvOrDefault("DB_HOST", "localhost"),
		DBPort:       getEnvOrDefault("DB_PORT", "5432"),
		DBUser:       getEnvOrDefault("DB_USER", "socialhub"),
		DBPassword:   getEnvOrDefault("DB_PASSWORD", "socialhub"),
		DBName:       dbName,
		DBSSLMode:    "disable",
		DBSchemaMode: SchemaModeSQL,
	}
}

func maintenanceDSN(cfg *config.Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/postgres?sslmode=disable", cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort)
}

// createEphemeralDB makes a throwaway database that is dropped after the test.
func createEphemeralDB(t *testing.T) *config.Config {
	t.Helper()
	cfg := pgConfig(fmt.Sprintf("socialhub_mig_%d", time.Now().UnixNano()))

	sqlDB, err := sql.Open("pgx", maintenanceDSN(cfg))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	if err := sqlDB.PingContext(ctx); err != nil {
		t.Skipf("postgres unavailable: %v", err)
	}
	_, err = sqlDB.ExecContext(ctx, `CREATE DATABASE `+cfg.DBName)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = sqlDB.ExecContext(context.Background(), `SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1`, cfg.DBName)
		_, _ = sqlDB.ExecContext(context.Background(), `DROP DATABASE IF EXISTS `+cfg.DBName)
	})
	return cfg
}

func TestMigrationsApplyFreshPostgres(t *testing.T) {
	cfg := createEphemeralDB(t)
	ctx := context.Background()

	db, err := Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close() })

	for _, table := range []string{"users", "sessions", "posts", "comments", "comment_likes", "friend_requests", "friendships", "user_blocks", "notifications"} {
		assert.True(t, db.Migrator().HasTable(table), "expected table %s", table)
	}

	status, err := GetSchemaStatus(ctx, db, cfg)
	require.NoError(t, err)
	assert.Empty(t, status.PendingMigrations)
	assert.Equal(t, []int{1, 2}, status.AppliedVersions)

	migrations, err := EmbeddedMigrations()
	require.NoError(t, err)
	require.NoError(t, RollbackMigration(ctx, db, migrations, 2))
	require.NoError(t, RollbackMigration(ctx, db, migrations, 1))
	assert.False(t, db.Migrator().HasTable("posts"))

	require.NoError(t, RunMigrations(ctx, db, migrations))
	assert.True(t, db.Migrator().HasTable("posts"))
}
