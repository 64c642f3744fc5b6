package database_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facesim/internal/database"
)

func testDSN(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	return dsn
}

func TestMigratorIntegration(t *testing.T) {
	dsn := testDSN(t)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, db.PingContext(ctx))

	cleanupDatabase(t, db)
	t.Cleanup(func() {
		cleanupDatabase(t, db)
	})

	t.Run("Up runs migrations successfully", func(t *testing.T) {
		migrator, err := database.OpenMigrator(dsn, "facesim_test")
		require.NoError(t, err)
		defer func() { _ = migrator.Close() }()

		require.NoError(t, migrator.Up())

		assertTableExists(t, db, "enrollments")
		assertTableExists(t, db, "recognition_events")
	})

	t.Run("Up is idempotent", func(t *testing.T) {
		migrator, err := database.OpenMigrator(dsn, "facesim_test")
		require.NoError(t, err)
		defer func() { _ = migrator.Close() }()

		assert.NoError(t, migrator.Up())
	})

	t.Run("Version returns current version", func(t *testing.T) {
		migrator, err := database.OpenMigrator(dsn, "facesim_test")
		require.NoError(t, err)
		defer func() { _ = migrator.Close() }()

		version, dirty, err := migrator.Version()
		require.NoError(t, err)
		assert.False(t, dirty, "migration should not be dirty")
		assert.Equal(t, uint(2), version)
	})

	t.Run("enrollments table has correct columns", func(t *testing.T) {
		columns := getTableColumns(t, db, "enrollments")
		for _, col := range []string{"id", "label", "embedding", "quality_score", "metadata", "created_at"} {
			assert.Contains(t, columns, col, "enrollments should have column %s", col)
		}

		indexes := getTableIndexes(t, db, "enrollments")
		assert.Contains(t, indexes, "idx_enrollments_label")
		assert.Contains(t, indexes, "idx_enrollments_embedding")
	})

	t.Run("recognition_events rejects unknown status", func(t *testing.T) {
		_, err := db.Exec(`
			INSERT INTO recognition_events (kind, status, confidence, threshold)
			VALUES ('identify', 'maybe', 0.5, 0.7)
		`)
		assert.Error(t, err)
	})

	t.Run("Down rolls back one step", func(t *testing.T) {
		migrator, err := database.OpenMigrator(dsn, "facesim_test")
		require.NoError(t, err)
		defer func() { _ = migrator.Close() }()

		require.NoError(t, migrator.Down())

		version, _, err := migrator.Version()
		require.NoError(t, err)
		assert.Equal(t, uint(1), version)
	})
}

func TestOpenMigrator_BadDSN(t *testing.T) {
	_, err := database.OpenMigrator("postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1", "none")
	assert.Error(t, err)
}

// Helper functions

func cleanupDatabase(t *testing.T, db *sql.DB) {
	t.Helper()

	_, err := db.Exec(`
		DROP TABLE IF EXISTS recognition_events;
		DROP TABLE IF EXISTS enrollments;
		DROP TABLE IF EXISTS schema_migrations;
	`)
	if err != nil {
		t.Logf("cleanup warning: %v", err)
	}
}

func assertTableExists(t *testing.T, db *sql.DB, tableName string) {
	t.Helper()

	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)

	require.NoError(t, err)
	assert.True(t, exists, "table %s should exist", tableName)
}

func getTableColumns(t *testing.T, db *sql.DB, tableName string) []string {
	t.Helper()

	rows, err := db.Query(`
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = 'public'
		AND table_name = $1
		ORDER BY ordinal_position
	`, tableName)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var columns []string
	for rows.Next() {
		var col string
		require.NoError(t, rows.Scan(&col))
		columns = append(columns, col)
	}

	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, tableName string) []string {
	t.Helper()

	rows, err := db.Query(`
		SELECT indexname
		FROM pg_indexes
		WHERE schemaname = 'public'
		AND tablename = $1
	`, tableName)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var indexes []string
	for rows.Next() {
		var idx string
		require.NoError(t, rows.Scan(&idx))
		indexes = append(indexes, idx)
	}

	return indexes
}
