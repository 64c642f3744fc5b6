//go:build integration

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/facesim/internal/database"
	"github.com/saturnino-fabrica-de-software/facesim/internal/domain"
	"github.com/saturnino-fabrica-de-software/facesim/internal/similarity"
)

func setupIntegrationTest(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "facesim_test",
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

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("postgres://test:test@%s:%s/facesim_test?sslmode=disable", host, port.Port())

	sqlDB, err := sql.Open("pgx", connStr)
	require.NoError(t, err)

	migrator, err := database.NewMigrator(sqlDB, "facesim_test")
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	_ = migrator.Close()

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = sqlDB.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// paddedEmbedding places values at the start of a zero vector of the
// deployment dimension.
func paddedEmbedding(values ...float64) similarity.Embedding {
	e := make(similarity.Embedding, similarity.DefaultDimension)
	copy(e, values)
	return e
}

func TestIdentityRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	pool, cleanup := setupIntegrationTest(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewIdentityRepository(pool)

	fixtures := []struct {
		label     string
		embedding similarity.Embedding
	}{
		{"Alice", paddedEmbedding(1, 0)},
		{"Alice", paddedEmbedding(0, 1)},
		{"Bob", paddedEmbedding(0.6, 0.8)},
		{"Carol", paddedEmbedding(-1, 0)},
	}

	for _, f := range fixtures {
		err := repo.Create(ctx, &domain.Enrollment{
			Label:        f.label,
			Embedding:    f.embedding,
			QualityScore: 0.9,
			Metadata:     map[string]interface{}{"name": f.label},
		})
		require.NoError(t, err, "failed to enroll %s", f.label)
	}

	t.Run("count identities", func(t *testing.T) {
		count, err := repo.CountLabels(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("load gallery groups by label", func(t *testing.T) {
		gallery, err := repo.LoadGallery(ctx)
		require.NoError(t, err)
		assert.Len(t, gallery["Alice"], 2)
		assert.Len(t, gallery["Bob"], 1)
	})

	t.Run("search agrees with exact identification", func(t *testing.T) {
		probe := paddedEmbedding(0, 1)

		matches, err := repo.SearchByEmbedding(ctx, probe, 0.5, 10)
		require.NoError(t, err)
		require.Len(t, matches, 2)

		assert.Equal(t, "Alice", matches[0].Label)
		assert.InDelta(t, 1.0, matches[0].Similarity, 1e-5)
		assert.Equal(t, "Bob", matches[1].Label)
		assert.InDelta(t, 0.8, matches[1].Similarity, 1e-5)

		gallery, err := repo.LoadGallery(ctx)
		require.NoError(t, err)
		result, err := similarity.Identify(probe, gallery, 0.5)
		require.NoError(t, err)
		assert.Equal(t, matches[0].Label, result.Label)
	})

	t.Run("search with no matches returns empty slice", func(t *testing.T) {
		matches, err := repo.SearchByEmbedding(ctx, paddedEmbedding(0, 0, 1), 0.95, 10)
		require.NoError(t, err)
		assert.NotNil(t, matches)
		assert.Empty(t, matches)
	})

	t.Run("delete identity", func(t *testing.T) {
		n, err := repo.DeleteByLabel(ctx, "Carol")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		_, err = repo.ListByLabel(ctx, "Carol")
		assert.ErrorIs(t, err, domain.ErrIdentityNotFound)
	})
}

func TestRecognitionLogRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	pool, cleanup := setupIntegrationTest(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewRecognitionLogRepository(pool)
	since := time.Now().Add(-time.Minute)

	events := []domain.RecognitionEvent{
		{Kind: domain.KindIdentify, Status: domain.StatusRecognized, Label: "John Doe", Confidence: 0.94, Threshold: 0.7},
		{Kind: domain.KindIdentify, Status: domain.StatusUnknown, Confidence: 0.45, Threshold: 0.7},
		{Kind: domain.KindIdentify, Status: domain.StatusLowConfidence, Label: "Sarah Williams", Confidence: 0.68, Threshold: 0.7},
	}
	for i := range events {
		require.NoError(t, repo.Create(ctx, &events[i]))
	}

	recent, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 3)

	stats, err := repo.Stats(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Recognized)
	assert.Equal(t, int64(1), stats.Unknown)
	assert.Equal(t, int64(1), stats.LowConfidence)
	assert.InDelta(t, (0.94+0.45+0.68)/3, stats.AverageConfidence, 1e-6)
}
