package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saturnino-fabrica-de-software/facesim/internal/domain"
	"github.com/saturnino-fabrica-de-software/facesim/internal/similarity"
)

// PgxPool is the subset of *pgxpool.Pool the repositories use.
// pgxmock.PgxPoolIface satisfies it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// IdentityRepositoryInterface is the gallery store: enrolled embeddings grouped by label.
type IdentityRepositoryInterface interface {
	Create(ctx context.Context, enrollment *domain.Enrollment) error
	ListByLabel(ctx context.Context, label string) ([]domain.Enrollment, error)
	ListIdentities(ctx context.Context) ([]domain.Identity, error)
	LoadGallery(ctx context.Context) (similarity.Gallery, error)
	DeleteByLabel(ctx context.Context, label string) (int, error)
	DeleteEnrollment(ctx context.Context, id uuid.UUID) error
	CountLabels(ctx context.Context) (int, error)
	SearchByEmbedding(ctx context.Context, embedding similarity.Embedding, threshold float64, limit int) ([]domain.SearchMatch, error)
	Ping(ctx context.Context) error
}

// RecognitionLogRepositoryInterface stores the recognition log read by the analytics views.
type RecognitionLogRepositoryInterface interface {
	Create(ctx context.Context, event *domain.RecognitionEvent) error
	ListRecent(ctx context.Context, limit int) ([]domain.RecognitionEvent, error)
	ListByLabel(ctx context.Context, label string, limit int) ([]domain.RecognitionEvent, error)
	Stats(ctx context.Context, since time.Time) (*domain.RecognitionStats, error)
}

var (
	_ IdentityRepositoryInterface       = (*IdentityRepository)(nil)
	_ IdentityRepositoryInterface       = (*MemoryIdentityRepository)(nil)
	_ RecognitionLogRepositoryInterface = (*RecognitionLogRepository)(nil)
	_ RecognitionLogRepositoryInterface = (*MemoryRecognitionLogRepository)(nil)
)
