package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/facesim/internal/domain"
	"github.com/saturnino-fabrica-de-software/facesim/internal/similarity"
)

type IdentityRepository struct {
	pool PgxPool
}

func NewIdentityRepository(pool PgxPool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

func (r *IdentityRepository) Create(ctx context.Context, enrollment *domain.Enrollment) error {
	query := `
		INSERT INTO enrollments (id, label, embedding, quality_score, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`

	if enrollment.ID == uuid.Nil {
		enrollment.ID = uuid.New()
	}

	embedding := toVector(enrollment.Embedding)

	err := r.pool.QueryRow(ctx, query,
		enrollment.ID,
		enrollment.Label,
		embedding,
		enrollment.QualityScore,
		enrollment.Metadata,
	).Scan(&enrollment.CreatedAt)

	if err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}

	return nil
}

func (r *IdentityRepository) ListByLabel(ctx context.Context, label string) ([]domain.Enrollment, error) {
	query := `
		SELECT id, label, embedding, quality_score, metadata, created_at
		FROM enrollments
		WHERE label = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, label)
	if err != nil {
		return nil, fmt.Errorf("list enrollments by label: %w", err)
	}
	defer rows.Close()

	enrollments := make([]domain.Enrollment, 0)
	for rows.Next() {
		var e domain.Enrollment
		var embedding *pgvector.Vector

		if err := rows.Scan(&e.ID, &e.Label, &embedding, &e.QualityScore, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}

		e.Embedding = fromVector(embedding)
		enrollments = append(enrollments, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollments: %w", err)
	}

	if len(enrollments) == 0 {
		return nil, domain.ErrIdentityNotFound
	}

	return enrollments, nil
}

func (r *IdentityRepository) ListIdentities(ctx context.Context) ([]domain.Identity, error) {
	query := `
		SELECT label, COUNT(*), MIN(created_at), MAX(created_at)
		FROM enrollments
		GROUP BY label
		ORDER BY label ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list identities: %w", err)
	}
	defer rows.Close()

	identities := make([]domain.Identity, 0)
	for rows.Next() {
		var id domain.Identity
		if err := rows.Scan(&id.Label, &id.Enrollments, &id.CreatedAt, &id.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		identities = append(identities, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}

	return identities, nil
}

// LoadGallery reads every enrollment into an in-memory gallery for exact identification.
func (r *IdentityRepository) LoadGallery(ctx context.Context) (similarity.Gallery, error) {
	query := `SELECT label, embedding FROM enrollments`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load gallery: %w", err)
	}
	defer rows.Close()

	gallery := make(similarity.Gallery)
	for rows.Next() {
		var label string
		var embedding *pgvector.Vector

		if err := rows.Scan(&label, &embedding); err != nil {
			return nil, fmt.Errorf("scan gallery row: %w", err)
		}

		if e := fromVector(embedding); e != nil {
			gallery[label] = append(gallery[label], e)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gallery: %w", err)
	}

	return gallery, nil
}

func (r *IdentityRepository) DeleteByLabel(ctx context.Context, label string) (int, error) {
	query := `DELETE FROM enrollments WHERE label = $1`

	result, err := r.pool.Exec(ctx, query, label)
	if err != nil {
		return 0, fmt.Errorf("delete identity: %w", err)
	}

	if result.RowsAffected() == 0 {
		return 0, domain.ErrIdentityNotFound
	}

	return int(result.RowsAffected()), nil
}

func (r *IdentityRepository) DeleteEnrollment(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM enrollments WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrEnrollmentNotFound
	}

	return nil
}

func (r *IdentityRepository) CountLabels(ctx context.Context) (int, error) {
	query := `SELECT COUNT(DISTINCT label) FROM enrollments`

	var count int
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count identities: %w", err)
	}

	return count, nil
}

// SearchByEmbedding returns each identity's best enrollment scored against the
// probe, keeping those at or above threshold. Ordering matches similarity.Rank:
// score descending, then label ascending.
func (r *IdentityRepository) SearchByEmbedding(ctx context.Context, embedding similarity.Embedding, threshold float64, limit int) ([]domain.SearchMatch, error) {
	query := `
		SELECT id, label, similarity, metadata
		FROM (
			SELECT DISTINCT ON (label)
				id, label, 1 - (embedding <=> $1) AS similarity, metadata
			FROM enrollments
			ORDER BY label, embedding <=> $1
		) best
		WHERE similarity >= $2
		ORDER BY similarity DESC, label ASC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, toVector(embedding), threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("search by embedding: %w", err)
	}
	defer rows.Close()

	matches := make([]domain.SearchMatch, 0)
	for rows.Next() {
		var m domain.SearchMatch
		if err := rows.Scan(&m.EnrollmentID, &m.Label, &m.Similarity, &m.Metadata); err != nil {
			return nil, fmt.Errorf("scan search match: %w", err)
		}
		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search matches: %w", err)
	}

	return matches, nil
}

func (r *IdentityRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
