package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/saturnino-fabrica-de-software/facesim/internal/domain"
)

type RecognitionLogRepository struct {
	pool PgxPool
}

func NewRecognitionLogRepository(pool PgxPool) *RecognitionLogRepository {
	return &RecognitionLogRepository{pool: pool}
}

// Create inserts a new recognition event
func (r *RecognitionLogRepository) Create(ctx context.Context, event *domain.RecognitionEvent) error {
	query := `
		INSERT INTO recognition_events (
			id, kind, status, label, confidence, threshold, location, latency_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING created_at
	`

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, query,
		event.ID,
		string(event.Kind),
		string(event.Status),
		event.Label,
		event.Confidence,
		event.Threshold,
		event.Location,
		event.LatencyMs,
	).Scan(&event.CreatedAt)

	if err != nil {
		return fmt.Errorf("create recognition event: %w", err)
	}

	return nil
}

func (r *RecognitionLogRepository) ListRecent(ctx context.Context, limit int) ([]domain.RecognitionEvent, error) {
	query := `
		SELECT id, kind, status, label, confidence, threshold, location, latency_ms, created_at
		FROM recognition_events
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recognition events: %w", err)
	}

	return scanEvents(rows)
}

// ListByLabel returns one identity's recognition history, newest first.
func (r *RecognitionLogRepository) ListByLabel(ctx context.Context, label string, limit int) ([]domain.RecognitionEvent, error) {
	query := `
		SELECT id, kind, status, label, confidence, threshold, location, latency_ms, created_at
		FROM recognition_events
		WHERE label = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, label, limit)
	if err != nil {
		return nil, fmt.Errorf("list recognition events by label: %w", err)
	}

	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]domain.RecognitionEvent, error) {
	defer rows.Close()

	events := make([]domain.RecognitionEvent, 0)
	for rows.Next() {
		var e domain.RecognitionEvent
		var kind, status string

		if err := rows.Scan(&e.ID, &kind, &status, &e.Label, &e.Confidence, &e.Threshold, &e.Location, &e.LatencyMs, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recognition event: %w", err)
		}

		e.Kind = domain.RecognitionKind(kind)
		e.Status = domain.RecognitionStatus(status)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recognition events: %w", err)
	}

	return events, nil
}

func (r *RecognitionLogRepository) Stats(ctx context.Context, since time.Time) (*domain.RecognitionStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'recognized'),
			COUNT(*) FILTER (WHERE status = 'low_confidence'),
			COUNT(*) FILTER (WHERE status = 'unknown'),
			COUNT(*) FILTER (WHERE status = 'match'),
			COUNT(*) FILTER (WHERE status = 'no_match'),
			COALESCE(AVG(confidence), 0)
		FROM recognition_events
		WHERE created_at >= $1
	`

	var stats domain.RecognitionStats
	err := r.pool.QueryRow(ctx, query, since).Scan(
		&stats.Total,
		&stats.Recognized,
		&stats.LowConfidence,
		&stats.Unknown,
		&stats.Matches,
		&stats.NoMatches,
		&stats.AverageConfidence,
	)
	if err != nil {
		return nil, fmt.Errorf("recognition stats: %w", err)
	}

	return &stats, nil
}
