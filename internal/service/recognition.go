package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facesim/internal/domain"
	"github.com/saturnino-fabrica-de-software/facesim/internal/similarity"
	"github.com/saturnino-fabrica-de-software/facesim/internal/ws"
)

const (
	defaultEventsLimit = 50
	maxEventsLimit     = 500
)

type IdentityStore interface {
	Create(ctx context.Context, enrollment *domain.Enrollment) error
	ListByLabel(ctx context.Context, label string) ([]domain.Enrollment, error)
	ListIdentities(ctx context.Context) ([]domain.Identity, error)
	LoadGallery(ctx context.Context) (similarity.Gallery, error)
	DeleteByLabel(ctx context.Context, label string) (int, error)
	DeleteEnrollment(ctx context.Context, id uuid.UUID) error
	CountLabels(ctx context.Context) (int, error)
	SearchByEmbedding(ctx context.Context, embedding similarity.Embedding, threshold float64, limit int) ([]domain.SearchMatch, error)
}

type RecognitionLog interface {
	Create(ctx context.Context, event *domain.RecognitionEvent) error
	ListRecent(ctx context.Context, limit int) ([]domain.RecognitionEvent, error)
	ListByLabel(ctx context.Context, label string, limit int) ([]domain.RecognitionEvent, error)
	Stats(ctx context.Context, since time.Time) (*domain.RecognitionStats, error)
}

type EventPublisher interface {
	Publish(eventType ws.EventType, data interface{})
}

type Recorder interface {
	ObserveRecognition(kind, status string, score *float64, elapsed time.Duration)
}

type RecognitionService struct {
	identities IdentityStore
	events     RecognitionLog
	publisher  EventPublisher
	recorder   Recorder
	settings   domain.Settings
	logger     *slog.Logger
}

func NewRecognitionService(
	identities IdentityStore,
	events RecognitionLog,
	settings domain.Settings,
	logger *slog.Logger,
) *RecognitionService {
	return &RecognitionService{
		identities: identities,
		events:     events,
		settings:   settings,
		logger:     logger,
	}
}

func (s *RecognitionService) WithPublisher(p EventPublisher) *RecognitionService {
	s.publisher = p
	return s
}

func (s *RecognitionService) WithRecorder(r Recorder) *RecognitionService {
	s.recorder = r
	return s
}

func (s *RecognitionService) Settings() domain.Settings {
	return s.settings
}

// Compare scores a pair of embeddings without applying any threshold.
func (s *RecognitionService) Compare(ctx context.Context, a, b similarity.Embedding) (*domain.CompareOutcome, error) {
	start := time.Now()

	score, err := similarity.Similarity(a, b)
	if err != nil {
		return nil, domain.FromSimilarityError(err)
	}

	distance, err := similarity.EuclideanDistance(a, b)
	if err != nil {
		return nil, domain.FromSimilarityError(err)
	}

	s.observe(domain.KindCompare, "scored", &score, time.Since(start))

	return &domain.CompareOutcome{Similarity: score, Distance: distance}, nil
}

// Verify decides whether probe and reference show the same person.
func (s *RecognitionService) Verify(ctx context.Context, probe, reference similarity.Embedding, threshold *float64) (*domain.VerifyOutcome, error) {
	start := time.Now()

	t, err := s.settings.ResolveThreshold(threshold)
	if err != nil {
		return nil, err
	}

	result, err := similarity.Verify(probe, reference, t)
	if err != nil {
		return nil, domain.FromSimilarityError(err)
	}

	outcome := &domain.VerifyOutcome{
		Verified:   result.IsMatch,
		Similarity: result.Score,
		Threshold:  t,
		LatencyMs:  time.Since(start).Milliseconds(),
	}

	outcome.EventID = s.record(ctx, domain.RecognitionEvent{
		Kind:       domain.KindVerify,
		Status:     matchStatus(result.IsMatch),
		Confidence: result.Score,
		Threshold:  t,
		LatencyMs:  outcome.LatencyMs,
	}, &result.Score, time.Since(start))

	return outcome, nil
}

// VerifyIdentity checks a probe against every enrollment of one identity and
// keeps the best score.
func (s *RecognitionService) VerifyIdentity(ctx context.Context, label string, probe similarity.Embedding, threshold *float64) (*domain.VerifyOutcome, error) {
	start := time.Now()

	label, err := domain.NormalizeLabel(label)
	if err != nil {
		return nil, err
	}

	t, err := s.settings.ResolveThreshold(threshold)
	if err != nil {
		return nil, err
	}

	if err := s.checkProbe(probe); err != nil {
		return nil, err
	}

	enrollments, err := s.identities.ListByLabel(ctx, label)
	if err != nil {
		return nil, err
	}

	refs := make([]similarity.Embedding, 0, len(enrollments))
	for _, e := range enrollments {
		refs = append(refs, e.Embedding)
	}

	result, err := similarity.Identify(probe, similarity.Gallery{label: refs}, t)
	if err != nil {
		return nil, domain.FromSimilarityError(err)
	}

	score := result.Score
	if !result.Recognized() && result.BestScore != nil {
		score = *result.BestScore
	}

	outcome := &domain.VerifyOutcome{
		Label:      label,
		Verified:   result.Recognized(),
		Similarity: score,
		Threshold:  t,
		LatencyMs:  time.Since(start).Milliseconds(),
	}

	outcome.EventID = s.record(ctx, domain.RecognitionEvent{
		Kind:       domain.KindVerify,
		Status:     matchStatus(outcome.Verified),
		Label:      label,
		Confidence: score,
		Threshold:  t,
		LatencyMs:  outcome.LatencyMs,
	}, &score, time.Since(start))

	return outcome, nil
}

// IdentifyInput describes a 1:N lookup. Top > 0 adds that many ranked
// candidates to the outcome.
type IdentifyInput struct {
	Probe     similarity.Embedding
	Threshold *float64
	Location  string
	Top       int
}

// Identify finds the enrolled identity closest to the probe.
func (s *RecognitionService) Identify(ctx context.Context, in IdentifyInput) (*domain.IdentifyOutcome, error) {
	start := time.Now()

	t, err := s.settings.ResolveThreshold(in.Threshold)
	if err != nil {
		return nil, err
	}

	if in.Top < 0 || in.Top > domain.MaxSearchResultsLimit {
		return nil, domain.ErrInvalidMaxResults
	}

	if err := s.checkProbe(in.Probe); err != nil {
		return nil, err
	}

	gallery, err := s.identities.LoadGallery(ctx)
	if err != nil {
		return nil, fmt.Errorf("identify: %w", err)
	}

	result, err := similarity.Identify(in.Probe, gallery, t)
	if err != nil {
		return nil, domain.FromSimilarityError(err)
	}

	outcome := &domain.IdentifyOutcome{Threshold: t}

	switch {
	case result.Recognized():
		score := result.Score
		outcome.Status = domain.StatusRecognized
		outcome.Label = result.Label
		outcome.Similarity = &score
	case result.BestScore != nil:
		outcome.Similarity = result.BestScore
		outcome.Status = domain.ClassifyConfidence(*result.BestScore, t, s.settings.LowConfidenceMargin)
	default:
		outcome.Status = domain.StatusUnknown
	}

	needLabel := outcome.Status == domain.StatusLowConfidence
	if in.Top > 0 || needLabel {
		k := in.Top
		if k == 0 {
			k = 1
		}
		candidates, err := similarity.Rank(in.Probe, gallery, k)
		if err != nil {
			return nil, domain.FromSimilarityError(err)
		}
		if needLabel && len(candidates) > 0 {
			outcome.Label = candidates[0].Label
		}
		if in.Top > 0 {
			outcome.Candidates = candidates
		}
	}

	outcome.LatencyMs = time.Since(start).Milliseconds()

	event := domain.RecognitionEvent{
		Kind:      domain.KindIdentify,
		Status:    outcome.Status,
		Label:     outcome.Label,
		Threshold: t,
		Location:  in.Location,
		LatencyMs: outcome.LatencyMs,
	}
	if outcome.Similarity != nil {
		event.Confidence = *outcome.Similarity
	}
	outcome.EventID = s.record(ctx, event, outcome.Similarity, time.Since(start))

	return outcome, nil
}

// Search returns up to maxResults identities scoring at or above the
// threshold, best first. maxResults == 0 uses the configured default.
func (s *RecognitionService) Search(ctx context.Context, probe similarity.Embedding, threshold *float64, maxResults int) (*domain.SearchResult, error) {
	start := time.Now()

	t, err := s.settings.ResolveThreshold(threshold)
	if err != nil {
		return nil, err
	}

	if maxResults == 0 {
		maxResults = s.settings.MaxSearchResults
	}
	if maxResults < 1 || maxResults > domain.MaxSearchResultsLimit {
		return nil, domain.ErrInvalidMaxResults
	}

	if err := s.checkProbe(probe); err != nil {
		return nil, err
	}

	matches, err := s.identities.SearchByEmbedding(ctx, probe, t, maxResults)
	if err != nil {
		return nil, domain.FromSimilarityError(fmt.Errorf("search: %w", err))
	}

	total, err := s.identities.CountLabels(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	result := &domain.SearchResult{
		Matches:         matches,
		TotalIdentities: total,
		LatencyMs:       time.Since(start).Milliseconds(),
	}

	event := domain.RecognitionEvent{
		Kind:      domain.KindSearch,
		Status:    domain.StatusUnknown,
		Threshold: t,
		LatencyMs: result.LatencyMs,
	}
	var best *float64
	if len(matches) > 0 {
		event.Status = domain.StatusRecognized
		event.Label = matches[0].Label
		event.Confidence = matches[0].Similarity
		best = &matches[0].Similarity
	}
	result.SearchID = s.record(ctx, event, best, time.Since(start))

	return result, nil
}

// EnrollInput carries one or more embeddings for the same person.
type EnrollInput struct {
	Label        string
	Embeddings   []similarity.Embedding
	QualityScore float64
	Metadata     map[string]interface{}
}

// Enroll validates every embedding before storing any of them.
func (s *RecognitionService) Enroll(ctx context.Context, in EnrollInput) ([]domain.Enrollment, error) {
	label, err := domain.NormalizeLabel(in.Label)
	if err != nil {
		return nil, err
	}

	if len(in.Embeddings) == 0 {
		return nil, domain.ErrNoEmbeddings
	}

	for i, e := range in.Embeddings {
		if err := s.checkProbe(e); err != nil {
			return nil, fmt.Errorf("embedding %d: %w", i, err)
		}
	}

	metadata := in.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	enrollments := make([]domain.Enrollment, 0, len(in.Embeddings))
	for _, e := range in.Embeddings {
		enrollment := domain.Enrollment{
			ID:           uuid.New(),
			Label:        label,
			Embedding:    e,
			QualityScore: in.QualityScore,
			Metadata:     metadata,
		}
		if err := s.identities.Create(ctx, &enrollment); err != nil {
			s.rollbackEnrollments(ctx, enrollments)
			return nil, fmt.Errorf("enroll %q: %w", label, err)
		}
		enrollments = append(enrollments, enrollment)
	}

	s.publish(ws.EventIdentityEnrolled, map[string]interface{}{
		"label":       label,
		"enrollments": len(enrollments),
	})

	return enrollments, nil
}

// rollbackEnrollments removes the part of a batch stored before a failure,
// so an enrollment request either lands completely or not at all.
func (s *RecognitionService) rollbackEnrollments(ctx context.Context, created []domain.Enrollment) {
	for _, e := range created {
		if err := s.identities.DeleteEnrollment(ctx, e.ID); err != nil {
			s.logger.Error("failed to roll back enrollment",
				slog.String("enrollment_id", e.ID.String()),
				slog.String("label", e.Label),
				slog.Any("error", err),
			)
		}
	}
}

func (s *RecognitionService) DeleteIdentity(ctx context.Context, label string) (int, error) {
	label, err := domain.NormalizeLabel(label)
	if err != nil {
		return 0, err
	}

	n, err := s.identities.DeleteByLabel(ctx, label)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, domain.ErrIdentityNotFound
	}

	s.publish(ws.EventIdentityDeleted, map[string]interface{}{
		"label":       label,
		"enrollments": n,
	})

	return n, nil
}

func (s *RecognitionService) DeleteEnrollment(ctx context.Context, id uuid.UUID) error {
	return s.identities.DeleteEnrollment(ctx, id)
}

func (s *RecognitionService) GetIdentity(ctx context.Context, label string) ([]domain.Enrollment, error) {
	label, err := domain.NormalizeLabel(label)
	if err != nil {
		return nil, err
	}
	return s.identities.ListByLabel(ctx, label)
}

func (s *RecognitionService) ListIdentities(ctx context.Context) ([]domain.Identity, error) {
	return s.identities.ListIdentities(ctx)
}

// RecentEvents returns the newest log entries first. limit == 0 uses the
// default page size; larger requests are capped.
func (s *RecognitionService) RecentEvents(ctx context.Context, limit int) ([]domain.RecognitionEvent, error) {
	limit, err := eventsPage(limit)
	if err != nil {
		return nil, err
	}
	return s.events.ListRecent(ctx, limit)
}

// IdentityHistory returns the events attributed to one identity, newest
// first. History outlives the identity: events stay listed after deletion.
func (s *RecognitionService) IdentityHistory(ctx context.Context, label string, limit int) ([]domain.RecognitionEvent, error) {
	label, err := domain.NormalizeLabel(label)
	if err != nil {
		return nil, err
	}
	limit, err = eventsPage(limit)
	if err != nil {
		return nil, err
	}
	return s.events.ListByLabel(ctx, label, limit)
}

func eventsPage(limit int) (int, error) {
	if limit < 0 {
		return 0, domain.ErrBadRequest.WithError(errors.New("limit must not be negative"))
	}
	if limit == 0 {
		return defaultEventsLimit, nil
	}
	if limit > maxEventsLimit {
		return maxEventsLimit, nil
	}
	return limit, nil
}

func (s *RecognitionService) Stats(ctx context.Context, since time.Time) (*domain.RecognitionStats, error) {
	return s.events.Stats(ctx, since)
}

// checkProbe rejects embeddings of the wrong width or without direction
// before they reach the store.
func (s *RecognitionService) checkProbe(e similarity.Embedding) error {
	if len(e) != s.settings.Dimension {
		return domain.ErrDimensionMismatch.WithError(
			fmt.Errorf("got %d values, want %d", len(e), s.settings.Dimension))
	}
	if err := similarity.Validate(e); err != nil {
		return domain.FromSimilarityError(err)
	}
	return checkFloat32(e)
}

// checkFloat32 rejects embeddings that lose their direction once narrowed to
// the float32 values the stores and the ANN index work with.
func checkFloat32(e similarity.Embedding) error {
	var norm float32
	for i, v := range e {
		f := float32(v)
		if math.IsInf(float64(f), 0) {
			return domain.ErrDegenerateVector.WithError(
				fmt.Errorf("component %d exceeds the float32 range", i))
		}
		norm += f * f
	}
	if norm == 0 || math.IsInf(float64(norm), 0) {
		return domain.ErrDegenerateVector.WithError(
			errors.New("embedding norm is not representable as float32"))
	}
	return nil
}

// record writes the event to the log, publishes it and counts it. A failed
// log write is logged and does not fail the request.
func (s *RecognitionService) record(ctx context.Context, event domain.RecognitionEvent, score *float64, elapsed time.Duration) uuid.UUID {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	if err := s.events.Create(ctx, &event); err != nil {
		s.logger.Warn("failed to record recognition event",
			slog.String("event_id", event.ID.String()),
			slog.String("kind", string(event.Kind)),
			slog.Any("error", err),
		)
	}

	s.observe(event.Kind, string(event.Status), score, elapsed)
	s.publish(ws.EventRecognition, event)

	return event.ID
}

func (s *RecognitionService) observe(kind domain.RecognitionKind, status string, score *float64, elapsed time.Duration) {
	if s.recorder != nil {
		s.recorder.ObserveRecognition(string(kind), status, score, elapsed)
	}
}

func (s *RecognitionService) publish(eventType ws.EventType, data interface{}) {
	if s.publisher != nil {
		s.publisher.Publish(eventType, data)
	}
}

func matchStatus(match bool) domain.RecognitionStatus {
	if match {
		return domain.StatusMatch
	}
	return domain.StatusNoMatch
}
