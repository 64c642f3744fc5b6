package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/coder/hnsw"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/facesim/internal/domain"
	"github.com/saturnino-fabrica-de-software/facesim/internal/similarity"
)

const (
	hnswMaxNeighbors = 16
	// searchShortlistFactor widens the ANN shortlist so that identities with
	// several enrollments still surface enough distinct labels.
	searchShortlistFactor = 4
	minSearchShortlist    = 64
)

// MemoryIdentityRepository keeps the gallery in process memory. Ranked search
// shortlists candidates through an HNSW graph and rescores them exactly.
type MemoryIdentityRepository struct {
	mu          sync.RWMutex
	enrollments map[uuid.UUID]*domain.Enrollment
	byLabel     map[string][]uuid.UUID
	graph       *hnsw.Graph[string]
	dimension   int
	now         func() time.Time
}

func NewMemoryIdentityRepository() *MemoryIdentityRepository {
	return &MemoryIdentityRepository{
		enrollments: make(map[uuid.UUID]*domain.Enrollment),
		byLabel:     make(map[string][]uuid.UUID),
		now:         time.Now,
	}
}

func newGraph() *hnsw.Graph[string] {
	g := hnsw.NewGraph[string]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors)
	g.Distance = hnsw.CosineDistance
	return g
}

func (r *MemoryIdentityRepository) Create(_ context.Context, enrollment *domain.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dimension != 0 && len(enrollment.Embedding) != r.dimension {
		return fmt.Errorf("create enrollment: %w: %d vs %d", similarity.ErrDimensionMismatch, len(enrollment.Embedding), r.dimension)
	}

	if enrollment.ID == uuid.Nil {
		enrollment.ID = uuid.New()
	}
	enrollment.CreatedAt = r.now()

	stored := *enrollment
	stored.Embedding = append(similarity.Embedding(nil), enrollment.Embedding...)

	r.enrollments[stored.ID] = &stored
	r.byLabel[stored.Label] = append(r.byLabel[stored.Label], stored.ID)
	r.dimension = len(stored.Embedding)

	if r.graph == nil {
		r.graph = newGraph()
	}
	r.graph.Add(hnsw.MakeNode(stored.ID.String(), toFloat32(stored.Embedding)))

	return nil
}

func (r *MemoryIdentityRepository) ListByLabel(_ context.Context, label string) ([]domain.Enrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byLabel[label]
	if len(ids) == 0 {
		return nil, domain.ErrIdentityNotFound
	}

	enrollments := make([]domain.Enrollment, 0, len(ids))
	for _, id := range ids {
		enrollments = append(enrollments, *r.enrollments[id])
	}

	return enrollments, nil
}

func (r *MemoryIdentityRepository) ListIdentities(_ context.Context) ([]domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identities := make([]domain.Identity, 0, len(r.byLabel))
	for label, ids := range r.byLabel {
		id := domain.Identity{Label: label, Enrollments: len(ids)}
		for _, eid := range ids {
			created := r.enrollments[eid].CreatedAt
			if id.CreatedAt.IsZero() || created.Before(id.CreatedAt) {
				id.CreatedAt = created
			}
			if created.After(id.UpdatedAt) {
				id.UpdatedAt = created
			}
		}
		identities = append(identities, id)
	}

	sort.Slice(identities, func(i, j int) bool {
		return identities[i].Label < identities[j].Label
	})

	return identities, nil
}

// LoadGallery returns a snapshot; callers may read it without holding the lock.
func (r *MemoryIdentityRepository) LoadGallery(_ context.Context) (similarity.Gallery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	gallery := make(similarity.Gallery, len(r.byLabel))
	for label, ids := range r.byLabel {
		embeddings := make([]similarity.Embedding, 0, len(ids))
		for _, id := range ids {
			embeddings = append(embeddings, r.enrollments[id].Embedding)
		}
		gallery[label] = embeddings
	}

	return gallery, nil
}

func (r *MemoryIdentityRepository) DeleteByLabel(_ context.Context, label string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := r.byLabel[label]
	if len(ids) == 0 {
		return 0, domain.ErrIdentityNotFound
	}

	for _, id := range ids {
		delete(r.enrollments, id)
	}
	delete(r.byLabel, label)
	r.rebuildLocked()

	return len(ids), nil
}

func (r *MemoryIdentityRepository) DeleteEnrollment(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.enrollments[id]
	if !ok {
		return domain.ErrEnrollmentNotFound
	}

	delete(r.enrollments, id)

	remaining := r.byLabel[e.Label][:0]
	for _, other := range r.byLabel[e.Label] {
		if other != id {
			remaining = append(remaining, other)
		}
	}
	if len(remaining) == 0 {
		delete(r.byLabel, e.Label)
	} else {
		r.byLabel[e.Label] = remaining
	}
	r.rebuildLocked()

	return nil
}

// rebuildLocked recreates the graph from the remaining enrollments.
// Deletions are rare compared to searches, so a rebuild keeps the graph
// free of tombstoned nodes.
func (r *MemoryIdentityRepository) rebuildLocked() {
	if len(r.enrollments) == 0 {
		r.graph = nil
		r.dimension = 0
		return
	}

	g := newGraph()
	for id, e := range r.enrollments {
		g.Add(hnsw.MakeNode(id.String(), toFloat32(e.Embedding)))
	}
	r.graph = g
}

func (r *MemoryIdentityRepository) CountLabels(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byLabel), nil
}

func (r *MemoryIdentityRepository) SearchByEmbedding(_ context.Context, embedding similarity.Embedding, threshold float64, limit int) ([]domain.SearchMatch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.enrollments) == 0 {
		return []domain.SearchMatch{}, nil
	}
	if len(embedding) != r.dimension {
		return nil, fmt.Errorf("search by embedding: %w: %d vs %d", similarity.ErrDimensionMismatch, len(embedding), r.dimension)
	}

	labels := r.shortlistLocked(embedding, limit)

	gallery := make(similarity.Gallery, len(labels))
	for _, label := range labels {
		for _, id := range r.byLabel[label] {
			gallery[label] = append(gallery[label], r.enrollments[id].Embedding)
		}
	}

	ranked, err := similarity.Rank(embedding, gallery, 0)
	if err != nil {
		return nil, fmt.Errorf("search by embedding: %w", err)
	}

	matches := make([]domain.SearchMatch, 0, len(ranked))
	for _, c := range ranked {
		if c.Score < threshold {
			break
		}
		best := r.bestEnrollmentLocked(embedding, c.Label)
		matches = append(matches, domain.SearchMatch{
			EnrollmentID: best.ID,
			Label:        c.Label,
			Similarity:   c.Score,
			Metadata:     best.Metadata,
		})
		if limit > 0 && len(matches) == limit {
			break
		}
	}

	return matches, nil
}

// shortlistLocked returns the labels worth scoring exactly. Small galleries
// are scanned in full; larger ones go through the HNSW graph.
func (r *MemoryIdentityRepository) shortlistLocked(embedding similarity.Embedding, limit int) []string {
	k := limit * searchShortlistFactor
	if k < minSearchShortlist {
		k = minSearchShortlist
	}

	if len(r.enrollments) <= k || r.graph == nil {
		labels := make([]string, 0, len(r.byLabel))
		for label := range r.byLabel {
			labels = append(labels, label)
		}
		return labels
	}

	seen := make(map[string]bool)
	labels := make([]string, 0, k)
	for _, node := range r.graph.Search(toFloat32(embedding), k) {
		id, err := uuid.Parse(node.Key)
		if err != nil {
			continue
		}
		e, ok := r.enrollments[id]
		if !ok || seen[e.Label] {
			continue
		}
		seen[e.Label] = true
		labels = append(labels, e.Label)
	}

	return labels
}

func (r *MemoryIdentityRepository) bestEnrollmentLocked(embedding similarity.Embedding, label string) *domain.Enrollment {
	ids := r.byLabel[label]
	best := r.enrollments[ids[0]]
	bestScore := -2.0
	for _, id := range ids {
		score, err := similarity.Similarity(embedding, r.enrollments[id].Embedding)
		if err == nil && score > bestScore {
			bestScore = score
			best = r.enrollments[id]
		}
	}
	return best
}

func (r *MemoryIdentityRepository) Ping(_ context.Context) error {
	return nil
}

const defaultMemoryLogCapacity = 10000

// MemoryRecognitionLogRepository keeps the most recent events in a bounded buffer.
type MemoryRecognitionLogRepository struct {
	mu       sync.RWMutex
	events   []domain.RecognitionEvent
	capacity int
	now      func() time.Time
}

func NewMemoryRecognitionLogRepository(capacity int) *MemoryRecognitionLogRepository {
	if capacity <= 0 {
		capacity = defaultMemoryLogCapacity
	}
	return &MemoryRecognitionLogRepository{
		events:   make([]domain.RecognitionEvent, 0, capacity),
		capacity: capacity,
		now:      time.Now,
	}
}

func (r *MemoryRecognitionLogRepository) Create(_ context.Context, event *domain.RecognitionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = r.now()

	if len(r.events) == r.capacity {
		copy(r.events, r.events[1:])
		r.events = r.events[:len(r.events)-1]
	}
	r.events = append(r.events, *event)

	return nil
}

func (r *MemoryRecognitionLogRepository) ListRecent(_ context.Context, limit int) ([]domain.RecognitionEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.events)
	if limit > 0 && limit < n {
		n = limit
	}

	events := make([]domain.RecognitionEvent, 0, n)
	for i := len(r.events) - 1; i >= 0 && len(events) < n; i-- {
		events = append(events, r.events[i])
	}

	return events, nil
}

func (r *MemoryRecognitionLogRepository) ListByLabel(_ context.Context, label string, limit int) ([]domain.RecognitionEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]domain.RecognitionEvent, 0)
	for i := len(r.events) - 1; i >= 0; i-- {
		if limit > 0 && len(events) == limit {
			break
		}
		if r.events[i].Label == label {
			events = append(events, r.events[i])
		}
	}

	return events, nil
}

func (r *MemoryRecognitionLogRepository) Stats(_ context.Context, since time.Time) (*domain.RecognitionStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats domain.RecognitionStats
	for _, e := range r.events {
		if e.CreatedAt.Before(since) {
			continue
		}
		stats.Add(e)
	}

	return &stats, nil
}
