package metrics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facesim/internal/domain"
)

type stubLister struct {
	identities []domain.Identity
	err        error
}

func (s *stubLister) ListIdentities(context.Context) ([]domain.Identity, error) {
	return s.identities, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorder_ObserveRecognition(t *testing.T) {
	r := NewRecorder()
	score := 0.93

	r.ObserveRecognition("identify", "recognized", &score, 2*time.Millisecond)
	r.ObserveRecognition("identify", "recognized", &score, time.Millisecond)
	r.ObserveRecognition("identify", "unknown", nil, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.recognitions.WithLabelValues("identify", "recognized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.recognitions.WithLabelValues("identify", "unknown")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.scores))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.ObserveHTTP("/v1/identify", "POST", "200")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `facesim_http_requests_total{method="POST",path="/v1/identify",status="200"} 1`)
}

func TestAggregator_Samples(t *testing.T) {
	r := NewRecorder()
	lister := &stubLister{identities: []domain.Identity{
		{Label: "Alice", Enrollments: 3},
		{Label: "Bob", Enrollments: 1},
	}}

	a := NewAggregator(lister, r, discardLogger(), time.Hour)
	a.aggregate(context.Background())

	assert.Equal(t, 2.0, testutil.ToFloat64(r.identities))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.enrollments))
}

func TestAggregator_KeepsLastSampleOnError(t *testing.T) {
	r := NewRecorder()
	r.SetGallerySize(5, 9)

	a := NewAggregator(&stubLister{err: errors.New("db down")}, r, discardLogger(), time.Hour)
	a.aggregate(context.Background())

	assert.Equal(t, 5.0, testutil.ToFloat64(r.identities))
}

func TestAggregator_StartStops(t *testing.T) {
	r := NewRecorder()
	a := NewAggregator(&stubLister{}, r, discardLogger(), 10*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		a.Start(context.Background())
		close(stopped)
	}()

	time.Sleep(30 * time.Millisecond)
	a.Stop()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		require.Fail(t, "aggregator did not stop")
	}
}
