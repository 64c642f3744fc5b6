package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/facesim/internal/domain"
)

// GalleryLister is the slice of the identity store the aggregator samples.
type GalleryLister interface {
	ListIdentities(ctx context.Context) ([]domain.Identity, error)
}

// Aggregator periodically samples the gallery size into gauges.
type Aggregator struct {
	store    GalleryLister
	recorder *Recorder
	logger   *slog.Logger
	interval time.Duration
	done     chan struct{}
}

func NewAggregator(store GalleryLister, recorder *Recorder, logger *slog.Logger, interval time.Duration) *Aggregator {
	if interval == 0 {
		interval = 1 * time.Minute
	}

	return &Aggregator{
		store:    store,
		recorder: recorder,
		logger:   logger,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start samples once immediately and then on every tick until ctx is done
// or Stop is called.
func (a *Aggregator) Start(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	a.logger.Info("metrics aggregator started", "interval", a.interval)
	a.aggregate(ctx)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("metrics aggregator stopped")
			return
		case <-a.done:
			a.logger.Info("metrics aggregator stopped")
			return
		case <-ticker.C:
			a.aggregate(ctx)
		}
	}
}

func (a *Aggregator) Stop() {
	close(a.done)
}

func (a *Aggregator) aggregate(ctx context.Context) {
	identities, err := a.store.ListIdentities(ctx)
	if err != nil {
		a.logger.Error("failed to sample gallery", "error", err)
		return
	}

	enrollments := 0
	for _, identity := range identities {
		enrollments += identity.Enrollments
	}

	a.recorder.SetGallerySize(len(identities), enrollments)
	a.logger.Debug("sampled gallery", "identities", len(identities), "enrollments", enrollments)
}
