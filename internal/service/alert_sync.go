package service

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/safecircle/backend/internal/domain"
	"github.com/safecircle/backend/internal/metrics"
)

// DefaultAlertLimit bounds the synchronized alert list
const DefaultAlertLimit = 50

// AlertSynchronizer keeps a local, newest-first view of active alerts
// consistent with the store. Every change event triggers a full re-fetch.
type AlertSynchronizer struct {
	repo   AlertRepository
	stream domain.ChangeStream
	limit  int
	logger *zap.Logger

	mu      sync.Mutex
	alerts  []domain.Alert
	loading bool
	active  bool
	epoch   uint64 // bumped on every activate/deactivate; stale fetches are dropped
	cancel  context.CancelFunc
	sub     domain.Subscription
	done    chan struct{} // closed when this activation's worker exits
}

// NewAlertSynchronizer creates a synchronizer; limit <= 0 uses DefaultAlertLimit.
// The view reports loading until the first fetch after activation resolves.
func NewAlertSynchronizer(repo AlertRepository, stream domain.ChangeStream, limit int, logger *zap.Logger) *AlertSynchronizer {
	if limit <= 0 {
		limit = DefaultAlertLimit
	}
	return &AlertSynchronizer{
		repo:    repo,
		stream:  stream,
		limit:   limit,
		logger:  logger,
		alerts:  []domain.Alert{},
		loading: true,
	}
}

// Activate subscribes to alert changes and starts the initial load.
// Calling it on an active synchronizer is a no-op.
// If the subscription cannot be established the synchronizer still loads
// once and serves manual refetches.
func (s *AlertSynchronizer) Activate(ctx context.Context) error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return nil
	}
	s.epoch++
	epoch := s.epoch
	runCtx, cancel := context.WithCancel(ctx)
	s.active = true
	s.loading = true
	s.cancel = cancel
	s.mu.Unlock()

	var sub domain.Subscription
	if s.stream != nil {
		var err error
		sub, err = s.stream.Subscribe(runCtx, domain.EntityAlerts)
		if err != nil {
			s.logger.Warn("Alert change stream unavailable, live updates disabled", zap.Error(err))
			sub = nil
		}
	}

	s.mu.Lock()
	if !s.active || s.epoch != epoch {
		// deactivated while subscribing
		s.mu.Unlock()
		if sub != nil {
			_ = sub.Close()
		}
		return nil
	}
	done := make(chan struct{})
	s.sub = sub
	s.done = done
	s.mu.Unlock()

	go s.run(runCtx, epoch, sub, done)
	return nil
}

// Deactivate tears down the subscription and waits for the worker to exit.
// In-flight fetches started before this call are discarded.
func (s *AlertSynchronizer) Deactivate() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.loading = false
	s.epoch++
	cancel, sub, done := s.cancel, s.sub, s.done
	s.cancel, s.sub, s.done = nil, nil, nil
	s.mu.Unlock()

	cancel()
	if sub != nil {
		if err := sub.Close(); err != nil {
			s.logger.Warn("Failed to close alert subscription", zap.Error(err))
		}
	}
	if done != nil {
		<-done
	}
}

// Snapshot returns a copy of the cached alerts and the loading flag
func (s *AlertSynchronizer) Snapshot() ([]domain.Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out, s.loading
}

// Active reports whether the synchronizer is running
func (s *AlertSynchronizer) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Refetch performs a full fetch now. It is a no-op while inactive.
func (s *AlertSynchronizer) Refetch(ctx context.Context) {
	s.mu.Lock()
	active, epoch := s.active, s.epoch
	s.mu.Unlock()
	if !active {
		return
	}
	s.fetch(ctx, epoch)
}

func (s *AlertSynchronizer) run(ctx context.Context, epoch uint64, sub domain.Subscription, done chan struct{}) {
	defer close(done)

	s.fetch(ctx, epoch)
	if sub == nil {
		return
	}

	events := sub.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() == nil {
					s.logger.Warn("Alert change stream closed")
				}
				return
			}
			metrics.ChangeEventsTotal.WithLabelValues(ev.Entity).Inc()
			coalesced, open := drain(events)
			if coalesced > 0 {
				s.logger.Debug("Coalesced alert change events", zap.Int("count", coalesced+1))
			}
			s.fetch(ctx, epoch)
			if !open {
				return
			}
		}
	}
}

// drain consumes already-buffered events so a burst causes a single fetch
func drain(events <-chan domain.ChangeEvent) (n int, open bool) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return n, false
			}
			metrics.ChangeEventsTotal.WithLabelValues(ev.Entity).Inc()
			n++
		default:
			return n, true
		}
	}
}

func (s *AlertSynchronizer) fetch(ctx context.Context, epoch uint64) {
	alerts, err := s.repo.ListAlertsByStatus(ctx, domain.AlertActive, s.limit)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || s.epoch != epoch {
		metrics.AlertFetchTotal.WithLabelValues(metrics.ResultStale).Inc()
		return
	}
	s.loading = false

	if err != nil {
		metrics.AlertFetchTotal.WithLabelValues(metrics.ResultError).Inc()
		s.logger.Error("Failed to fetch active alerts", zap.Error(err))
		return
	}

	s.alerts = normalizeAlerts(alerts, s.limit)
	metrics.AlertFetchTotal.WithLabelValues(metrics.ResultOK).Inc()
	s.logger.Debug("Alerts synchronized", zap.Int("alert_count", len(s.alerts)))
}

// normalizeAlerts keeps active alerts only, newest first, at most limit entries
func normalizeAlerts(in []domain.Alert, limit int) []domain.Alert {
	out := make([]domain.Alert, 0, len(in))
	for _, a := range in {
		if a.Status == domain.AlertActive {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
