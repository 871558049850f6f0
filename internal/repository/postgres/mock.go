package postgres

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/safecircle/backend/internal/domain"
)

// InitialEscalationStatus is assigned to new escalation requests by the store
const InitialEscalationStatus = "pending"

// MockRepository is an in-memory store for demo mode and tests.
// It also acts as the change stream: every write notifies subscribers.
type MockRepository struct {
	mu          sync.RWMutex
	escalations []domain.EscalationRequest
	alerts      map[string]domain.Alert
	zones       []domain.Zone
	subs        map[string]map[*mockSubscription]struct{}
	now         func() time.Time
}

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{
		alerts: make(map[string]domain.Alert),
		subs:   make(map[string]map[*mockSubscription]struct{}),
		now:    time.Now,
	}
}

// SeedZones replaces the registered zones
func (r *MockRepository) SeedZones(zones []domain.Zone) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.zones = append([]domain.Zone(nil), zones...)
}

// InsertEscalation stores a request with a generated id and the initial status
func (r *MockRepository) InsertEscalation(ctx context.Context, req domain.EscalationRequest) (domain.EscalationRequest, error) {
	r.mu.Lock()
	req.ID = uuid.NewString()
	req.Status = InitialEscalationStatus
	req.CreatedAt = r.now()
	r.escalations = append(r.escalations, req)
	r.mu.Unlock()

	r.notify(domain.EntityEscalations, "insert")
	return req, nil
}

// ListEscalationsByUser returns a user's requests, newest first
func (r *MockRepository) ListEscalationsByUser(ctx context.Context, userID string) ([]domain.EscalationRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.EscalationRequest, 0)
	for _, e := range r.escalations {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListAlertsByStatus returns matching alerts, newest first, bounded by limit
func (r *MockRepository) ListAlertsByStatus(ctx context.Context, status string, limit int) ([]domain.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Alert, 0, len(r.alerts))
	for _, a := range r.alerts {
		if a.Status == status {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// InsertAlert stores an alert; id and created_at are assigned when empty
func (r *MockRepository) InsertAlert(ctx context.Context, alert domain.Alert) (domain.Alert, error) {
	r.mu.Lock()
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = r.now()
	}
	if alert.Status == "" {
		alert.Status = domain.AlertActive
	}
	r.alerts[alert.ID] = alert
	r.mu.Unlock()

	r.notify(domain.EntityAlerts, "insert")
	return alert, nil
}

// UpdateAlertStatus changes an alert's status
func (r *MockRepository) UpdateAlertStatus(ctx context.Context, id, status string) (domain.Alert, error) {
	r.mu.Lock()
	a, ok := r.alerts[id]
	if !ok {
		r.mu.Unlock()
		return domain.Alert{}, fmt.Errorf("mock: alert %s: %w", id, domain.ErrNotFound)
	}
	a.Status = status
	r.alerts[id] = a
	r.mu.Unlock()

	r.notify(domain.EntityAlerts, "update")
	return a, nil
}

// ListZones returns the seeded zones
func (r *MockRepository) ListZones(ctx context.Context) ([]domain.Zone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Zone(nil), r.zones...), nil
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}

// Subscribe registers for change events on an entity
func (r *MockRepository) Subscribe(ctx context.Context, entity string) (domain.Subscription, error) {
	sub := &mockSubscription{
		repo:   r,
		entity: entity,
		events: make(chan domain.ChangeEvent, 16),
	}

	r.mu.Lock()
	if r.subs[entity] == nil {
		r.subs[entity] = make(map[*mockSubscription]struct{})
	}
	r.subs[entity][sub] = struct{}{}
	r.mu.Unlock()

	return sub, nil
}

// SubscriberCount returns the number of live subscriptions on an entity
func (r *MockRepository) SubscriberCount(entity string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[entity])
}

func (r *MockRepository) notify(entity, op string) {
	ev := domain.ChangeEvent{Entity: entity, Op: op, At: r.now()}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for sub := range r.subs[entity] {
		select {
		case sub.events <- ev:
		default:
			// subscriber is behind; it will re-read full state anyway
		}
	}
}

type mockSubscription struct {
	repo   *MockRepository
	entity string
	events chan domain.ChangeEvent
	once   sync.Once
}

func (s *mockSubscription) Events() <-chan domain.ChangeEvent {
	return s.events
}

func (s *mockSubscription) Close() error {
	s.once.Do(func() {
		s.repo.mu.Lock()
		delete(s.repo.subs[s.entity], s)
		s.repo.mu.Unlock()
		close(s.events)
	})
	return nil
}
