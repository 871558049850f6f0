package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/safecircle/backend/internal/domain"
	"github.com/safecircle/backend/internal/repository/postgres"
)

type recordingPublisher struct {
	events []domain.ChangeEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event domain.ChangeEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func TestAlertService_Raise(t *testing.T) {
	repo := postgres.NewMockRepository()
	pub := &recordingPublisher{}
	svc := NewAlertService(repo, pub, zap.NewNop())

	desc := "streetlight out, group loitering"
	created, err := svc.Raise(context.Background(), RaiseAlertInput{
		Type:        "suspicious_activity",
		Description: &desc,
		Latitude:    43.2389,
		Longitude:   76.8897,
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.AlertActive, created.Status)
	assert.False(t, created.CreatedAt.IsZero())

	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.EntityAlerts, pub.events[0].Entity)
	assert.Equal(t, "insert", pub.events[0].Op)

	active, err := repo.ListAlertsByStatus(context.Background(), domain.AlertActive, 10)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestAlertService_RaiseValidation(t *testing.T) {
	repo := postgres.NewMockRepository()
	pub := &recordingPublisher{}
	svc := NewAlertService(repo, pub, zap.NewNop())

	tests := []struct {
		name string
		in   RaiseAlertInput
	}{
		{"missing type", RaiseAlertInput{Latitude: 1, Longitude: 1}},
		{"latitude out of range", RaiseAlertInput{Type: "fire", Latitude: 91, Longitude: 0}},
		{"longitude out of range", RaiseAlertInput{Type: "fire", Latitude: 0, Longitude: -181}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created, err := svc.Raise(context.Background(), tt.in)
			assert.Nil(t, created)
			assert.ErrorIs(t, err, domain.ErrInvalidAlert)
		})
	}
	assert.Empty(t, pub.events)
}

func TestAlertService_SetStatus(t *testing.T) {
	repo := postgres.NewMockRepository()
	pub := &recordingPublisher{}
	svc := NewAlertService(repo, pub, zap.NewNop())

	created, err := svc.Raise(context.Background(), RaiseAlertInput{Type: "fire", Latitude: 1, Longitude: 1})
	require.NoError(t, err)

	updated, err := svc.SetStatus(context.Background(), created.ID, domain.AlertResolved)
	require.NoError(t, err)
	assert.Equal(t, domain.AlertResolved, updated.Status)
	require.Len(t, pub.events, 2)
	assert.Equal(t, "update", pub.events[1].Op)

	_, err = svc.SetStatus(context.Background(), created.ID, "archived")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	_, err = svc.SetStatus(context.Background(), "missing", domain.AlertCancelled)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Len(t, pub.events, 2)
}

func TestAlertService_PublishFailureDoesNotFailWrite(t *testing.T) {
	repo := postgres.NewMockRepository()
	pub := &recordingPublisher{err: errors.New("redis unavailable")}
	svc := NewAlertService(repo, pub, zap.NewNop())

	created, err := svc.Raise(context.Background(), RaiseAlertInput{Type: "fire", Latitude: 1, Longitude: 1})
	require.NoError(t, err)
	assert.NotNil(t, created)
}

func TestAlertService_WritesReachSynchronizer(t *testing.T) {
	repo := postgres.NewMockRepository()
	svc := NewAlertService(repo, nil, zap.NewNop())
	syncer := NewAlertSynchronizer(repo, repo, 50, zap.NewNop())

	require.NoError(t, syncer.Activate(context.Background()))
	defer syncer.Deactivate()
	waitLoaded(t, syncer)

	created, err := svc.Raise(context.Background(), RaiseAlertInput{Type: "fire", Latitude: 1, Longitude: 1})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, _ := syncer.Snapshot()
		return len(got) == 1 && got[0].ID == created.ID
	}, waitFor, tick)

	_, err = svc.SetStatus(context.Background(), created.ID, domain.AlertResolved)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, _ := syncer.Snapshot()
		return len(got) == 0
	}, waitFor, tick)
}
