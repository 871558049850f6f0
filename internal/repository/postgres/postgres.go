package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/safecircle/backend/internal/domain"
)

// PostgresRepository implements the escalation, alert and zone repositories
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// InsertEscalation persists an escalation request; id, status and created_at come from column defaults
func (r *PostgresRepository) InsertEscalation(ctx context.Context, req domain.EscalationRequest) (domain.EscalationRequest, error) {
	query := `
		INSERT INTO escalation_requests (
			user_id, entity_id, entity_type, escalation_target, reason, authority_contact_id
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, user_id, entity_id, entity_type, escalation_target,
			reason, authority_contact_id, status, created_at
	`

	row := r.pool.QueryRow(ctx, query,
		req.UserID, req.EntityID, req.EntityType, req.EscalationTarget, req.Reason, req.AuthorityContactID,
	)
	created, err := scanEscalation(row)
	if err != nil {
		return domain.EscalationRequest{}, fmt.Errorf("postgres: failed to insert escalation: %w", err)
	}

	return created, nil
}

// ListEscalationsByUser retrieves a user's escalation requests, newest first
func (r *PostgresRepository) ListEscalationsByUser(ctx context.Context, userID string) ([]domain.EscalationRequest, error) {
	query := `
		SELECT id::text, user_id, entity_id, entity_type, escalation_target,
			   reason, authority_contact_id, status, created_at
		FROM escalation_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query escalations: %w", err)
	}
	defer rows.Close()

	results := make([]domain.EscalationRequest, 0)
	for rows.Next() {
		e, err := scanEscalation(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan escalation row: %w", err)
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to iterate escalations: %w", err)
	}

	return results, nil
}

// ListAlertsByStatus retrieves alerts with a given status, newest first
func (r *PostgresRepository) ListAlertsByStatus(ctx context.Context, status string, limit int) ([]domain.Alert, error) {
	query := `
		SELECT id::text, type, status, description, latitude, longitude, created_at
		FROM alerts
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query alerts: %w", err)
	}
	defer rows.Close()

	results := make([]domain.Alert, 0, limit)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan alert row: %w", err)
		}
		results = append(results, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to iterate alerts: %w", err)
	}

	return results, nil
}

// InsertAlert persists a new alert
func (r *PostgresRepository) InsertAlert(ctx context.Context, alert domain.Alert) (domain.Alert, error) {
	query := `
		INSERT INTO alerts (type, status, description, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text, type, status, description, latitude, longitude, created_at
	`

	row := r.pool.QueryRow(ctx, query,
		alert.Type, alert.Status, alert.Description, alert.Latitude, alert.Longitude,
	)
	created, err := scanAlert(row)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("postgres: failed to insert alert: %w", err)
	}

	return created, nil
}

// UpdateAlertStatus changes an alert's status. Ids that are not UUIDs cannot exist.
func (r *PostgresRepository) UpdateAlertStatus(ctx context.Context, id, status string) (domain.Alert, error) {
	alertID, err := uuid.Parse(id)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("postgres: alert %s: %w", id, domain.ErrNotFound)
	}

	query := `
		UPDATE alerts SET status = $2
		WHERE id = $1
		RETURNING id::text, type, status, description, latitude, longitude, created_at
	`

	updated, err := scanAlert(r.pool.QueryRow(ctx, query, alertID.String(), status))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Alert{}, fmt.Errorf("postgres: alert %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Alert{}, fmt.Errorf("postgres: failed to update alert: %w", err)
	}

	return updated, nil
}

// ListZones retrieves all registered safety zones
func (r *PostgresRepository) ListZones(ctx context.Context) ([]domain.Zone, error) {
	query := `
		SELECT id::text, name, latitude, longitude, radius, zone_type
		FROM safety_zones
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query zones: %w", err)
	}
	defer rows.Close()

	var results []domain.Zone
	for rows.Next() {
		var z domain.Zone
		if err := rows.Scan(&z.ID, &z.Name, &z.Latitude, &z.Longitude, &z.Radius, &z.ZoneType); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan zone row: %w", err)
		}
		results = append(results, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to iterate zones: %w", err)
	}

	return results, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

func scanEscalation(row pgx.Row) (domain.EscalationRequest, error) {
	var e domain.EscalationRequest
	err := row.Scan(
		&e.ID, &e.UserID, &e.EntityID, &e.EntityType, &e.EscalationTarget,
		&e.Reason, &e.AuthorityContactID, &e.Status, &e.CreatedAt,
	)
	return e, err
}

func scanAlert(row pgx.Row) (domain.Alert, error) {
	var a domain.Alert
	err := row.Scan(&a.ID, &a.Type, &a.Status, &a.Description, &a.Latitude, &a.Longitude, &a.CreatedAt)
	return a, err
}
