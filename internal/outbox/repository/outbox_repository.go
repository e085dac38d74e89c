// Package repository provides data persistence implementations for outbox entities.
package repository

import (
	"context"
	"database/sql"

	"github.com/cuenty/fulfillment/internal/database"
	apperrors "github.com/cuenty/fulfillment/internal/errors"
	"github.com/cuenty/fulfillment/internal/outbox/domain"
)

// OutboxEventRepository handles outbox event persistence for PostgreSQL and MySQL.
type OutboxEventRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewPostgreSQLOutboxEventRepository creates an OutboxEventRepository for PostgreSQL.
func NewPostgreSQLOutboxEventRepository(db *sql.DB) *OutboxEventRepository {
	return &OutboxEventRepository{db: db, dialect: database.PostgreSQL}
}

// NewMySQLOutboxEventRepository creates an OutboxEventRepository for MySQL.
func NewMySQLOutboxEventRepository(db *sql.DB) *OutboxEventRepository {
	return &OutboxEventRepository{db: db, dialect: database.MySQL}
}

// Create inserts a new outbox event. It joins the transaction carried by ctx so the
// event commits together with the state change it announces.
func (r *OutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`INSERT INTO outbox_events
		(id, event_type, aggregate_id, payload, status, retries, last_error, processed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`)

	_, err := querier.ExecContext(ctx, query, event.ID, event.EventType, event.AggregateID,
		event.Payload, event.Status, event.Retries, event.LastError, event.ProcessedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create outbox event")
	}
	return nil
}

// GetPendingEvents claims up to limit pending events, skipping rows locked by other relays.
func (r *OutboxEventRepository) GetPendingEvents(
	ctx context.Context,
	limit int,
) ([]*domain.OutboxEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT id, event_type, aggregate_id, payload, status, retries,
			last_error, processed_at, created_at, updated_at
		FROM outbox_events
		WHERE status = ?
		ORDER BY created_at ASC, id ASC
		LIMIT ?
		FOR UPDATE SKIP LOCKED`)

	rows, err := querier.QueryContext(ctx, query, domain.OutboxEventStatusPending, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get pending outbox events")
	}
	defer rows.Close() //nolint:errcheck

	var events []*domain.OutboxEvent
	for rows.Next() {
		var event domain.OutboxEvent
		err := rows.Scan(&event.ID, &event.EventType, &event.AggregateID, &event.Payload,
			&event.Status, &event.Retries, &event.LastError, &event.ProcessedAt,
			&event.CreatedAt, &event.UpdatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan outbox event")
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate outbox events")
	}

	return events, nil
}

// Update persists the status, retry counter and error of an outbox event.
func (r *OutboxEventRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`UPDATE outbox_events
		SET status = ?, retries = ?, last_error = ?, processed_at = ?, updated_at = NOW()
		WHERE id = ?`)

	_, err := querier.ExecContext(ctx, query, event.Status, event.Retries, event.LastError,
		event.ProcessedAt, event.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update outbox event")
	}
	return nil
}

// CountByType returns how many events of eventType were written for aggregateID.
func (r *OutboxEventRepository) CountByType(
	ctx context.Context,
	eventType string,
	aggregateID any,
) (int, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT COUNT(*) FROM outbox_events WHERE event_type = ? AND aggregate_id = ?`)

	var count int
	if err := querier.QueryRowContext(ctx, query, eventType, aggregateID).Scan(&count); err != nil {
		return 0, apperrors.Wrap(err, "failed to count outbox events")
	}
	return count, nil
}
