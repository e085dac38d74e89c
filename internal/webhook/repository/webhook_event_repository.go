// Package repository implements webhook event persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/cuenty/fulfillment/internal/database"
	apperrors "github.com/cuenty/fulfillment/internal/errors"
	webhookDomain "github.com/cuenty/fulfillment/internal/webhook/domain"
)

const eventColumns = `id, reference, event_type, payload, payload_hash, source_ip, user_agent,
	processed, processed_at, outcome, reason, attempts, last_error, received_at`

// WebhookEventRepository persists provider webhook events.
type WebhookEventRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewPostgreSQLWebhookEventRepository creates a WebhookEventRepository for PostgreSQL.
func NewPostgreSQLWebhookEventRepository(db *sql.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db, dialect: database.PostgreSQL}
}

// NewMySQLWebhookEventRepository creates a WebhookEventRepository for MySQL.
func NewMySQLWebhookEventRepository(db *sql.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db, dialect: database.MySQL}
}

// Create inserts an event. An event with the same reference and payload hash yields
// ErrDuplicateWebhookEvent.
func (r *WebhookEventRepository) Create(ctx context.Context, event *webhookDomain.WebhookEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`INSERT INTO webhook_events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := querier.ExecContext(ctx, query,
		event.ID, event.Reference, event.EventType, event.Payload, event.PayloadHash,
		event.SourceIP, event.UserAgent, event.Processed, event.ProcessedAt, event.Outcome,
		event.Reason, event.Attempts, event.LastError, event.ReceivedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return webhookDomain.ErrDuplicateWebhookEvent
		}
		return apperrors.Wrap(err, "failed to create webhook event")
	}
	return nil
}

// GetByID retrieves an event.
func (r *WebhookEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*webhookDomain.WebhookEvent, error) {
	return r.get(ctx, `WHERE id = ?`, id)
}

// GetByIDForUpdate retrieves an event and locks its row until the surrounding
// transaction ends.
func (r *WebhookEventRepository) GetByIDForUpdate(
	ctx context.Context,
	id uuid.UUID,
) (*webhookDomain.WebhookEvent, error) {
	return r.get(ctx, `WHERE id = ? FOR UPDATE`, id)
}

// GetByHash retrieves the event recorded for reference and payload hash.
func (r *WebhookEventRepository) GetByHash(
	ctx context.Context,
	reference, payloadHash string,
) (*webhookDomain.WebhookEvent, error) {
	return r.get(ctx, `WHERE reference = ? AND payload_hash = ?`, reference, payloadHash)
}

// Update writes the processing fields of an event. The received reference and payload
// are immutable.
func (r *WebhookEventRepository) Update(ctx context.Context, event *webhookDomain.WebhookEvent) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`UPDATE webhook_events
		SET processed = ?, processed_at = ?, outcome = ?, reason = ?, attempts = ?, last_error = ?
		WHERE id = ?`)

	_, err := querier.ExecContext(ctx, query,
		event.Processed, event.ProcessedAt, event.Outcome, event.Reason,
		event.Attempts, event.LastError, event.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update webhook event")
	}
	return nil
}

// ListUnprocessed returns unprocessed events received before the filter cutoff that
// have not exhausted their attempts, oldest first.
func (r *WebhookEventRepository) ListUnprocessed(
	ctx context.Context,
	filter webhookDomain.ReplayFilter,
) ([]*webhookDomain.WebhookEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + eventColumns + ` FROM webhook_events
		WHERE processed = ? AND received_at <= ? AND attempts < ?
		ORDER BY received_at ASC, id ASC
		LIMIT ?`)

	rows, err := querier.QueryContext(ctx, query, false, filter.ReceivedBefore, filter.MaxAttempts, filter.Limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list unprocessed webhook events")
	}
	defer rows.Close() //nolint:errcheck

	var events []*webhookDomain.WebhookEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan webhook event")
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate webhook events")
	}

	return events, nil
}

func (r *WebhookEventRepository) get(
	ctx context.Context,
	where string,
	args ...any,
) (*webhookDomain.WebhookEvent, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + eventColumns + ` FROM webhook_events ` + where)

	event, err := scanEvent(querier.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, webhookDomain.ErrWebhookEventNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get webhook event")
	}
	return event, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (*webhookDomain.WebhookEvent, error) {
	var event webhookDomain.WebhookEvent
	err := row.Scan(
		&event.ID, &event.Reference, &event.EventType, &event.Payload, &event.PayloadHash,
		&event.SourceIP, &event.UserAgent, &event.Processed, &event.ProcessedAt, &event.Outcome,
		&event.Reason, &event.Attempts, &event.LastError, &event.ReceivedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}
