// Package repository implements credential inventory persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cuenty/fulfillment/internal/database"
	apperrors "github.com/cuenty/fulfillment/internal/errors"
	inventoryDomain "github.com/cuenty/fulfillment/internal/inventory/domain"
)

const credentialColumns = `id, service_id, plan_id, username, sealed_password, state, order_item_id,
	assigned_at, created_at`

// claimAttempts bounds retries when a selected row was claimed between select and update.
const claimAttempts = 3

// CredentialRepository persists credentials.
type CredentialRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewPostgreSQLCredentialRepository creates a CredentialRepository for PostgreSQL.
func NewPostgreSQLCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db, dialect: database.PostgreSQL}
}

// NewMySQLCredentialRepository creates a CredentialRepository for MySQL.
func NewMySQLCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db, dialect: database.MySQL}
}

// Create inserts a credential.
func (r *CredentialRepository) Create(ctx context.Context, credential *inventoryDomain.Credential) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`INSERT INTO credentials (` + credentialColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := querier.ExecContext(ctx, query,
		credential.ID, credential.ServiceID, credential.PlanID, credential.Username,
		credential.SealedPassword, credential.State, credential.OrderItemID, credential.AssignedAt,
		credential.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create credential")
	}
	return nil
}

// GetByID retrieves a credential.
func (r *CredentialRepository) GetByID(ctx context.Context, id uuid.UUID) (*inventoryDomain.Credential, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + credentialColumns + ` FROM credentials WHERE id = ?`)

	credential, err := scanCredential(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, inventoryDomain.ErrCredentialNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get credential")
	}
	return credential, nil
}

// ClaimAvailable assigns the oldest available credential of a service plan to an
// order item. The candidate row is selected with SKIP LOCKED and then claimed with a
// conditional update, so concurrent claimers never receive the same credential.
// It returns ErrNoneAvailable when the pool is exhausted.
func (r *CredentialRepository) ClaimAvailable(
	ctx context.Context,
	serviceID, planID string,
	itemID uuid.UUID,
	now time.Time,
) (*inventoryDomain.Credential, error) {
	querier := database.GetTx(ctx, r.db)

	selectQuery := r.dialect.Rebind(`SELECT id FROM credentials
		WHERE service_id = ? AND plan_id = ? AND state = ?
		ORDER BY created_at ASC, id ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED`)

	updateQuery := r.dialect.Rebind(`UPDATE credentials
		SET state = ?, order_item_id = ?, assigned_at = ?
		WHERE id = ? AND state = ?`)

	for range claimAttempts {
		var id uuid.UUID
		err := querier.QueryRowContext(ctx, selectQuery, serviceID, planID, inventoryDomain.StateAvailable).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, inventoryDomain.ErrNoneAvailable
			}
			return nil, apperrors.Wrap(err, "failed to select available credential")
		}

		result, err := querier.ExecContext(ctx, updateQuery,
			inventoryDomain.StateAssigned, itemID, now, id, inventoryDomain.StateAvailable)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to claim credential")
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to read affected rows")
		}
		if affected == 1 {
			return r.GetByID(ctx, id)
		}
	}

	return nil, inventoryDomain.ErrNoneAvailable
}

// CountAvailable returns the number of available credentials of a service plan.
func (r *CredentialRepository) CountAvailable(ctx context.Context, serviceID, planID string) (int64, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT COUNT(*) FROM credentials
		WHERE service_id = ? AND plan_id = ? AND state = ?`)

	var count int64
	err := querier.QueryRowContext(ctx, query, serviceID, planID, inventoryDomain.StateAvailable).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to count available credentials")
	}
	return count, nil
}

func scanCredential(row interface{ Scan(dest ...any) error }) (*inventoryDomain.Credential, error) {
	var credential inventoryDomain.Credential
	var itemID uuid.NullUUID
	err := row.Scan(
		&credential.ID, &credential.ServiceID, &credential.PlanID, &credential.Username,
		&credential.SealedPassword, &credential.State, &itemID, &credential.AssignedAt,
		&credential.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if itemID.Valid {
		credential.OrderItemID = &itemID.UUID
	}
	return &credential, nil
}
