// Package repository implements payment transaction and account persistence for
// PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cuenty/fulfillment/internal/database"
	apperrors "github.com/cuenty/fulfillment/internal/errors"
	paymentDomain "github.com/cuenty/fulfillment/internal/payment/domain"
)

const transactionColumns = `id, order_id, account_id, reference, method, amount, currency, state, reason,
	provider_payload, expires_at, completed_at, created_at, updated_at`

// TransactionRepository persists payment transactions.
type TransactionRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewPostgreSQLTransactionRepository creates a TransactionRepository for PostgreSQL.
func NewPostgreSQLTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db, dialect: database.PostgreSQL}
}

// NewMySQLTransactionRepository creates a TransactionRepository for MySQL.
func NewMySQLTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db, dialect: database.MySQL}
}

// Create inserts a transaction. A taken reference yields ErrReferenceConflict.
func (r *TransactionRepository) Create(ctx context.Context, txn *paymentDomain.Transaction) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`INSERT INTO payment_transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := querier.ExecContext(ctx, query,
		txn.ID, txn.OrderID, txn.AccountID, txn.Reference, txn.Method, txn.Amount, txn.Currency,
		txn.State, txn.Reason, txn.ProviderPayload, txn.ExpiresAt, txn.CompletedAt,
		txn.CreatedAt, txn.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return paymentDomain.ErrReferenceConflict
		}
		return apperrors.Wrap(err, "failed to create payment transaction")
	}
	return nil
}

// GetByReference retrieves a transaction by its provider-facing reference.
func (r *TransactionRepository) GetByReference(
	ctx context.Context,
	reference string,
) (*paymentDomain.Transaction, error) {
	return r.getByReference(ctx, reference, false)
}

// GetByReferenceForUpdate retrieves a transaction and locks its row until the
// surrounding transaction ends.
func (r *TransactionRepository) GetByReferenceForUpdate(
	ctx context.Context,
	reference string,
) (*paymentDomain.Transaction, error) {
	return r.getByReference(ctx, reference, true)
}

func (r *TransactionRepository) getByReference(
	ctx context.Context,
	reference string,
	forUpdate bool,
) (*paymentDomain.Transaction, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE reference = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	txn, err := scanTransaction(querier.QueryRowContext(ctx, r.dialect.Rebind(query), reference))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, paymentDomain.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get payment transaction")
	}
	return txn, nil
}

// UpdateState writes the lifecycle fields of txn when the stored state still equals
// from. It returns ErrTransactionStateChanged when another writer moved first.
func (r *TransactionRepository) UpdateState(
	ctx context.Context,
	txn *paymentDomain.Transaction,
	from paymentDomain.State,
) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`UPDATE payment_transactions
		SET state = ?, reason = ?, provider_payload = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND state = ?`)

	result, err := querier.ExecContext(ctx, query,
		txn.State, txn.Reason, txn.ProviderPayload, txn.CompletedAt, txn.UpdatedAt,
		txn.ID, from,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update payment transaction")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return paymentDomain.ErrTransactionStateChanged
	}
	return nil
}

// ListPendingByOrder returns the pending transactions of an order, oldest first.
func (r *TransactionRepository) ListPendingByOrder(
	ctx context.Context,
	orderID uuid.UUID,
) ([]*paymentDomain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions
		WHERE order_id = ? AND state = ?
		ORDER BY created_at ASC, id ASC`

	return r.query(ctx, query, orderID, paymentDomain.StatePending)
}

// LatestPendingByOrder returns the newest pending transaction of an order.
func (r *TransactionRepository) LatestPendingByOrder(
	ctx context.Context,
	orderID uuid.UUID,
) (*paymentDomain.Transaction, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + transactionColumns + ` FROM payment_transactions
		WHERE order_id = ? AND state = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`)

	txn, err := scanTransaction(querier.QueryRowContext(ctx, query, orderID, paymentDomain.StatePending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, paymentDomain.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get pending payment transaction")
	}
	return txn, nil
}

// ListExpired returns up to limit pending transactions whose expiry is at or before now.
func (r *TransactionRepository) ListExpired(
	ctx context.Context,
	now time.Time,
	limit int,
) ([]*paymentDomain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions
		WHERE state = ? AND expires_at <= ?
		ORDER BY expires_at ASC, id ASC
		LIMIT ?`

	return r.query(ctx, query, paymentDomain.StatePending, now, limit)
}

// List returns transactions matching filter, newest first.
func (r *TransactionRepository) List(
	ctx context.Context,
	filter paymentDomain.ListFilter,
) ([]*paymentDomain.Transaction, error) {
	where, args := filterClause(filter.State, filter.Method, nil, nil)

	query := `SELECT ` + transactionColumns + ` FROM payment_transactions` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	return r.query(ctx, query, args...)
}

// Statistics aggregates transaction counts and collected amounts.
func (r *TransactionRepository) Statistics(
	ctx context.Context,
	filter paymentDomain.StatisticsFilter,
) (*paymentDomain.Statistics, error) {
	querier := database.GetTx(ctx, r.db)

	where, args := filterClause("", filter.Method, filter.From, filter.To)

	query := r.dialect.Rebind(`SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN state = 'pending' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state = 'completed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state = 'expired' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state = 'cancelled' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state = 'completed' THEN amount END), 0),
			COALESCE(AVG(CASE WHEN state = 'completed' THEN amount END), 0)
		FROM payment_transactions` + where)

	var stats paymentDomain.Statistics
	err := querier.QueryRowContext(ctx, query, args...).Scan(
		&stats.Total, &stats.Pending, &stats.Completed, &stats.Expired, &stats.Cancelled,
		&stats.Failed, &stats.CollectedTotal, &stats.AverageTicket,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to compute payment statistics")
	}

	stats.AverageTicket = stats.AverageTicket.Round(2)
	return &stats, nil
}

func (r *TransactionRepository) query(
	ctx context.Context,
	query string,
	args ...any,
) ([]*paymentDomain.Transaction, error) {
	querier := database.GetTx(ctx, r.db)

	rows, err := querier.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list payment transactions")
	}
	defer rows.Close() //nolint:errcheck

	var txns []*paymentDomain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan payment transaction")
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate payment transactions")
	}
	return txns, nil
}

func filterClause(
	state paymentDomain.State,
	method paymentDomain.Method,
	from, to *time.Time,
) (string, []any) {
	var conditions []string
	var args []any

	if state != "" {
		conditions = append(conditions, "state = ?")
		args = append(args, state)
	}
	if method != "" {
		conditions = append(conditions, "method = ?")
		args = append(args, method)
	}
	if from != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *from)
	}
	if to != nil {
		conditions = append(conditions, "created_at < ?")
		args = append(args, *to)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*paymentDomain.Transaction, error) {
	var txn paymentDomain.Transaction
	err := row.Scan(
		&txn.ID, &txn.OrderID, &txn.AccountID, &txn.Reference, &txn.Method, &txn.Amount,
		&txn.Currency, &txn.State, &txn.Reason, &txn.ProviderPayload, &txn.ExpiresAt,
		&txn.CompletedAt, &txn.CreatedAt, &txn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
