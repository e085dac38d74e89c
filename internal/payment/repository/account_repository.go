package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cuenty/fulfillment/internal/database"
	apperrors "github.com/cuenty/fulfillment/internal/errors"
	paymentDomain "github.com/cuenty/fulfillment/internal/payment/domain"
)

// AccountRepository persists receiving bank accounts.
type AccountRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewPostgreSQLAccountRepository creates an AccountRepository for PostgreSQL.
func NewPostgreSQLAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db, dialect: database.PostgreSQL}
}

// NewMySQLAccountRepository creates an AccountRepository for MySQL.
func NewMySQLAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db, dialect: database.MySQL}
}

// Create inserts an account. A duplicated CLABE yields ErrAccountConflict.
func (r *AccountRepository) Create(ctx context.Context, account *paymentDomain.Account) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`INSERT INTO payment_accounts
		(id, bank, holder, clabe, account_number, priority, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := querier.ExecContext(ctx, query,
		account.ID, account.Bank, account.Holder, account.CLABE, account.AccountNumber,
		account.Priority, account.Active, account.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return paymentDomain.ErrAccountConflict
		}
		return apperrors.Wrap(err, "failed to create payment account")
	}
	return nil
}

// GetActive returns the active account with the highest priority, oldest first on ties.
func (r *AccountRepository) GetActive(ctx context.Context) (*paymentDomain.Account, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT id, bank, holder, clabe, account_number, priority, active, created_at
		FROM payment_accounts
		WHERE active = ?
		ORDER BY priority DESC, created_at ASC, id ASC
		LIMIT 1`)

	var account paymentDomain.Account
	err := querier.QueryRowContext(ctx, query, true).Scan(
		&account.ID, &account.Bank, &account.Holder, &account.CLABE, &account.AccountNumber,
		&account.Priority, &account.Active, &account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, paymentDomain.ErrNoActiveAccount
		}
		return nil, apperrors.Wrap(err, "failed to get active payment account")
	}
	return &account, nil
}
