// Package repository implements tax profile and ledger persistence.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/cuenty/fulfillment/internal/database"
	apperrors "github.com/cuenty/fulfillment/internal/errors"
	taxDomain "github.com/cuenty/fulfillment/internal/tax/domain"
)

// TaxRepository persists tax profiles and IVA ledger entries.
type TaxRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewPostgreSQLTaxRepository creates a TaxRepository for PostgreSQL.
func NewPostgreSQLTaxRepository(db *sql.DB) *TaxRepository {
	return &TaxRepository{db: db, dialect: database.PostgreSQL}
}

// NewMySQLTaxRepository creates a TaxRepository for MySQL.
func NewMySQLTaxRepository(db *sql.DB) *TaxRepository {
	return &TaxRepository{db: db, dialect: database.MySQL}
}

// CreateProfile records the outcome of an RFC validation.
func (r *TaxRepository) CreateProfile(ctx context.Context, profile *taxDomain.Profile) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`INSERT INTO tax_profiles (id, order_id, rfc, person_type, valid, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)

	_, err := querier.ExecContext(ctx, query, profile.ID, profile.OrderID, profile.RFC,
		profile.PersonType, profile.Valid, profile.CreatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create tax profile")
	}
	return nil
}

// CreateEntry inserts the IVA entry of an order. A second entry for the same order
// fails with ErrConflict.
func (r *TaxRepository) CreateEntry(ctx context.Context, entry *taxDomain.Entry) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`INSERT INTO tax_entries (id, order_id, base, rate, tax, total, currency, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := querier.ExecContext(ctx, query, entry.ID, entry.OrderID, entry.Base, entry.Rate,
		entry.Tax, entry.Total, entry.Currency, entry.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "tax entry already exists")
		}
		return apperrors.Wrap(err, "failed to create tax entry")
	}
	return nil
}

// GetEntryByOrder returns the IVA entry of an order.
func (r *TaxRepository) GetEntryByOrder(ctx context.Context, orderID uuid.UUID) (*taxDomain.Entry, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT id, order_id, base, rate, tax, total, currency, created_at
		FROM tax_entries WHERE order_id = ?`)

	var entry taxDomain.Entry
	err := querier.QueryRowContext(ctx, query, orderID).Scan(&entry.ID, &entry.OrderID, &entry.Base,
		&entry.Rate, &entry.Tax, &entry.Total, &entry.Currency, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, taxDomain.ErrTaxEntryNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get tax entry")
	}
	return &entry, nil
}
