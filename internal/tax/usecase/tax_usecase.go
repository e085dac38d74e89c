// Package usecase implements RFC validation and IVA ledger entries for orders.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cuenty/fulfillment/internal/database"
	apperrors "github.com/cuenty/fulfillment/internal/errors"
	taxDomain "github.com/cuenty/fulfillment/internal/tax/domain"
)

// TaxRepository defines tax persistence operations.
type TaxRepository interface {
	CreateProfile(ctx context.Context, profile *taxDomain.Profile) error
	CreateEntry(ctx context.Context, entry *taxDomain.Entry) error
	GetEntryByOrder(ctx context.Context, orderID uuid.UUID) (*taxDomain.Entry, error)
}

// TaxUseCase validates tax ids and writes IVA entries.
type TaxUseCase interface {
	// ValidateRFC records the validation outcome and returns ErrInvalidRFC for malformed ids.
	ValidateRFC(ctx context.Context, orderID uuid.UUID, rfc string) (*taxDomain.Profile, error)
	// ApplyTax writes the IVA entry of an order. When the order already has one it is
	// returned with applied=false.
	ApplyTax(
		ctx context.Context,
		orderID uuid.UUID,
		total decimal.Decimal,
		currency string,
		rate decimal.Decimal,
	) (entry *taxDomain.Entry, applied bool, err error)
}

type taxUseCase struct {
	txManager database.TxManager
	taxRepo   TaxRepository
}

// NewTaxUseCase creates a TaxUseCase.
func NewTaxUseCase(txManager database.TxManager, taxRepo TaxRepository) TaxUseCase {
	return &taxUseCase{txManager: txManager, taxRepo: taxRepo}
}

func (t *taxUseCase) ValidateRFC(ctx context.Context, orderID uuid.UUID, rfc string) (*taxDomain.Profile, error) {
	normalized := taxDomain.NormalizeRFC(rfc)
	profile := &taxDomain.Profile{
		ID:         uuid.Must(uuid.NewV7()),
		OrderID:    orderID,
		RFC:        normalized,
		PersonType: taxDomain.PersonType(normalized),
		Valid:      taxDomain.ValidRFC(normalized),
		CreatedAt:  time.Now().UTC(),
	}

	if err := t.taxRepo.CreateProfile(ctx, profile); err != nil {
		return nil, err
	}

	if !profile.Valid {
		return profile, taxDomain.ErrInvalidRFC
	}
	return profile, nil
}

func (t *taxUseCase) ApplyTax(
	ctx context.Context,
	orderID uuid.UUID,
	total decimal.Decimal,
	currency string,
	rate decimal.Decimal,
) (*taxDomain.Entry, bool, error) {
	base, tax := taxDomain.Breakdown(total, rate)
	entry := &taxDomain.Entry{
		ID:        uuid.Must(uuid.NewV7()),
		OrderID:   orderID,
		Base:      base,
		Rate:      rate,
		Tax:       tax,
		Total:     total,
		Currency:  currency,
		CreatedAt: time.Now().UTC(),
	}

	err := t.txManager.WithTx(ctx, func(ctx context.Context) error {
		return t.taxRepo.CreateEntry(ctx, entry)
	})
	if err == nil {
		return entry, true, nil
	}
	if !apperrors.Is(err, apperrors.ErrConflict) {
		return nil, false, err
	}

	existing, err := t.taxRepo.GetEntryByOrder(ctx, orderID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}
