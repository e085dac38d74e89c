// Package usecase implements the credential store collaborator: atomic claims of
// inventory units for order items and sealed credential import.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cuenty/fulfillment/internal/database"
	apperrors "github.com/cuenty/fulfillment/internal/errors"
	inventoryDomain "github.com/cuenty/fulfillment/internal/inventory/domain"
	inventoryService "github.com/cuenty/fulfillment/internal/inventory/service"
)

// CredentialRepository defines credential persistence operations.
type CredentialRepository interface {
	Create(ctx context.Context, credential *inventoryDomain.Credential) error
	GetByID(ctx context.Context, id uuid.UUID) (*inventoryDomain.Credential, error)
	ClaimAvailable(
		ctx context.Context,
		serviceID, planID string,
		itemID uuid.UUID,
		now time.Time,
	) (*inventoryDomain.Credential, error)
	CountAvailable(ctx context.Context, serviceID, planID string) (int64, error)
}

// ItemAssigner links a claimed credential to an order item.
type ItemAssigner interface {
	AssignCredential(ctx context.Context, itemID, credentialID uuid.UUID) error
}

// ImportInput is one credential to add to the pool.
type ImportInput struct {
	ServiceID string `json:"service_id"`
	PlanID    string `json:"plan_id"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

// Revealed is a credential with its password opened for delivery.
type Revealed struct {
	ServiceID string
	PlanID    string
	Username  string
	Password  string
}

// InventoryUseCase is the credential store.
type InventoryUseCase interface {
	// ClaimAvailable claims one available credential of the service plan for an order
	// item and records it on the item in the same transaction. It returns
	// ErrNoneAvailable when the pool is exhausted.
	ClaimAvailable(ctx context.Context, serviceID, planID string, itemID uuid.UUID) (*inventoryDomain.Credential, error)
	Reveal(ctx context.Context, credentialID uuid.UUID) (*Revealed, error)
	Import(ctx context.Context, inputs []ImportInput) (int, error)
	CountAvailable(ctx context.Context, serviceID, planID string) (int64, error)
}

type inventoryUseCase struct {
	txManager      database.TxManager
	credentialRepo CredentialRepository
	items          ItemAssigner
	sealer         inventoryService.Sealer
	logger         *slog.Logger
	now            func() time.Time
}

// NewInventoryUseCase creates the credential store.
func NewInventoryUseCase(
	txManager database.TxManager,
	credentialRepo CredentialRepository,
	items ItemAssigner,
	sealer inventoryService.Sealer,
	logger *slog.Logger,
) InventoryUseCase {
	return &inventoryUseCase{
		txManager:      txManager,
		credentialRepo: credentialRepo,
		items:          items,
		sealer:         sealer,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (i *inventoryUseCase) ClaimAvailable(
	ctx context.Context,
	serviceID, planID string,
	itemID uuid.UUID,
) (*inventoryDomain.Credential, error) {
	var credential *inventoryDomain.Credential

	err := i.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		credential, err = i.credentialRepo.ClaimAvailable(ctx, serviceID, planID, itemID, i.now())
		if err != nil {
			return err
		}
		return i.items.AssignCredential(ctx, itemID, credential.ID)
	})
	if err != nil {
		if apperrors.Is(err, inventoryDomain.ErrNoneAvailable) {
			i.logger.WarnContext(ctx, "credential pool exhausted",
				slog.String("service_id", serviceID),
				slog.String("plan_id", planID),
				slog.String("item_id", itemID.String()),
			)
		}
		return nil, err
	}

	i.logger.InfoContext(ctx, "credential assigned",
		slog.String("credential_id", credential.ID.String()),
		slog.String("item_id", itemID.String()),
	)

	return credential, nil
}

func (i *inventoryUseCase) Reveal(ctx context.Context, credentialID uuid.UUID) (*Revealed, error) {
	credential, err := i.credentialRepo.GetByID(ctx, credentialID)
	if err != nil {
		return nil, err
	}

	password, err := i.sealer.Open(ctx, credential.SealedPassword)
	if err != nil {
		return nil, err
	}

	return &Revealed{
		ServiceID: credential.ServiceID,
		PlanID:    credential.PlanID,
		Username:  credential.Username,
		Password:  string(password),
	}, nil
}

// Import seals and stores credentials in one transaction.
func (i *inventoryUseCase) Import(ctx context.Context, inputs []ImportInput) (int, error) {
	credentials := make([]*inventoryDomain.Credential, 0, len(inputs))
	for _, in := range inputs {
		if in.ServiceID == "" || in.PlanID == "" || in.Username == "" || in.Password == "" {
			return 0, apperrors.Wrap(apperrors.ErrInvalidInput, "credential requires service_id, plan_id, username and password")
		}

		sealed, err := i.sealer.Seal(ctx, []byte(in.Password))
		if err != nil {
			return 0, err
		}

		credentials = append(credentials, &inventoryDomain.Credential{
			ID:             uuid.Must(uuid.NewV7()),
			ServiceID:      in.ServiceID,
			PlanID:         in.PlanID,
			Username:       in.Username,
			SealedPassword: sealed,
			State:          inventoryDomain.StateAvailable,
			CreatedAt:      i.now(),
		})
	}

	err := i.txManager.WithTx(ctx, func(ctx context.Context) error {
		for _, credential := range credentials {
			if err := i.credentialRepo.Create(ctx, credential); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(credentials), nil
}

func (i *inventoryUseCase) CountAvailable(ctx context.Context, serviceID, planID string) (int64, error) {
	return i.credentialRepo.CountAvailable(ctx, serviceID, planID)
}
