package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cuenty/fulfillment/internal/database"
	apperrors "github.com/cuenty/fulfillment/internal/errors"
	orderDomain "github.com/cuenty/fulfillment/internal/order/domain"
	orderUseCase "github.com/cuenty/fulfillment/internal/order/usecase"
	outboxDomain "github.com/cuenty/fulfillment/internal/outbox/domain"
	paymentDomain "github.com/cuenty/fulfillment/internal/payment/domain"
	paymentService "github.com/cuenty/fulfillment/internal/payment/service"
	"github.com/cuenty/fulfillment/internal/reference"
)

// maxReferenceAttempts bounds regeneration after reference collisions.
const maxReferenceAttempts = 5

type paymentUseCase struct {
	txManager   database.TxManager
	txnRepo     TransactionRepository
	accountRepo AccountRepository
	orders      OrderCoordinator
	outboxRepo  OutboxWriter
	generator   reference.Generator
	renderer    paymentService.QRRenderer
	currency    string
	logger      *slog.Logger
	now         func() time.Time
}

// NewPaymentUseCase creates the payment transaction store.
func NewPaymentUseCase(
	txManager database.TxManager,
	txnRepo TransactionRepository,
	accountRepo AccountRepository,
	orders OrderCoordinator,
	outboxRepo OutboxWriter,
	generator reference.Generator,
	renderer paymentService.QRRenderer,
	currency string,
	logger *slog.Logger,
) PaymentUseCase {
	return &paymentUseCase{
		txManager:   txManager,
		txnRepo:     txnRepo,
		accountRepo: accountRepo,
		orders:      orders,
		outboxRepo:  outboxRepo,
		generator:   generator,
		renderer:    renderer,
		currency:    currency,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CreateTransaction retries with a fresh reference when the generated one is taken.
func (p *paymentUseCase) CreateTransaction(
	ctx context.Context,
	input CreateTransactionInput,
) (*paymentDomain.Checkout, error) {
	if !input.Method.IsValid() {
		return nil, paymentDomain.ErrInvalidMethod
	}

	var checkout *paymentDomain.Checkout
	var err error

	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		checkout, err = p.createTransaction(ctx, input)
		if !apperrors.Is(err, paymentDomain.ErrReferenceConflict) {
			break
		}
		p.logger.WarnContext(ctx, "payment reference collision",
			slog.String("order_id", input.OrderID.String()),
			slog.Int("attempt", attempt),
		)
	}
	if err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "payment transaction created",
		slog.String("order_id", input.OrderID.String()),
		slog.String("reference", checkout.Transaction.Reference),
		slog.String("method", string(input.Method)),
	)

	return checkout, nil
}

func (p *paymentUseCase) createTransaction(
	ctx context.Context,
	input CreateTransactionInput,
) (*paymentDomain.Checkout, error) {
	var checkout *paymentDomain.Checkout

	err := p.txManager.WithTx(ctx, func(ctx context.Context) error {
		order, err := p.orders.Lock(ctx, input.OrderID)
		if err != nil {
			return err
		}

		amount, err := paymentDomain.ResolveAmount(input.Amount, order.Total)
		if err != nil {
			return err
		}

		switch order.State {
		case orderDomain.StatePending:
			if _, err := p.orders.Transition(ctx, order.ID, orderDomain.EventPaymentMethodSelected); err != nil {
				return err
			}
		case orderDomain.StatePendingPayment:
			if err := p.cancelPending(ctx, order.ID, paymentDomain.ReasonSuperseded); err != nil {
				return err
			}
		default:
			return orderDomain.ErrInvalidOrderTransition
		}

		// The receiving account is read inside the transaction, never cached.
		account, err := p.accountRepo.GetActive(ctx)
		if err != nil {
			return err
		}

		currency := order.Currency
		if currency == "" {
			currency = p.currency
		}

		now := p.now()
		txn := &paymentDomain.Transaction{
			ID:        uuid.Must(uuid.NewV7()),
			OrderID:   order.ID,
			AccountID: account.ID,
			Reference: p.generator.Generate(input.Method.Prefix()),
			Method:    input.Method,
			Amount:    amount,
			Currency:  currency,
			State:     paymentDomain.StatePending,
			ExpiresAt: now.Add(input.Method.TTL()),
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := p.txnRepo.Create(ctx, txn); err != nil {
			return err
		}

		checkout = &paymentDomain.Checkout{
			Transaction: txn,
			Details:     paymentDomain.NewAccountDetails(txn, account),
		}

		if checkout.Details.QR != nil {
			data, err := json.Marshal(checkout.Details.QR)
			if err != nil {
				return err
			}
			if checkout.QRCode, err = p.renderer.Render(ctx, data); err != nil {
				return apperrors.Unavailable("qr renderer", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return checkout, nil
}

func (p *paymentUseCase) GetByReference(ctx context.Context, reference string) (*paymentDomain.Transaction, error) {
	return p.txnRepo.GetByReference(ctx, reference)
}

func (p *paymentUseCase) LatestPendingByOrder(
	ctx context.Context,
	orderID uuid.UUID,
) (*paymentDomain.Transaction, error) {
	return p.txnRepo.LatestPendingByOrder(ctx, orderID)
}

// Lock resolves the owning order with an unlocked read, locks the order and then
// re-reads the transaction under its own row lock.
func (p *paymentUseCase) Lock(ctx context.Context, reference string) (*paymentDomain.Transaction, error) {
	txn, err := p.txnRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	if _, err := p.orders.Lock(ctx, txn.OrderID); err != nil {
		return nil, err
	}

	return p.txnRepo.GetByReferenceForUpdate(ctx, reference)
}

func (p *paymentUseCase) LockOrder(ctx context.Context, orderID uuid.UUID) (*orderDomain.Order, error) {
	return p.orders.Lock(ctx, orderID)
}

func (p *paymentUseCase) MarkCompleted(
	ctx context.Context,
	reference string,
	payload []byte,
) (*paymentDomain.Transaction, bool, error) {
	var txn *paymentDomain.Transaction
	var alreadyCompleted bool

	err := p.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		txn, err = p.Lock(ctx, reference)
		if err != nil {
			return err
		}

		if txn.State == paymentDomain.StateCompleted {
			alreadyCompleted = true
			return nil
		}

		from := txn.State
		if err := txn.Complete(payload, p.now()); err != nil {
			return err
		}
		if err := p.txnRepo.UpdateState(ctx, txn, from); err != nil {
			return err
		}

		order, err := p.orders.Transition(ctx, txn.OrderID, orderDomain.EventPaymentConfirmed)
		if err != nil {
			return err
		}

		event, err := outboxDomain.NewOutboxEvent(
			outboxDomain.EventPaymentConfirmed,
			order.ID,
			ConfirmedPayload(order, txn),
		)
		if err != nil {
			return err
		}
		return p.outboxRepo.Create(ctx, event)
	})
	if err != nil {
		return nil, false, err
	}

	if !alreadyCompleted {
		p.logger.InfoContext(ctx, "payment confirmed",
			slog.String("reference", txn.Reference),
			slog.String("order_id", txn.OrderID.String()),
			slog.String("amount", txn.Amount.StringFixed(2)),
		)
	}

	return txn, alreadyCompleted, nil
}

func (p *paymentUseCase) MarkExpired(ctx context.Context, reference string) (*paymentDomain.Transaction, error) {
	return p.leavePending(ctx, reference, func(txn *paymentDomain.Transaction, now time.Time) error {
		return txn.Expire(now)
	})
}

func (p *paymentUseCase) MarkFailed(ctx context.Context, reference, reason string) (*paymentDomain.Transaction, error) {
	return p.leavePending(ctx, reference, func(txn *paymentDomain.Transaction, now time.Time) error {
		return txn.Fail(reason, now)
	})
}

func (p *paymentUseCase) Cancel(ctx context.Context, reference, reason string) (*paymentDomain.Transaction, error) {
	var txn *paymentDomain.Transaction

	err := p.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		txn, err = p.Lock(ctx, reference)
		if err != nil {
			return err
		}

		from := txn.State
		if err := txn.Cancel(reason, p.now()); err != nil {
			return err
		}
		if err := p.txnRepo.UpdateState(ctx, txn, from); err != nil {
			return err
		}

		order, err := p.orders.Lock(ctx, txn.OrderID)
		if err != nil {
			return err
		}
		if order.State != orderDomain.StatePendingPayment {
			return nil
		}
		_, err = p.orders.Transition(ctx, order.ID, orderDomain.EventCancel)
		return err
	})
	if err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "payment transaction cancelled",
		slog.String("reference", txn.Reference),
		slog.String("reason", reason),
	)

	return txn, nil
}

func (p *paymentUseCase) CancelOrder(ctx context.Context, orderID uuid.UUID) (*orderDomain.Order, error) {
	var order *orderDomain.Order

	err := p.txManager.WithTx(ctx, func(ctx context.Context) error {
		if _, err := p.orders.Lock(ctx, orderID); err != nil {
			return err
		}

		if err := p.cancelPending(ctx, orderID, paymentDomain.ReasonOrderCancelled); err != nil {
			return err
		}

		var err error
		order, err = p.orders.Transition(ctx, orderID, orderDomain.EventCancel)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ExpireStale expires transactions one by one so a concurrent confirmation of a
// single row never aborts the whole sweep.
func (p *paymentUseCase) ExpireStale(ctx context.Context, limit int) (int, error) {
	txns, err := p.txnRepo.ListExpired(ctx, p.now(), limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, txn := range txns {
		if _, err := p.MarkExpired(ctx, txn.Reference); err != nil {
			if apperrors.Is(err, apperrors.ErrInvalidTransition) || apperrors.Is(err, apperrors.ErrConflict) {
				continue
			}
			return expired, err
		}
		expired++
	}

	if expired > 0 {
		p.logger.InfoContext(ctx, "expired stale payment transactions", slog.Int("count", expired))
	}

	return expired, nil
}

func (p *paymentUseCase) List(
	ctx context.Context,
	filter paymentDomain.ListFilter,
) ([]*paymentDomain.Transaction, error) {
	return p.txnRepo.List(ctx, filter)
}

func (p *paymentUseCase) Statistics(
	ctx context.Context,
	filter paymentDomain.StatisticsFilter,
) (*paymentDomain.Statistics, error) {
	return p.txnRepo.Statistics(ctx, filter)
}

func (p *paymentUseCase) CreateAccount(
	ctx context.Context,
	input CreateAccountInput,
) (*paymentDomain.Account, error) {
	if err := reference.ValidateCLABE(input.CLABE); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
	}

	account := &paymentDomain.Account{
		ID:            uuid.Must(uuid.NewV7()),
		Bank:          input.Bank,
		Holder:        input.Holder,
		CLABE:         input.CLABE,
		AccountNumber: input.AccountNumber,
		Priority:      input.Priority,
		Active:        input.Active,
		CreatedAt:     p.now(),
	}

	if err := p.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

func (p *paymentUseCase) leavePending(
	ctx context.Context,
	reference string,
	apply func(txn *paymentDomain.Transaction, now time.Time) error,
) (*paymentDomain.Transaction, error) {
	var txn *paymentDomain.Transaction

	err := p.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		txn, err = p.Lock(ctx, reference)
		if err != nil {
			return err
		}

		from := txn.State
		if err := apply(txn, p.now()); err != nil {
			return err
		}
		return p.txnRepo.UpdateState(ctx, txn, from)
	})
	if err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "payment transaction closed",
		slog.String("reference", txn.Reference),
		slog.String("state", string(txn.State)),
	)

	return txn, nil
}

// cancelPending cancels every pending transaction of an order whose row lock is held.
func (p *paymentUseCase) cancelPending(ctx context.Context, orderID uuid.UUID, reason string) error {
	pending, err := p.txnRepo.ListPendingByOrder(ctx, orderID)
	if err != nil {
		return err
	}

	for _, txn := range pending {
		if err := txn.Cancel(reason, p.now()); err != nil {
			return err
		}
		if err := p.txnRepo.UpdateState(ctx, txn, paymentDomain.StatePending); err != nil {
			return err
		}
	}
	return nil
}

// ConfirmedPayload is the payment.confirmed workflow payload: the order payload plus
// the confirmed transaction.
func ConfirmedPayload(order *orderDomain.Order, txn *paymentDomain.Transaction) map[string]any {
	payload := orderUseCase.EventPayload(order)
	payload["reference"] = txn.Reference
	payload["paymentMethod"] = string(txn.Method)
	payload["amount"] = txn.Amount.StringFixed(2)
	return payload
}
