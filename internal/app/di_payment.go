package app

import (
	"fmt"

	"github.com/cuenty/fulfillment/internal/database"
	paymentHTTP "github.com/cuenty/fulfillment/internal/payment/http"
	paymentRepository "github.com/cuenty/fulfillment/internal/payment/repository"
	paymentService "github.com/cuenty/fulfillment/internal/payment/service"
	paymentUseCase "github.com/cuenty/fulfillment/internal/payment/usecase"
	"github.com/cuenty/fulfillment/internal/reference"
)

// qrImageSize is the side in pixels of rendered CoDi QR codes.
const qrImageSize = 256

type paymentComponents struct {
	transactionRepository lazy[paymentUseCase.TransactionRepository]
	accountRepository     lazy[paymentUseCase.AccountRepository]
	generator             lazy[reference.Generator]
	useCase               lazy[paymentUseCase.PaymentUseCase]
	handler               lazy[*paymentHTTP.PaymentHandler]
	sweeper               lazy[*paymentUseCase.ExpirySweeper]
}

// TransactionRepository returns the payment transaction repository for the configured driver.
func (c *Container) TransactionRepository() (paymentUseCase.TransactionRepository, error) {
	return c.payment.transactionRepository.get(func() (paymentUseCase.TransactionRepository, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for transaction repository: %w", err)
		}
		dialect, err := c.dialect()
		if err != nil {
			return nil, err
		}
		if dialect == database.MySQL {
			return paymentRepository.NewMySQLTransactionRepository(db), nil
		}
		return paymentRepository.NewPostgreSQLTransactionRepository(db), nil
	})
}

// AccountRepository returns the receiving account repository for the configured driver.
func (c *Container) AccountRepository() (paymentUseCase.AccountRepository, error) {
	return c.payment.accountRepository.get(func() (paymentUseCase.AccountRepository, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for account repository: %w", err)
		}
		dialect, err := c.dialect()
		if err != nil {
			return nil, err
		}
		if dialect == database.MySQL {
			return paymentRepository.NewMySQLAccountRepository(db), nil
		}
		return paymentRepository.NewPostgreSQLAccountRepository(db), nil
	})
}

// ReferenceGenerator returns the snowflake reference generator.
func (c *Container) ReferenceGenerator() (reference.Generator, error) {
	return c.payment.generator.get(func() (reference.Generator, error) {
		generator, err := reference.NewSnowflakeGenerator(c.config.ReferenceNodeID)
		if err != nil {
			return nil, fmt.Errorf("failed to create reference generator: %w", err)
		}
		return generator, nil
	})
}

// PaymentUseCase returns the payment transaction store, decorated with metrics.
func (c *Container) PaymentUseCase() (paymentUseCase.PaymentUseCase, error) {
	return c.payment.useCase.get(func() (paymentUseCase.PaymentUseCase, error) {
		txManager, err := c.TxManager()
		if err != nil {
			return nil, fmt.Errorf("failed to get tx manager for payment use case: %w", err)
		}
		txnRepo, err := c.TransactionRepository()
		if err != nil {
			return nil, err
		}
		accountRepo, err := c.AccountRepository()
		if err != nil {
			return nil, err
		}
		orders, err := c.OrderUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get order use case for payment use case: %w", err)
		}
		outboxRepo, err := c.OutboxRepository()
		if err != nil {
			return nil, err
		}
		generator, err := c.ReferenceGenerator()
		if err != nil {
			return nil, err
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, err
		}

		useCase := paymentUseCase.NewPaymentUseCase(
			txManager,
			txnRepo,
			accountRepo,
			orders,
			outboxRepo,
			generator,
			paymentService.NewPNGQRRenderer(qrImageSize),
			c.config.Currency,
			c.Logger(),
		)
		return paymentUseCase.NewPaymentUseCaseWithMetrics(useCase, businessMetrics), nil
	})
}

// PaymentHandler returns the checkout and transaction admin handler.
func (c *Container) PaymentHandler() (*paymentHTTP.PaymentHandler, error) {
	return c.payment.handler.get(func() (*paymentHTTP.PaymentHandler, error) {
		useCase, err := c.PaymentUseCase()
		if err != nil {
			return nil, err
		}
		return paymentHTTP.NewPaymentHandler(useCase, c.Logger()), nil
	})
}

// ExpirySweeper returns the periodic expiry loop.
func (c *Container) ExpirySweeper() (*paymentUseCase.ExpirySweeper, error) {
	return c.payment.sweeper.get(func() (*paymentUseCase.ExpirySweeper, error) {
		useCase, err := c.PaymentUseCase()
		if err != nil {
			return nil, err
		}
		return paymentUseCase.NewExpirySweeper(
			useCase,
			c.config.ExpirySweepInterval,
			c.config.ExpirySweepBatchSize,
			c.Logger(),
		), nil
	})
}
