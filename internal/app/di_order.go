package app

import (
	"fmt"

	"github.com/cuenty/fulfillment/internal/database"
	orderHTTP "github.com/cuenty/fulfillment/internal/order/http"
	orderRepository "github.com/cuenty/fulfillment/internal/order/repository"
	orderUseCase "github.com/cuenty/fulfillment/internal/order/usecase"
)

type orderComponents struct {
	repository lazy[orderUseCase.OrderRepository]
	useCase    lazy[orderUseCase.OrderUseCase]
	handler    lazy[*orderHTTP.OrderHandler]
}

// OrderRepository returns the order repository for the configured driver.
func (c *Container) OrderRepository() (orderUseCase.OrderRepository, error) {
	return c.order.repository.get(func() (orderUseCase.OrderRepository, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for order repository: %w", err)
		}
		dialect, err := c.dialect()
		if err != nil {
			return nil, err
		}
		if dialect == database.MySQL {
			return orderRepository.NewMySQLOrderRepository(db), nil
		}
		return orderRepository.NewPostgreSQLOrderRepository(db), nil
	})
}

// OrderUseCase returns the order state coordinator, decorated with metrics.
func (c *Container) OrderUseCase() (orderUseCase.OrderUseCase, error) {
	return c.order.useCase.get(func() (orderUseCase.OrderUseCase, error) {
		txManager, err := c.TxManager()
		if err != nil {
			return nil, fmt.Errorf("failed to get tx manager for order use case: %w", err)
		}
		orderRepo, err := c.OrderRepository()
		if err != nil {
			return nil, err
		}
		outboxRepo, err := c.OutboxRepository()
		if err != nil {
			return nil, err
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, err
		}

		useCase := orderUseCase.NewOrderUseCase(txManager, orderRepo, outboxRepo, c.Logger())
		return orderUseCase.NewOrderUseCaseWithMetrics(useCase, businessMetrics), nil
	})
}

// OrderHandler returns the order handler. Cancellation goes through the payment
// use case so pending transactions are cancelled with the order.
func (c *Container) OrderHandler() (*orderHTTP.OrderHandler, error) {
	return c.order.handler.get(func() (*orderHTTP.OrderHandler, error) {
		orders, err := c.OrderUseCase()
		if err != nil {
			return nil, err
		}
		payments, err := c.PaymentUseCase()
		if err != nil {
			return nil, err
		}
		return orderHTTP.NewOrderHandler(orders, payments, c.Logger()), nil
	})
}
