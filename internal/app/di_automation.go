package app

import (
	"context"
	"fmt"

	automationHTTP "github.com/cuenty/fulfillment/internal/automation/http"
	automationRepository "github.com/cuenty/fulfillment/internal/automation/repository"
	automationUseCase "github.com/cuenty/fulfillment/internal/automation/usecase"
	"github.com/cuenty/fulfillment/internal/database"
	inventoryRepository "github.com/cuenty/fulfillment/internal/inventory/repository"
	inventoryService "github.com/cuenty/fulfillment/internal/inventory/service"
	inventoryUseCase "github.com/cuenty/fulfillment/internal/inventory/usecase"
	notificationService "github.com/cuenty/fulfillment/internal/notification/service"
	taxRepository "github.com/cuenty/fulfillment/internal/tax/repository"
	taxUseCase "github.com/cuenty/fulfillment/internal/tax/usecase"
)

// ephemeralKeyURI asks localsecrets for a random key that lives only as long as the process.
const ephemeralKeyURI = "base64key://"

type automationComponents struct {
	repository lazy[automationUseCase.WorkflowRepository]
	engine     lazy[automationUseCase.Engine]
	useCase    lazy[automationUseCase.AutomationUseCase]
	handler    lazy[*automationHTTP.AutomationHandler]
}

type inventoryComponents struct {
	sealer  lazy[inventoryService.Sealer]
	useCase lazy[inventoryUseCase.InventoryUseCase]
}

type taxComponents struct {
	useCase lazy[taxUseCase.TaxUseCase]
}

// WorkflowRepository returns the workflow and automation log repository for the configured driver.
func (c *Container) WorkflowRepository() (automationUseCase.WorkflowRepository, error) {
	return c.automation.repository.get(func() (automationUseCase.WorkflowRepository, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for workflow repository: %w", err)
		}
		dialect, err := c.dialect()
		if err != nil {
			return nil, err
		}
		if dialect == database.MySQL {
			return automationRepository.NewMySQLWorkflowRepository(db), nil
		}
		return automationRepository.NewPostgreSQLWorkflowRepository(db), nil
	})
}

// CredentialSealer returns the gocloud keeper that seals credential passwords. Without
// CREDENTIALS_KEY_URI a process-local random key is used and sealed data does not
// survive a restart.
func (c *Container) CredentialSealer() (inventoryService.Sealer, error) {
	return c.inventory.sealer.get(func() (inventoryService.Sealer, error) {
		keyURI := c.config.CredentialsKeyURI
		if keyURI == "" {
			c.Logger().Warn("CREDENTIALS_KEY_URI is empty - using an ephemeral key, imported credentials will be unreadable after restart")
			keyURI = ephemeralKeyURI
		}

		sealer, err := inventoryService.NewKeeperSealer(c.ctx, keyURI)
		if err != nil {
			return nil, err
		}
		c.onShutdown("credentials keeper", func(context.Context) error { return sealer.Close() })
		return sealer, nil
	})
}

// InventoryUseCase returns the credential store.
func (c *Container) InventoryUseCase() (inventoryUseCase.InventoryUseCase, error) {
	return c.inventory.useCase.get(func() (inventoryUseCase.InventoryUseCase, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for inventory use case: %w", err)
		}
		dialect, err := c.dialect()
		if err != nil {
			return nil, err
		}
		txManager, err := c.TxManager()
		if err != nil {
			return nil, err
		}
		orders, err := c.OrderUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get order use case for inventory use case: %w", err)
		}
		sealer, err := c.CredentialSealer()
		if err != nil {
			return nil, err
		}

		credentialRepo := inventoryRepository.NewPostgreSQLCredentialRepository(db)
		if dialect == database.MySQL {
			credentialRepo = inventoryRepository.NewMySQLCredentialRepository(db)
		}
		return inventoryUseCase.NewInventoryUseCase(txManager, credentialRepo, orders, sealer, c.Logger()), nil
	})
}

// TaxUseCase returns RFC validation and IVA ledger entries.
func (c *Container) TaxUseCase() (taxUseCase.TaxUseCase, error) {
	return c.tax.useCase.get(func() (taxUseCase.TaxUseCase, error) {
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for tax use case: %w", err)
		}
		dialect, err := c.dialect()
		if err != nil {
			return nil, err
		}
		txManager, err := c.TxManager()
		if err != nil {
			return nil, err
		}

		taxRepo := taxRepository.NewPostgreSQLTaxRepository(db)
		if dialect == database.MySQL {
			taxRepo = taxRepository.NewMySQLTaxRepository(db)
		}
		return taxUseCase.NewTaxUseCase(txManager, taxRepo), nil
	})
}

// AutomationEngine returns the workflow engine with every action executor registered.
func (c *Container) AutomationEngine() (automationUseCase.Engine, error) {
	return c.automation.engine.get(func() (automationUseCase.Engine, error) {
		workflowRepo, err := c.WorkflowRepository()
		if err != nil {
			return nil, err
		}
		orders, err := c.OrderUseCase()
		if err != nil {
			return nil, err
		}
		credentials, err := c.InventoryUseCase()
		if err != nil {
			return nil, err
		}
		tax, err := c.TaxUseCase()
		if err != nil {
			return nil, err
		}

		logger := c.Logger()
		executors := automationUseCase.NewActionExecutors(
			orders,
			credentials,
			tax,
			notificationService.NewLoggingDeliverer(logger),
			logger,
		)
		return automationUseCase.NewEngine(workflowRepo, executors, logger), nil
	})
}

// AutomationUseCase returns workflow administration and manual triggering, decorated with metrics.
func (c *Container) AutomationUseCase() (automationUseCase.AutomationUseCase, error) {
	return c.automation.useCase.get(func() (automationUseCase.AutomationUseCase, error) {
		txManager, err := c.TxManager()
		if err != nil {
			return nil, fmt.Errorf("failed to get tx manager for automation use case: %w", err)
		}
		workflowRepo, err := c.WorkflowRepository()
		if err != nil {
			return nil, err
		}
		engine, err := c.AutomationEngine()
		if err != nil {
			return nil, err
		}
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, err
		}

		useCase := automationUseCase.NewAutomationUseCase(txManager, workflowRepo, engine, c.Logger())
		return automationUseCase.NewAutomationUseCaseWithMetrics(useCase, businessMetrics), nil
	})
}

// AutomationHandler returns the workflow admin handler.
func (c *Container) AutomationHandler() (*automationHTTP.AutomationHandler, error) {
	return c.automation.handler.get(func() (*automationHTTP.AutomationHandler, error) {
		useCase, err := c.AutomationUseCase()
		if err != nil {
			return nil, err
		}
		return automationHTTP.NewAutomationHandler(useCase, c.Logger()), nil
	})
}
