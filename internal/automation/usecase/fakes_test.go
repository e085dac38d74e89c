package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	automationDomain "github.com/cuenty/fulfillment/internal/automation/domain"
	inventoryDomain "github.com/cuenty/fulfillment/internal/inventory/domain"
	inventoryUseCase "github.com/cuenty/fulfillment/internal/inventory/usecase"
	notificationDomain "github.com/cuenty/fulfillment/internal/notification/domain"
	orderDomain "github.com/cuenty/fulfillment/internal/order/domain"
	taxDomain "github.com/cuenty/fulfillment/internal/tax/domain"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type memoryWorkflowRepository struct {
	mu         sync.Mutex
	workflows  []*automationDomain.Workflow
	logs       []*automationDomain.AutomationLog
	listErr    error
	createErr  error
	logErr     error
	statistics *automationDomain.Statistics
}

func (r *memoryWorkflowRepository) Create(_ context.Context, workflow *automationDomain.Workflow) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *workflow
	r.workflows = append(r.workflows, &stored)
	return nil
}

func (r *memoryWorkflowRepository) find(id uuid.UUID) *automationDomain.Workflow {
	for _, w := range r.workflows {
		if w.ID == id {
			return w
		}
	}
	return nil
}

func (r *memoryWorkflowRepository) GetByID(_ context.Context, id uuid.UUID) (*automationDomain.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.find(id)
	if w == nil {
		return nil, automationDomain.ErrWorkflowNotFound
	}
	copied := *w
	return &copied, nil
}

// ordered mirrors the repository order: priority descending, then insertion order.
func (r *memoryWorkflowRepository) ordered(keep func(*automationDomain.Workflow) bool) []*automationDomain.Workflow {
	var out []*automationDomain.Workflow
	for _, w := range r.workflows {
		if keep(w) {
			copied := *w
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

func (r *memoryWorkflowRepository) List(
	_ context.Context,
	filter automationDomain.ListFilter,
) ([]*automationDomain.Workflow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ordered(func(w *automationDomain.Workflow) bool {
		return filter.TriggerEvent == "" || w.TriggerEvent == filter.TriggerEvent
	}), nil
}

func (r *memoryWorkflowRepository) ListActiveByTrigger(
	_ context.Context,
	event string,
) ([]*automationDomain.Workflow, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ordered(func(w *automationDomain.Workflow) bool {
		return w.Active && w.TriggerEvent == event
	}), nil
}

func (r *memoryWorkflowRepository) UpdateActive(_ context.Context, workflow *automationDomain.Workflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.find(workflow.ID)
	if w == nil {
		return automationDomain.ErrWorkflowNotFound
	}
	w.Active = workflow.Active
	w.UpdatedAt = workflow.UpdatedAt
	return nil
}

func (r *memoryWorkflowRepository) IncrementExecution(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.find(id)
	if w == nil {
		return automationDomain.ErrWorkflowNotFound
	}
	w.ExecutionCount++
	w.LastExecutedAt = &at
	return nil
}

func (r *memoryWorkflowRepository) CreateLog(_ context.Context, log *automationDomain.AutomationLog) error {
	if r.logErr != nil {
		return r.logErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

func (r *memoryWorkflowRepository) ListLogs(
	_ context.Context,
	workflowID uuid.UUID,
	offset, limit int,
) ([]*automationDomain.AutomationLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*automationDomain.AutomationLog
	for i := len(r.logs) - 1; i >= 0; i-- {
		if r.logs[i].WorkflowID == workflowID {
			out = append(out, r.logs[i])
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryWorkflowRepository) Statistics(_ context.Context, _ int) (*automationDomain.Statistics, error) {
	return r.statistics, nil
}

func (r *memoryWorkflowRepository) executionCount(id uuid.UUID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(id).ExecutionCount
}

// memoryStore models the order coordinator and credential store over shared rows. An
// item slot is written once; a second claim for it fails like the unique constraint.
type memoryStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*orderDomain.Order
	pool   map[string][]*inventoryDomain.Credential
	claims int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		orders: map[uuid.UUID]*orderDomain.Order{},
		pool:   map[string][]*inventoryDomain.Credential{},
	}
}

func (s *memoryStore) addOrder(state orderDomain.State, items ...[2]string) *orderDomain.Order {
	order := &orderDomain.Order{
		ID:            uuid.Must(uuid.NewV7()),
		CustomerEmail: "ana@example.com",
		CustomerPhone: "+525512345678",
		RFC:           "XAXX010101000",
		State:         state,
		Total:         decimal.RequireFromString("199.00"),
		Currency:      "MXN",
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}
	for _, item := range items {
		order.Items = append(order.Items, &orderDomain.Item{
			ID:        uuid.Must(uuid.NewV7()),
			OrderID:   order.ID,
			ServiceID: item[0],
			PlanID:    item[1],
			UnitPrice: decimal.RequireFromString("199.00"),
			CreatedAt: testNow,
		})
	}
	s.mu.Lock()
	s.orders[order.ID] = order
	s.mu.Unlock()
	return order
}

func (s *memoryStore) stock(serviceID, planID string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := serviceID + "/" + planID
	for i := 0; i < n; i++ {
		s.pool[key] = append(s.pool[key], &inventoryDomain.Credential{
			ID:        uuid.Must(uuid.NewV7()),
			ServiceID: serviceID,
			PlanID:    planID,
			Username:  "user-" + uuid.NewString()[:8],
			State:     inventoryDomain.StateAvailable,
			CreatedAt: testNow,
		})
	}
}

func copyOrder(o *orderDomain.Order) *orderDomain.Order {
	copied := *o
	copied.Items = make([]*orderDomain.Item, len(o.Items))
	for i, item := range o.Items {
		it := *item
		copied.Items[i] = &it
	}
	return &copied
}

func (s *memoryStore) Get(_ context.Context, id uuid.UUID) (*orderDomain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, orderDomain.ErrOrderNotFound
	}
	return copyOrder(order), nil
}

func (s *memoryStore) Transition(_ context.Context, id uuid.UUID, event orderDomain.Event) (*orderDomain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, orderDomain.ErrOrderNotFound
	}
	if err := order.Apply(event, testNow); err != nil {
		return nil, err
	}
	return copyOrder(order), nil
}

func (s *memoryStore) ClaimAvailable(
	_ context.Context,
	serviceID, planID string,
	itemID uuid.UUID,
) (*inventoryDomain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var item *orderDomain.Item
	for _, order := range s.orders {
		for _, it := range order.Items {
			if it.ID == itemID {
				item = it
			}
		}
	}
	if item == nil {
		return nil, orderDomain.ErrOrderItemNotFound
	}

	key := serviceID + "/" + planID
	for _, credential := range s.pool[key] {
		if credential.State != inventoryDomain.StateAvailable {
			continue
		}
		if item.CredentialID != nil {
			return nil, orderDomain.ErrItemAlreadyAssigned
		}
		credential.State = inventoryDomain.StateAssigned
		credential.OrderItemID = &itemID
		item.CredentialID = &credential.ID
		s.claims++
		return credential, nil
	}
	return nil, inventoryDomain.ErrNoneAvailable
}

func (s *memoryStore) Reveal(_ context.Context, credentialID uuid.UUID) (*inventoryUseCase.Revealed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, credentials := range s.pool {
		for _, c := range credentials {
			if c.ID == credentialID {
				return &inventoryUseCase.Revealed{
					ServiceID: c.ServiceID,
					PlanID:    c.PlanID,
					Username:  c.Username,
					Password:  "s3cret",
				}, nil
			}
		}
	}
	return nil, inventoryDomain.ErrCredentialNotFound
}

type mockTaxService struct {
	mock.Mock
}

func (m *mockTaxService) ValidateRFC(ctx context.Context, orderID uuid.UUID, rfc string) (*taxDomain.Profile, error) {
	args := m.Called(ctx, orderID, rfc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*taxDomain.Profile), args.Error(1)
}

func (m *mockTaxService) ApplyTax(
	ctx context.Context,
	orderID uuid.UUID,
	total decimal.Decimal,
	currency string,
	rate decimal.Decimal,
) (*taxDomain.Entry, bool, error) {
	args := m.Called(ctx, orderID, total, currency, rate)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*taxDomain.Entry), args.Bool(1), args.Error(2)
}

type mockDeliverer struct {
	mock.Mock
}

func (m *mockDeliverer) Deliver(
	ctx context.Context,
	message notificationDomain.Message,
) (notificationDomain.DeliveryResult, error) {
	args := m.Called(ctx, message)
	return args.Get(0).(notificationDomain.DeliveryResult), args.Error(1)
}

// executorFunc adapts a function to ActionExecutor.
type executorFunc func(ctx context.Context, action automationDomain.Action, trigger Trigger) (map[string]any, error)

func (f executorFunc) Execute(
	ctx context.Context,
	action automationDomain.Action,
	trigger Trigger,
) (map[string]any, error) {
	return f(ctx, action, trigger)
}

func newWorkflow(name, event string, priority int, actions ...automationDomain.Action) *automationDomain.Workflow {
	return &automationDomain.Workflow{
		ID:                uuid.Must(uuid.NewV7()),
		Name:              name,
		TriggerEvent:      event,
		TriggerConditions: map[string]any{},
		Actions:           actions,
		Priority:          priority,
		Active:            true,
		CreatedAt:         testNow,
		UpdatedAt:         testNow,
	}
}

func orderPayload(order *orderDomain.Order) map[string]any {
	return map[string]any{
		"orderId":       order.ID.String(),
		"orderState":    string(order.State),
		"total":         order.Total.StringFixed(2),
		"currency":      order.Currency,
		"customerEmail": order.CustomerEmail,
		"customerPhone": order.CustomerPhone,
		"rfc":           order.RFC,
	}
}
