package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	automationDomain "github.com/cuenty/fulfillment/internal/automation/domain"
	orderDomain "github.com/cuenty/fulfillment/internal/order/domain"
)

const (
	actionFail automationDomain.ActionType = "test_fail"
	actionOK   automationDomain.ActionType = "test_ok"
	actionBoom automationDomain.ActionType = "test_panic"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func newTestEngine(
	repo *memoryWorkflowRepository,
	rec *recorder,
) Engine {
	executors := map[automationDomain.ActionType]ActionExecutor{
		actionFail: executorFunc(func(_ context.Context, a automationDomain.Action, _ Trigger) (map[string]any, error) {
			rec.record(a.StringParam("name", "fail"))
			return nil, errors.New("provider down")
		}),
		actionOK: executorFunc(func(_ context.Context, a automationDomain.Action, _ Trigger) (map[string]any, error) {
			rec.record(a.StringParam("name", "ok"))
			return map[string]any{"done": true}, nil
		}),
		actionBoom: executorFunc(func(_ context.Context, _ automationDomain.Action, _ Trigger) (map[string]any, error) {
			rec.record("panic")
			panic("nil map")
		}),
	}
	e := NewEngine(repo, executors, slog.New(slog.DiscardHandler)).(*engine)
	e.now = func() time.Time { return testNow }
	return e
}

func named(t automationDomain.ActionType, name string) automationDomain.Action {
	return automationDomain.Action{Type: t, Params: map[string]any{"name": name}}
}

func TestEngine_Fire(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_FailedActionDoesNotStopTheRest", func(t *testing.T) {
		repo := &memoryWorkflowRepository{}
		rec := &recorder{}
		workflow := newWorkflow("isolation", "payment.confirmed", 0,
			named(actionFail, "A"),
			named(actionOK, "B"),
		)
		require.NoError(t, repo.Create(ctx, workflow))

		logs, err := newTestEngine(repo, rec).Fire(ctx, "payment.confirmed", map[string]any{})

		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, []string{"A", "B"}, rec.calls)

		log := logs[0]
		assert.Equal(t, automationDomain.OutcomeFailed, log.Outcome)
		require.Len(t, log.ActionsExecuted, 2)
		assert.False(t, log.ActionsExecuted[0].Success)
		assert.Equal(t, "provider down", log.ActionsExecuted[0].Error)
		assert.True(t, log.ActionsExecuted[1].Success)
		assert.Equal(t, map[string]any{"done": true}, log.ActionsExecuted[1].Output)
		assert.Equal(t, "test_fail: provider down", log.ErrorMessage)

		assert.Equal(t, int64(1), repo.executionCount(workflow.ID))
		assert.Len(t, repo.logs, 1)
	})

	t.Run("Success_PanicIsRecordedAsFailure", func(t *testing.T) {
		repo := &memoryWorkflowRepository{}
		rec := &recorder{}
		workflow := newWorkflow("panics", "payment.confirmed", 0,
			automationDomain.Action{Type: actionBoom},
			named(actionOK, "after"),
		)
		require.NoError(t, repo.Create(ctx, workflow))

		logs, err := newTestEngine(repo, rec).Fire(ctx, "payment.confirmed", nil)

		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, []string{"panic", "after"}, rec.calls)
		assert.Equal(t, "panic: nil map", logs[0].ActionsExecuted[0].Error)
		assert.True(t, logs[0].ActionsExecuted[1].Success)
		assert.Equal(t, int64(1), repo.executionCount(workflow.ID))
	})

	t.Run("Success_UnknownActionTypeFails", func(t *testing.T) {
		repo := &memoryWorkflowRepository{}
		workflow := newWorkflow("unknown", "payment.confirmed", 0,
			automationDomain.Action{Type: "teleport"},
		)
		require.NoError(t, repo.Create(ctx, workflow))

		logs, err := newTestEngine(repo, &recorder{}).Fire(ctx, "payment.confirmed", nil)

		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, automationDomain.OutcomeFailed, logs[0].Outcome)
		assert.Equal(t, automationDomain.ErrNoExecutor.Error(), logs[0].ActionsExecuted[0].Error)
	})

	t.Run("Success_PriorityThenInsertionOrder", func(t *testing.T) {
		repo := &memoryWorkflowRepository{}
		rec := &recorder{}
		require.NoError(t, repo.Create(ctx, newWorkflow("low", "payment.confirmed", 1, named(actionOK, "low"))))
		require.NoError(t, repo.Create(ctx, newWorkflow("first", "payment.confirmed", 5, named(actionOK, "first"))))
		require.NoError(t, repo.Create(ctx, newWorkflow("second", "payment.confirmed", 5, named(actionOK, "second"))))
		require.NoError(t, repo.Create(ctx, newWorkflow("top", "payment.confirmed", 9, named(actionOK, "top"))))

		engine := newTestEngine(repo, rec)
		for i := 0; i < 3; i++ {
			rec.calls = nil
			_, err := engine.Fire(ctx, "payment.confirmed", nil)
			require.NoError(t, err)
			assert.Equal(t, []string{"top", "first", "second", "low"}, rec.calls)
		}
	})

	t.Run("Success_ConditionsFilterWorkflows", func(t *testing.T) {
		repo := &memoryWorkflowRepository{}
		rec := &recorder{}
		spei := newWorkflow("spei", "payment.confirmed", 0, named(actionOK, "spei"))
		spei.TriggerConditions = map[string]any{"paymentMethod": "spei"}
		codi := newWorkflow("codi", "payment.confirmed", 0, named(actionOK, "codi"))
		codi.TriggerConditions = map[string]any{"paymentMethod": "codi"}
		always := newWorkflow("always", "payment.confirmed", 0, named(actionOK, "always"))
		for _, w := range []*automationDomain.Workflow{spei, codi, always} {
			require.NoError(t, repo.Create(ctx, w))
		}

		logs, err := newTestEngine(repo, rec).Fire(ctx, "payment.confirmed", map[string]any{"paymentMethod": "codi"})

		require.NoError(t, err)
		assert.Len(t, logs, 2)
		assert.Equal(t, []string{"codi", "always"}, rec.calls)
		assert.Equal(t, int64(0), repo.executionCount(spei.ID))
	})

	t.Run("Success_InactiveAndOtherEventsSkipped", func(t *testing.T) {
		repo := &memoryWorkflowRepository{}
		rec := &recorder{}
		inactive := newWorkflow("inactive", "payment.confirmed", 0, named(actionOK, "inactive"))
		inactive.Active = false
		require.NoError(t, repo.Create(ctx, inactive))
		require.NoError(t, repo.Create(ctx, newWorkflow("other", "order.cancelled", 0, named(actionOK, "other"))))

		logs, err := newTestEngine(repo, rec).Fire(ctx, "payment.confirmed", nil)

		require.NoError(t, err)
		assert.Empty(t, logs)
		assert.Empty(t, rec.calls)
	})

	t.Run("Success_LogWriteFailureIsNotReturned", func(t *testing.T) {
		repo := &memoryWorkflowRepository{logErr: errors.New("disk full")}
		workflow := newWorkflow("ok", "payment.confirmed", 0, named(actionOK, "ok"))
		require.NoError(t, repo.Create(ctx, workflow))

		logs, err := newTestEngine(repo, &recorder{}).Fire(ctx, "payment.confirmed", nil)

		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, automationDomain.OutcomeSuccess, logs[0].Outcome)
		assert.Equal(t, int64(1), repo.executionCount(workflow.ID))
	})

	t.Run("Error_ListFails", func(t *testing.T) {
		repo := &memoryWorkflowRepository{listErr: errors.New("connection reset")}

		logs, err := newTestEngine(repo, &recorder{}).Fire(ctx, "payment.confirmed", nil)

		assert.Error(t, err)
		assert.Nil(t, logs)
	})
}

func TestEngine_AssignCredentialsNeverDoubleAssigns(t *testing.T) {
	ctx := context.Background()

	newEngine := func(repo *memoryWorkflowRepository, store *memoryStore) Engine {
		return NewEngine(
			repo,
			NewActionExecutors(store, store, &mockTaxService{}, &mockDeliverer{}, slog.New(slog.DiscardHandler)),
			slog.New(slog.DiscardHandler),
		)
	}
	assign := automationDomain.Action{Type: automationDomain.ActionAssignCredentials}

	t.Run("Success_EqualPriorityWorkflows", func(t *testing.T) {
		store := newMemoryStore()
		store.stock("netflix", "premium", 5)
		order := store.addOrder(orderDomain.StatePaid, [2]string{"netflix", "premium"}, [2]string{"netflix", "premium"})

		repo := &memoryWorkflowRepository{}
		first := newWorkflow("first", "payment.confirmed", 10, assign)
		second := newWorkflow("second", "payment.confirmed", 10, assign)
		require.NoError(t, repo.Create(ctx, first))
		require.NoError(t, repo.Create(ctx, second))

		logs, err := newEngine(repo, store).Fire(ctx, "payment.confirmed", orderPayload(order))

		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, first.ID, logs[0].WorkflowID)
		assert.Equal(t, 2, logs[0].ActionsExecuted[0].Output["assigned"])
		assert.Equal(t, 0, logs[1].ActionsExecuted[0].Output["assigned"])
		assert.Equal(t, 2, logs[1].ActionsExecuted[0].Output["skipped"])
		assert.Equal(t, 2, store.claims)

		stored, err := store.Get(ctx, order.ID)
		require.NoError(t, err)
		seen := map[string]bool{}
		for _, item := range stored.Items {
			require.NotNil(t, item.CredentialID)
			assert.False(t, seen[item.CredentialID.String()])
			seen[item.CredentialID.String()] = true
		}
	})

	t.Run("Success_ConcurrentFires", func(t *testing.T) {
		store := newMemoryStore()
		store.stock("spotify", "family", 10)
		order := store.addOrder(orderDomain.StatePaid,
			[2]string{"spotify", "family"},
			[2]string{"spotify", "family"},
			[2]string{"spotify", "family"},
		)

		repo := &memoryWorkflowRepository{}
		require.NoError(t, repo.Create(ctx, newWorkflow("assign", "payment.confirmed", 0, assign)))
		engine := newEngine(repo, store)

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = engine.Fire(ctx, "payment.confirmed", orderPayload(order))
			}()
		}
		wg.Wait()

		assert.Equal(t, 3, store.claims)
		stored, err := store.Get(ctx, order.ID)
		require.NoError(t, err)
		for _, item := range stored.Items {
			assert.NotNil(t, item.CredentialID)
		}
	})
}
