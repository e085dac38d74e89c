// Package repository implements workflow and automation log persistence for
// PostgreSQL and MySQL. Conditions, actions and results are stored as JSON documents.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	automationDomain "github.com/cuenty/fulfillment/internal/automation/domain"
	"github.com/cuenty/fulfillment/internal/database"
	apperrors "github.com/cuenty/fulfillment/internal/errors"
)

const workflowColumns = `id, name, trigger_event, trigger_conditions, actions, priority, active,
	execution_count, last_executed_at, created_at, updated_at`

// workflowOrder is the execution order of workflows: higher priority first, then
// insertion order.
const workflowOrder = `ORDER BY priority DESC, created_at ASC, id ASC`

// WorkflowRepository persists workflows and their automation logs.
type WorkflowRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewPostgreSQLWorkflowRepository creates a WorkflowRepository for PostgreSQL.
func NewPostgreSQLWorkflowRepository(db *sql.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db, dialect: database.PostgreSQL}
}

// NewMySQLWorkflowRepository creates a WorkflowRepository for MySQL.
func NewMySQLWorkflowRepository(db *sql.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db, dialect: database.MySQL}
}

// Create inserts a workflow.
func (r *WorkflowRepository) Create(ctx context.Context, workflow *automationDomain.Workflow) error {
	querier := database.GetTx(ctx, r.db)

	conditions, err := json.Marshal(workflow.TriggerConditions)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode trigger conditions")
	}
	actions, err := json.Marshal(workflow.Actions)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode actions")
	}

	query := r.dialect.Rebind(`INSERT INTO workflows (` + workflowColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = querier.ExecContext(ctx, query,
		workflow.ID, workflow.Name, workflow.TriggerEvent, string(conditions), string(actions),
		workflow.Priority, workflow.Active, workflow.ExecutionCount, workflow.LastExecutedAt,
		workflow.CreatedAt, workflow.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create workflow")
	}
	return nil
}

// GetByID retrieves a workflow.
func (r *WorkflowRepository) GetByID(ctx context.Context, id uuid.UUID) (*automationDomain.Workflow, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + workflowColumns + ` FROM workflows WHERE id = ?`)

	workflow, err := scanWorkflow(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, automationDomain.ErrWorkflowNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get workflow")
	}
	return workflow, nil
}

// List returns workflows in execution order, optionally restricted to one trigger event.
func (r *WorkflowRepository) List(
	ctx context.Context,
	filter automationDomain.ListFilter,
) ([]*automationDomain.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows`
	var args []any
	if filter.TriggerEvent != "" {
		query += ` WHERE trigger_event = ?`
		args = append(args, filter.TriggerEvent)
	}
	query += ` ` + workflowOrder + ` LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	return r.queryWorkflows(ctx, query, args...)
}

// ListActiveByTrigger returns the active workflows of event in execution order.
func (r *WorkflowRepository) ListActiveByTrigger(
	ctx context.Context,
	event string,
) ([]*automationDomain.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows
		WHERE trigger_event = ? AND active = ? ` + workflowOrder

	return r.queryWorkflows(ctx, query, event, true)
}

// UpdateActive writes the active flag of a workflow.
func (r *WorkflowRepository) UpdateActive(ctx context.Context, workflow *automationDomain.Workflow) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`UPDATE workflows SET active = ?, updated_at = ? WHERE id = ?`)

	result, err := querier.ExecContext(ctx, query, workflow.Active, workflow.UpdatedAt, workflow.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update workflow")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return automationDomain.ErrWorkflowNotFound
	}
	return nil
}

// IncrementExecution counts one completed run of a workflow. The increment happens in
// the database so concurrent runs are all counted.
func (r *WorkflowRepository) IncrementExecution(ctx context.Context, id uuid.UUID, at time.Time) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`UPDATE workflows
		SET execution_count = execution_count + 1, last_executed_at = ?
		WHERE id = ?`)

	if _, err := querier.ExecContext(ctx, query, at, id); err != nil {
		return apperrors.Wrap(err, "failed to increment workflow execution count")
	}
	return nil
}

// CreateLog appends an automation log.
func (r *WorkflowRepository) CreateLog(ctx context.Context, log *automationDomain.AutomationLog) error {
	querier := database.GetTx(ctx, r.db)

	triggerData, err := json.Marshal(log.TriggerData)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode trigger data")
	}
	actions, err := json.Marshal(log.ActionsExecuted)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode action results")
	}

	query := r.dialect.Rebind(`INSERT INTO automation_logs
		(id, workflow_id, trigger_event, trigger_data, actions_executed, outcome, error_message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err = querier.ExecContext(ctx, query,
		log.ID, log.WorkflowID, log.TriggerEvent, string(triggerData), string(actions),
		log.Outcome, log.ErrorMessage, log.DurationMs, log.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create automation log")
	}
	return nil
}

// ListLogs returns the logs of a workflow, newest first.
func (r *WorkflowRepository) ListLogs(
	ctx context.Context,
	workflowID uuid.UUID,
	offset, limit int,
) ([]*automationDomain.AutomationLog, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT id, workflow_id, trigger_event, trigger_data, actions_executed,
			outcome, error_message, duration_ms, created_at
		FROM automation_logs
		WHERE workflow_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`)

	rows, err := querier.QueryContext(ctx, query, workflowID, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list automation logs")
	}
	defer rows.Close() //nolint:errcheck

	var logs []*automationDomain.AutomationLog
	for rows.Next() {
		var log automationDomain.AutomationLog
		var triggerData, actions []byte
		err := rows.Scan(&log.ID, &log.WorkflowID, &log.TriggerEvent, &triggerData, &actions,
			&log.Outcome, &log.ErrorMessage, &log.DurationMs, &log.CreatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan automation log")
		}
		if err := json.Unmarshal(triggerData, &log.TriggerData); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode trigger data")
		}
		if err := json.Unmarshal(actions, &log.ActionsExecuted); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode action results")
		}
		logs = append(logs, &log)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate automation logs")
	}
	return logs, nil
}

// Statistics aggregates workflows and their logs. top bounds the most executed
// workflows returned.
func (r *WorkflowRepository) Statistics(ctx context.Context, top int) (*automationDomain.Statistics, error) {
	querier := database.GetTx(ctx, r.db)
	stats := &automationDomain.Statistics{}

	query := r.dialect.Rebind(`SELECT COUNT(*), COALESCE(SUM(CASE WHEN active = ? THEN 1 ELSE 0 END), 0)
		FROM workflows`)
	if err := querier.QueryRowContext(ctx, query, true).Scan(&stats.TotalWorkflows, &stats.ActiveWorkflows); err != nil {
		return nil, apperrors.Wrap(err, "failed to count workflows")
	}

	rows, err := querier.QueryContext(ctx, `SELECT outcome, COUNT(*), COALESCE(AVG(duration_ms), 0)
		FROM automation_logs
		GROUP BY outcome
		ORDER BY outcome ASC`)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to aggregate automation logs")
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var outcome automationDomain.OutcomeStatistics
		if err := rows.Scan(&outcome.Outcome, &outcome.Count, &outcome.AvgDurationMs); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan automation log aggregate")
		}
		stats.TotalExecutions += outcome.Count
		stats.ByOutcome = append(stats.ByOutcome, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate automation log aggregates")
	}

	query = r.dialect.Rebind(`SELECT id, name, trigger_event, execution_count, last_executed_at
		FROM workflows
		WHERE execution_count > 0
		ORDER BY execution_count DESC, id ASC
		LIMIT ?`)
	topRows, err := querier.QueryContext(ctx, query, top)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list top workflows")
	}
	defer topRows.Close() //nolint:errcheck

	for topRows.Next() {
		var workflow automationDomain.WorkflowStatistics
		err := topRows.Scan(&workflow.ID, &workflow.Name, &workflow.TriggerEvent,
			&workflow.ExecutionCount, &workflow.LastExecutedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan top workflow")
		}
		stats.TopWorkflows = append(stats.TopWorkflows, workflow)
	}
	if err := topRows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate top workflows")
	}

	return stats, nil
}

func (r *WorkflowRepository) queryWorkflows(
	ctx context.Context,
	query string,
	args ...any,
) ([]*automationDomain.Workflow, error) {
	querier := database.GetTx(ctx, r.db)

	rows, err := querier.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list workflows")
	}
	defer rows.Close() //nolint:errcheck

	var workflows []*automationDomain.Workflow
	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan workflow")
		}
		workflows = append(workflows, workflow)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate workflows")
	}
	return workflows, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row scanner) (*automationDomain.Workflow, error) {
	var workflow automationDomain.Workflow
	var conditions, actions []byte

	err := row.Scan(
		&workflow.ID, &workflow.Name, &workflow.TriggerEvent, &conditions, &actions,
		&workflow.Priority, &workflow.Active, &workflow.ExecutionCount, &workflow.LastExecutedAt,
		&workflow.CreatedAt, &workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(conditions, &workflow.TriggerConditions); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(actions, &workflow.Actions); err != nil {
		return nil, err
	}
	return &workflow, nil
}
