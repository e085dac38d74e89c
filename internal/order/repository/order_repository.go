// Package repository implements order persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cuenty/fulfillment/internal/database"
	apperrors "github.com/cuenty/fulfillment/internal/errors"
	orderDomain "github.com/cuenty/fulfillment/internal/order/domain"
)

const orderColumns = `id, customer_email, customer_phone, rfc, state, total, currency,
	paid_at, delivered_at, cancelled_at, created_at, updated_at`

const itemColumns = `id, order_id, service_id, plan_id, unit_price, credential_id, assigned_at, created_at`

// OrderRepository persists orders and their items.
type OrderRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewPostgreSQLOrderRepository creates an OrderRepository for PostgreSQL.
func NewPostgreSQLOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db, dialect: database.PostgreSQL}
}

// NewMySQLOrderRepository creates an OrderRepository for MySQL.
func NewMySQLOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db, dialect: database.MySQL}
}

// Create inserts an order and its items.
func (r *OrderRepository) Create(ctx context.Context, order *orderDomain.Order) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`INSERT INTO orders (` + orderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := querier.ExecContext(ctx, query,
		order.ID, order.CustomerEmail, order.CustomerPhone, order.RFC, order.State,
		order.Total, order.Currency, order.PaidAt, order.DeliveredAt, order.CancelledAt,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create order")
	}

	itemQuery := r.dialect.Rebind(`INSERT INTO order_items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	for _, item := range order.Items {
		_, err := querier.ExecContext(ctx, itemQuery,
			item.ID, item.OrderID, item.ServiceID, item.PlanID, item.UnitPrice,
			item.CredentialID, item.AssignedAt, item.CreatedAt,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to create order item")
		}
	}

	return nil
}

// GetByID retrieves an order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate retrieves an order with its items and locks the order row until
// the surrounding transaction ends.
func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error) {
	return r.get(ctx, id, true)
}

func (r *OrderRepository) get(ctx context.Context, id uuid.UUID, forUpdate bool) (*orderDomain.Order, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	order, err := scanOrder(querier.QueryRowContext(ctx, r.dialect.Rebind(query), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, orderDomain.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get order")
	}

	items, err := r.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// ListItems returns the items of an order in creation order.
func (r *OrderRepository) ListItems(ctx context.Context, orderID uuid.UUID) ([]*orderDomain.Item, error) {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`SELECT ` + itemColumns + ` FROM order_items
		WHERE order_id = ? ORDER BY created_at ASC, id ASC`)

	rows, err := querier.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list order items")
	}
	defer rows.Close() //nolint:errcheck

	var items []*orderDomain.Item
	for rows.Next() {
		var item orderDomain.Item
		var credentialID uuid.NullUUID
		err := rows.Scan(&item.ID, &item.OrderID, &item.ServiceID, &item.PlanID, &item.UnitPrice,
			&credentialID, &item.AssignedAt, &item.CreatedAt)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan order item")
		}
		if credentialID.Valid {
			item.CredentialID = &credentialID.UUID
		}
		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate order items")
	}

	return items, nil
}

// UpdateState writes the order's state and lifecycle timestamps when the stored state
// still equals from. It returns ErrOrderStateChanged when another writer moved first.
func (r *OrderRepository) UpdateState(
	ctx context.Context,
	order *orderDomain.Order,
	from orderDomain.State,
) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`UPDATE orders
		SET state = ?, paid_at = ?, delivered_at = ?, cancelled_at = ?, updated_at = ?
		WHERE id = ? AND state = ?`)

	result, err := querier.ExecContext(ctx, query,
		order.State, order.PaidAt, order.DeliveredAt, order.CancelledAt, order.UpdatedAt,
		order.ID, from,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update order state")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return orderDomain.ErrOrderStateChanged
	}

	return nil
}

// AssignCredential links a credential to an item that has none yet. It returns
// ErrItemAlreadyAssigned when the item already holds a credential.
func (r *OrderRepository) AssignCredential(
	ctx context.Context,
	itemID uuid.UUID,
	credentialID uuid.UUID,
	assignedAt time.Time,
) error {
	querier := database.GetTx(ctx, r.db)

	query := r.dialect.Rebind(`UPDATE order_items
		SET credential_id = ?, assigned_at = ?
		WHERE id = ? AND credential_id IS NULL`)

	result, err := querier.ExecContext(ctx, query, credentialID, assignedAt, itemID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return orderDomain.ErrItemAlreadyAssigned
		}
		return apperrors.Wrap(err, "failed to assign credential")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return orderDomain.ErrItemAlreadyAssigned
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*orderDomain.Order, error) {
	var order orderDomain.Order
	err := row.Scan(
		&order.ID, &order.CustomerEmail, &order.CustomerPhone, &order.RFC, &order.State,
		&order.Total, &order.Currency, &order.PaidAt, &order.DeliveredAt, &order.CancelledAt,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}
