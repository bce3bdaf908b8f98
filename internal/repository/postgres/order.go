package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"

	"github.com/lib/pq"
)

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

const orderLineColumns = `id, order_id, equipment_id, quantity, start_date, end_date, hourly_rate_cents, total_cost_cents, status, created_on, updated_on`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `INSERT INTO orders (user_id, status, payment_status, total_cents, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, NOW(), NOW()) RETURNING id`
	err := q(ctx, r.db).QueryRowContext(ctx, query, order.UserID, order.Status, order.PaymentStatus, order.TotalCents).Scan(&order.ID)
	return translateError(err)
}

func (r *orderRepository) CreateLine(ctx context.Context, line *domain.OrderLine) error {
	query := `INSERT INTO order_lines (order_id, equipment_id, quantity, start_date, end_date, hourly_rate_cents, total_cost_cents, status, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()) RETURNING id`
	err := q(ctx, r.db).QueryRowContext(ctx, query, line.OrderID, line.EquipmentID, line.Quantity, line.StartDate, line.EndDate, line.HourlyRateCents, line.TotalCostCents, line.Status).Scan(&line.ID)
	return translateError(err)
}

func (r *orderRepository) GetByID(ctx context.Context, id int32) (*domain.Order, error) {
	order := &domain.Order{}
	var createdOn, updatedOn time.Time
	query := `SELECT id, user_id, status, payment_status, total_cents, created_on, updated_on FROM orders WHERE id = $1`
	err := q(ctx, r.db).QueryRowContext(ctx, query, id).Scan(&order.ID, &order.UserID, &order.Status, &order.PaymentStatus, &order.TotalCents, &createdOn, &updatedOn)
	if err != nil {
		return nil, translateError(err)
	}
	order.CreatedOn = createdOn.Format("2006-01-02")
	order.UpdatedOn = updatedOn.Format("2006-01-02")
	return order, nil
}

func (r *orderRepository) ListLines(ctx context.Context, orderID int32) ([]domain.OrderLine, error) {
	query := `SELECT ` + orderLineColumns + ` FROM order_lines WHERE order_id = $1 ORDER BY id`
	rows, err := q(ctx, r.db).QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var line domain.OrderLine
		var start, end, createdOn, updatedOn time.Time
		if err := rows.Scan(&line.ID, &line.OrderID, &line.EquipmentID, &line.Quantity, &start, &end, &line.HourlyRateCents, &line.TotalCostCents, &line.Status, &createdOn, &updatedOn); err != nil {
			return nil, translateError(err)
		}
		line.StartDate = start.Format("2006-01-02")
		line.EndDate = end.Format("2006-01-02")
		line.CreatedOn = createdOn.Format("2006-01-02")
		line.UpdatedOn = updatedOn.Format("2006-01-02")
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *orderRepository) ListByUser(ctx context.Context, userID int32, status string, page, pageSize int32) ([]domain.Order, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT id, user_id, status, payment_status, total_cents, created_on, updated_on FROM orders WHERE user_id = $1`

	args := []interface{}{userID}
	argIdx := 2
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}

	var count int32
	countQuery := "SELECT count(*) FROM (" + query + ") as sub"
	if err := q(ctx, r.db).QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, translateError(err)
	}

	query += fmt.Sprintf(" ORDER BY created_on DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rows, err := q(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, translateError(err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		var createdOn, updatedOn time.Time
		if err := rows.Scan(&order.ID, &order.UserID, &order.Status, &order.PaymentStatus, &order.TotalCents, &createdOn, &updatedOn); err != nil {
			return nil, 0, translateError(err)
		}
		order.CreatedOn = createdOn.Format("2006-01-02")
		order.UpdatedOn = updatedOn.Format("2006-01-02")
		orders = append(orders, order)
	}
	return orders, count, rows.Err()
}

func (r *orderRepository) SetPaymentStatus(ctx context.Context, orderID int32, status domain.PaymentStatus) error {
	res, err := q(ctx, r.db).ExecContext(ctx, `UPDATE orders SET payment_status = $1, updated_on = NOW() WHERE id = $2`, status, orderID)
	if err != nil {
		return translateError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *orderRepository) UpdateStatusIf(ctx context.Context, orderID int32, from []domain.OrderStatus, to domain.OrderStatus) (bool, error) {
	query := `UPDATE orders SET status = $1, updated_on = NOW() WHERE id = $2 AND status = ANY($3)`
	res, err := q(ctx, r.db).ExecContext(ctx, query, to, orderID, pq.Array(statusStrings(from)))
	if err != nil {
		return false, translateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, translateError(err)
	}
	return n > 0, nil
}

func (r *orderRepository) UpdateLineStatusIf(ctx context.Context, lineID int32, from, to domain.OrderStatus) (bool, error) {
	query := `UPDATE order_lines SET status = $1, updated_on = NOW() WHERE id = $2 AND status = $3`
	res, err := q(ctx, r.db).ExecContext(ctx, query, to, lineID, from)
	if err != nil {
		return false, translateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, translateError(err)
	}
	return n > 0, nil
}
