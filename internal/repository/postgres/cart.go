package postgres

import (
	"context"
	"database/sql"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"

	"github.com/google/uuid"
)

type cartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) repository.CartRepository {
	return &cartRepository{db: db}
}

const cartLineColumns = `id, cart_id, equipment_id, quantity, start_date, end_date, total_cost_cents, created_on, updated_on`

func (r *cartRepository) GetOrCreateByUser(ctx context.Context, userID int32) (*domain.Cart, error) {
	// Carts are created lazily, one per user. The upsert keeps concurrent
	// first-adds from racing each other into duplicate carts.
	query := `INSERT INTO carts (user_id, token, created_on, updated_on)
	          VALUES ($1, $2, NOW(), NOW())
	          ON CONFLICT (user_id) DO UPDATE SET updated_on = NOW()
	          RETURNING id, user_id, token, created_on, updated_on`
	return r.scanCart(q(ctx, r.db).QueryRowContext(ctx, query, userID, uuid.NewString()))
}

func (r *cartRepository) GetByToken(ctx context.Context, token string) (*domain.Cart, error) {
	query := `SELECT id, user_id, token, created_on, updated_on FROM carts WHERE token = $1`
	return r.scanCart(q(ctx, r.db).QueryRowContext(ctx, query, token))
}

func (r *cartRepository) CreateAnonymous(ctx context.Context, token string) (*domain.Cart, error) {
	if token == "" {
		token = uuid.NewString()
	}
	query := `INSERT INTO carts (user_id, token, created_on, updated_on)
	          VALUES (NULL, $1, NOW(), NOW())
	          RETURNING id, user_id, token, created_on, updated_on`
	return r.scanCart(q(ctx, r.db).QueryRowContext(ctx, query, token))
}

func (r *cartRepository) scanCart(row *sql.Row) (*domain.Cart, error) {
	cart := &domain.Cart{}
	var createdOn, updatedOn time.Time
	if err := row.Scan(&cart.ID, &cart.UserID, &cart.Token, &createdOn, &updatedOn); err != nil {
		return nil, translateError(err)
	}
	cart.CreatedOn = createdOn.Format("2006-01-02")
	cart.UpdatedOn = updatedOn.Format("2006-01-02")
	return cart, nil
}

func (r *cartRepository) Delete(ctx context.Context, cartID int32) error {
	_, err := q(ctx, r.db).ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, cartID)
	return translateError(err)
}

func (r *cartRepository) FindLine(ctx context.Context, cartID, equipmentID int32) (*domain.CartLine, error) {
	query := `SELECT ` + cartLineColumns + ` FROM cart_lines WHERE cart_id = $1 AND equipment_id = $2`
	return r.scanLine(q(ctx, r.db).QueryRowContext(ctx, query, cartID, equipmentID))
}

func (r *cartRepository) GetLine(ctx context.Context, lineID int32) (*domain.CartLine, error) {
	query := `SELECT ` + cartLineColumns + ` FROM cart_lines WHERE id = $1`
	return r.scanLine(q(ctx, r.db).QueryRowContext(ctx, query, lineID))
}

func (r *cartRepository) scanLine(row *sql.Row) (*domain.CartLine, error) {
	line := &domain.CartLine{}
	var start, end, createdOn, updatedOn time.Time
	err := row.Scan(&line.ID, &line.CartID, &line.EquipmentID, &line.Quantity, &start, &end, &line.TotalCostCents, &createdOn, &updatedOn)
	if err != nil {
		return nil, translateError(err)
	}
	line.StartDate = start.Format("2006-01-02")
	line.EndDate = end.Format("2006-01-02")
	line.CreatedOn = createdOn.Format("2006-01-02")
	line.UpdatedOn = updatedOn.Format("2006-01-02")
	return line, nil
}

func (r *cartRepository) ListLines(ctx context.Context, cartID int32) ([]domain.CartLine, error) {
	query := `SELECT ` + cartLineColumns + ` FROM cart_lines WHERE cart_id = $1 ORDER BY created_on`
	rows, err := q(ctx, r.db).QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		var start, end, createdOn, updatedOn time.Time
		if err := rows.Scan(&line.ID, &line.CartID, &line.EquipmentID, &line.Quantity, &start, &end, &line.TotalCostCents, &createdOn, &updatedOn); err != nil {
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

func (r *cartRepository) CreateLine(ctx context.Context, line *domain.CartLine) error {
	query := `INSERT INTO cart_lines (cart_id, equipment_id, quantity, start_date, end_date, total_cost_cents, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING id`
	err := q(ctx, r.db).QueryRowContext(ctx, query, line.CartID, line.EquipmentID, line.Quantity, line.StartDate, line.EndDate, line.TotalCostCents).Scan(&line.ID)
	return translateError(err)
}

func (r *cartRepository) UpdateLine(ctx context.Context, line *domain.CartLine) error {
	query := `UPDATE cart_lines SET quantity=$1, start_date=$2, end_date=$3, total_cost_cents=$4, updated_on=NOW() WHERE id=$5`
	res, err := q(ctx, r.db).ExecContext(ctx, query, line.Quantity, line.StartDate, line.EndDate, line.TotalCostCents, line.ID)
	if err != nil {
		return translateError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *cartRepository) DeleteLine(ctx context.Context, lineID int32) error {
	res, err := q(ctx, r.db).ExecContext(ctx, `DELETE FROM cart_lines WHERE id = $1`, lineID)
	if err != nil {
		return translateError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *cartRepository) DeleteLines(ctx context.Context, cartID int32) error {
	_, err := q(ctx, r.db).ExecContext(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID)
	return translateError(err)
}

func (r *cartRepository) ReplaceLines(ctx context.Context, destCartID, srcCartID int32) error {
	// Overwrite semantics: the destination cart's holds are dropped first so
	// the moved lines cannot collide with the one-line-per-equipment rule.
	if _, err := q(ctx, r.db).ExecContext(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, destCartID); err != nil {
		return translateError(err)
	}
	_, err := q(ctx, r.db).ExecContext(ctx, `UPDATE cart_lines SET cart_id = $1, updated_on = NOW() WHERE cart_id = $2`, destCartID, srcCartID)
	return translateError(err)
}
