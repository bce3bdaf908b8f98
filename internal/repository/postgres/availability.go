package postgres

import (
	"context"
	"database/sql"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"

	"github.com/lib/pq"
)

type availabilityRepository struct {
	db *sql.DB
}

func NewAvailabilityRepository(db *sql.DB) repository.AvailabilityRepository {
	return &availabilityRepository{db: db}
}

// Overlap predicate for half-open ranges: an existing reservation
// [start_date, end_date) overlaps the requested [rangeStart, rangeEnd) iff
// start_date < rangeEnd AND end_date > rangeStart. Touching boundaries do
// not overlap, so back-to-back rentals never contend.

// CommittedOrderUnits sums only shelf-held statuses. RENTED lines are not
// counted: the activation sweep already decremented available_quantity for
// them, so they are reflected in the ceiling, not the committed sum.
func (r *availabilityRepository) CommittedOrderUnits(ctx context.Context, equipmentID int32, startDate, endDate string) (int32, error) {
	var total int32
	query := `SELECT COALESCE(SUM(quantity), 0) FROM order_lines
	          WHERE equipment_id = $1
	            AND status = ANY($4)
	            AND start_date < $3 AND end_date > $2`
	err := q(ctx, r.db).QueryRowContext(ctx, query, equipmentID, startDate, endDate, pq.Array(statusStrings(domain.CommittedLineStatuses))).Scan(&total)
	return total, translateError(err)
}

func (r *availabilityRepository) CommittedCartUnits(ctx context.Context, equipmentID int32, startDate, endDate string, excludeCartID int32) (int32, error) {
	var total int32
	query := `SELECT COALESCE(SUM(quantity), 0) FROM cart_lines
	          WHERE equipment_id = $1
	            AND cart_id <> $4
	            AND start_date < $3 AND end_date > $2`
	err := q(ctx, r.db).QueryRowContext(ctx, query, equipmentID, startDate, endDate, excludeCartID).Scan(&total)
	return total, translateError(err)
}
