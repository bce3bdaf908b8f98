package jobs

import (
	"context"
	"time"

	"equiprent-backend/internal/logger"
)

// Every sweep is a status-guarded conditional update: it only acts on rows
// still in the expected prior state, so running the same sweep twice for the
// same day cannot double-reject a line or double-adjust inventory.

// SweepExpiredPendingOrders rejects pending order lines whose start date has
// passed without approval, freeing their committed units.
func (jr *JobRunner) SweepExpiredPendingOrders() {
	jr.runWithRecovery("SweepExpiredPendingOrders", func() {
		ctx := context.Background()
		today := time.Now().Format("2006-01-02")

		query := `
			UPDATE order_lines
			SET status = 'REJECTED',
			    updated_on = NOW()
			WHERE status = 'PENDING'
			  AND start_date < $1
			RETURNING id, order_id, equipment_id, quantity
		`
		rows, err := jr.db.QueryContext(ctx, query, today)
		if err != nil {
			logger.Error("Failed to reject expired pending lines", "error", err)
			return
		}
		defer rows.Close()

		count := 0
		for rows.Next() {
			var lineID, orderID, equipmentID, quantity int32
			if err := rows.Scan(&lineID, &orderID, &equipmentID, &quantity); err != nil {
				logger.Error("Failed to scan expired line", "error", err)
				continue
			}
			count++
			logger.Debug("Rejected expired pending line",
				"line_id", lineID,
				"order_id", orderID,
				"equipment_id", equipmentID,
				"quantity", quantity)
		}
		if err := rows.Err(); err != nil {
			logger.Error("Error iterating expired lines", "error", err)
			return
		}

		// Roll up: an order with no line left outside a terminal state is
		// itself rejected.
		rollup := `
			UPDATE orders o
			SET status = 'REJECTED',
			    updated_on = NOW()
			WHERE o.status = 'PENDING'
			  AND NOT EXISTS (
			      SELECT 1 FROM order_lines ol
			      WHERE ol.order_id = o.id
			        AND ol.status NOT IN ('REJECTED','CANCELLED')
			  )
		`
		if _, err := jr.db.ExecContext(ctx, rollup); err != nil {
			logger.Error("Failed to roll up rejected orders", "error", err)
			return
		}

		logger.Info("Rejected expired pending lines", "count", count)
	})
}

// SweepActivateRentalsStartingToday moves approved lines entering their
// rental window to RENTED and permanently decrements the equipment's
// physical quantity: the unit has left the shelf. Flip and decrement run in
// one transaction; a line must never end up RENTED with its units still
// counted on the shelf, since a rerun would not repeat the decrement for an
// already-flipped line.
func (jr *JobRunner) SweepActivateRentalsStartingToday() {
	jr.runWithRecovery("SweepActivateRentalsStartingToday", func() {
		ctx := context.Background()
		today := time.Now().Format("2006-01-02")

		tx, err := jr.db.BeginTx(ctx, nil)
		if err != nil {
			logger.Error("Failed to begin activation transaction", "error", err)
			return
		}
		defer tx.Rollback()

		query := `
			UPDATE order_lines
			SET status = 'RENTED',
			    updated_on = NOW()
			WHERE status = 'APPROVED'
			  AND start_date <= $1
			  AND end_date > $1
			RETURNING id, order_id, equipment_id, quantity
		`
		rows, err := tx.QueryContext(ctx, query, today)
		if err != nil {
			logger.Error("Failed to activate rentals", "error", err)
			return
		}

		type activated struct {
			LineID      int32
			OrderID     int32
			EquipmentID int32
			Quantity    int32
		}
		var lines []activated
		for rows.Next() {
			var a activated
			if err := rows.Scan(&a.LineID, &a.OrderID, &a.EquipmentID, &a.Quantity); err != nil {
				rows.Close()
				logger.Error("Failed to scan activated line", "error", err)
				return
			}
			lines = append(lines, a)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			logger.Error("Error iterating activated lines", "error", err)
			return
		}
		rows.Close()

		for _, a := range lines {
			_, err := tx.ExecContext(ctx,
				`UPDATE equipment SET available_quantity = GREATEST(available_quantity - $1, 0), updated_on = NOW() WHERE id = $2`,
				a.Quantity, a.EquipmentID)
			if err != nil {
				logger.Error("Failed to decrement equipment quantity",
					"equipment_id", a.EquipmentID, "quantity", a.Quantity, "error", err)
				return
			}
			logger.Debug("Activated rental line",
				"line_id", a.LineID,
				"order_id", a.OrderID,
				"equipment_id", a.EquipmentID,
				"quantity", a.Quantity)
		}

		rollup := `
			UPDATE orders o
			SET status = 'RENTED',
			    updated_on = NOW()
			WHERE o.status = 'APPROVED'
			  AND EXISTS (
			      SELECT 1 FROM order_lines ol
			      WHERE ol.order_id = o.id AND ol.status = 'RENTED'
			  )
		`
		if _, err := tx.ExecContext(ctx, rollup); err != nil {
			logger.Error("Failed to roll up rented orders", "error", err)
			return
		}

		if err := tx.Commit(); err != nil {
			logger.Error("Failed to commit rental activation", "error", err)
			return
		}
		logger.Info("Activated rentals starting today", "count", len(lines))
	})
}

// SweepRestoreReturnedInventory completes returned lines and adds their
// units back to the equipment's physical quantity, closing the loop opened
// by the activation sweep. Flip and increment run in one transaction for the
// same reason activation does: a COMPLETED line is invisible to reruns, so
// its increment must land in the same commit.
func (jr *JobRunner) SweepRestoreReturnedInventory() {
	jr.runWithRecovery("SweepRestoreReturnedInventory", func() {
		ctx := context.Background()

		tx, err := jr.db.BeginTx(ctx, nil)
		if err != nil {
			logger.Error("Failed to begin restore transaction", "error", err)
			return
		}
		defer tx.Rollback()

		query := `
			UPDATE order_lines
			SET status = 'COMPLETED',
			    updated_on = NOW()
			WHERE status = 'RETURNED'
			RETURNING id, order_id, equipment_id, quantity
		`
		rows, err := tx.QueryContext(ctx, query)
		if err != nil {
			logger.Error("Failed to complete returned lines", "error", err)
			return
		}

		type restored struct {
			LineID      int32
			OrderID     int32
			EquipmentID int32
			Quantity    int32
		}
		var lines []restored
		for rows.Next() {
			var r restored
			if err := rows.Scan(&r.LineID, &r.OrderID, &r.EquipmentID, &r.Quantity); err != nil {
				rows.Close()
				logger.Error("Failed to scan returned line", "error", err)
				return
			}
			lines = append(lines, r)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			logger.Error("Error iterating returned lines", "error", err)
			return
		}
		rows.Close()

		for _, r := range lines {
			_, err := tx.ExecContext(ctx,
				`UPDATE equipment SET available_quantity = available_quantity + $1, updated_on = NOW() WHERE id = $2`,
				r.Quantity, r.EquipmentID)
			if err != nil {
				logger.Error("Failed to restore equipment quantity",
					"equipment_id", r.EquipmentID, "quantity", r.Quantity, "error", err)
				return
			}
			logger.Debug("Restored returned line",
				"line_id", r.LineID,
				"order_id", r.OrderID,
				"equipment_id", r.EquipmentID,
				"quantity", r.Quantity)
		}

		rollup := `
			UPDATE orders o
			SET status = 'COMPLETED',
			    updated_on = NOW()
			WHERE o.status = 'RETURNED'
			  AND NOT EXISTS (
			      SELECT 1 FROM order_lines ol
			      WHERE ol.order_id = o.id
			        AND ol.status NOT IN ('COMPLETED','REJECTED','CANCELLED')
			  )
		`
		if _, err := tx.ExecContext(ctx, rollup); err != nil {
			logger.Error("Failed to roll up completed orders", "error", err)
			return
		}

		if err := tx.Commit(); err != nil {
			logger.Error("Failed to commit inventory restore", "error", err)
			return
		}
		logger.Info("Restored returned inventory", "count", len(lines))
	})
}

// SweepPurgeStaleCartLines drops soft holds that have not been touched
// within the configured window, so abandoned carts stop counting against
// availability.
func (jr *JobRunner) SweepPurgeStaleCartLines() {
	jr.runWithRecovery("SweepPurgeStaleCartLines", func() {
		ctx := context.Background()
		cutoff := time.Now().Add(-time.Duration(jr.config.Booking.CartHoldHours) * time.Hour)

		res, err := jr.db.ExecContext(ctx, `DELETE FROM cart_lines WHERE updated_on < $1`, cutoff)
		if err != nil {
			logger.Error("Failed to purge stale cart lines", "error", err)
			return
		}
		count, _ := res.RowsAffected()
		logger.Info("Purged stale cart lines", "count", count, "cutoff", cutoff.Format("2006-01-02"))
	})
}
