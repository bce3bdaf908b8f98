package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/repository"

	"github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.EquipmentRepository
	repository.CartRepository
	repository.OrderRepository
	repository.AvailabilityRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                     db,
		EquipmentRepository:    NewEquipmentRepository(db),
		CartRepository:         NewCartRepository(db),
		OrderRepository:        NewOrderRepository(db),
		AvailabilityRepository: NewAvailabilityRepository(db),
	}
}

type txKey struct{}

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// q returns the transaction carried by ctx when inside WithEquipmentLock,
// otherwise the plain connection pool.
func q(ctx context.Context, db *sql.DB) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// WithEquipmentLock runs fn inside a transaction that holds row locks on the
// given equipment ids, acquired in ascending id order so concurrent
// multi-equipment operations cannot deadlock each other. The transaction is
// committed on a nil return and rolled back on error or panic, so a
// half-written reservation can never survive an abandoned request. Locks on
// different equipment ids never contend.
func (s *Store) WithEquipmentLock(ctx context.Context, equipmentIDs []int32, fn func(ctx context.Context) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translateError(err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if len(equipmentIDs) > 0 {
		ids := append([]int32(nil), equipmentIDs...)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		rows, err := tx.QueryContext(ctx, `SELECT id FROM equipment WHERE id = ANY($1) ORDER BY id FOR UPDATE`, pq.Array(ids))
		if err != nil {
			tx.Rollback()
			return translateError(err)
		}
		rows.Close()
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return translateError(err)
	}
	return nil
}

// statusStrings converts a domain status set for use with pq.Array in
// `status = ANY($n)` predicates.
func statusStrings(statuses []domain.OrderStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// translateError maps driver errors onto the domain taxonomy. Serialization
// failures, deadlocks and unavailable locks all surface as
// ErrConcurrentModification so callers retry the whole operation.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case "40001", "40P01", "55P03":
			return domain.ErrConcurrentModification
		}
	}
	return err
}
