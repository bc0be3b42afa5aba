package storage

import (
	"context"

	"github.com/ginjaninja78/labor-ledger/internal/types"
)

// Records reads and appends the persisted work and expense collections.
type Records struct {
	store Store
}

// NewRecords wraps a store.
func NewRecords(s Store) *Records {
	return &Records{store: s}
}

// Work returns every persisted work record.
func (r *Records) Work(ctx context.Context) ([]types.WorkRecord, error) {
	return LoadList[types.WorkRecord](ctx, r.store, KeyWorkData)
}

// AppendWork adds records to the persisted work collection.
func (r *Records) AppendWork(ctx context.Context, recs []types.WorkRecord) error {
	return appendList(ctx, r.store, KeyWorkData, recs)
}

// Expenses returns every persisted expense record.
func (r *Records) Expenses(ctx context.Context) ([]types.ExpenseRecord, error) {
	return LoadList[types.ExpenseRecord](ctx, r.store, KeyExpenseData)
}

// AppendExpenses adds records to the persisted expense collection.
func (r *Records) AppendExpenses(ctx context.Context, recs []types.ExpenseRecord) error {
	return appendList(ctx, r.store, KeyExpenseData, recs)
}

func appendList[T any](ctx context.Context, s Store, key string, recs []T) error {
	if len(recs) == 0 {
		return nil
	}
	existing, err := LoadList[T](ctx, s, key)
	if err != nil {
		return err
	}
	return SaveJSON(ctx, s, key, append(existing, recs...))
}
