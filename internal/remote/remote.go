// =============================================================================
// Labor Ledger - Remote Persistence
// =============================================================================
//
// Best-effort forwarding of accepted records to a hosted Postgres. Local
// storage is always written first; a remote failure is reported to the
// caller as a SyncError and never rolls anything back.
//
// TABLES AND CONFLICT KEYS:
//   work_records     : date, site, worker
//   expense_records  : date, site, category, amount
//
// BACKENDS:
//   SupabaseClient   : PostgREST upsert over HTTPS (supabaseUrl + supabaseKey)
//   GormUpserter     : direct Postgres via gorm (databaseUrl)
//
// =============================================================================

package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/ginjaninja78/labor-ledger/internal/config"
	"github.com/ginjaninja78/labor-ledger/internal/types"
)

// Table names.
const (
	TableWork    = "work_records"
	TableExpense = "expense_records"
)

// Conflict keys per table.
var (
	WorkConflictKeys    = []string{"date", "site", "worker"}
	ExpenseConflictKeys = []string{"date", "site", "category", "amount"}
)

// Batch is one upsert call.
type Batch struct {
	Table        string
	ConflictKeys []string
	// Rows is a slice of WorkRow or ExpenseRow.
	Rows any
	// Len is the number of rows.
	Len int
}

// Upserter writes batches to a remote store.
type Upserter interface {
	Upsert(ctx context.Context, b Batch) error
	Ping(ctx context.Context) error
	Close() error
}

// SyncError wraps a failed remote upsert.
type SyncError struct {
	Table string
	Count int
	Err   error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("remote sync of %d %s failed: %v", e.Count, e.Table, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// =============================================================================
// ROW SHAPES
// =============================================================================

// WorkRow is the remote column layout of a work record.
type WorkRow struct {
	Date      string    `json:"date" gorm:"column:date;primaryKey"`
	Site      string    `json:"site" gorm:"column:site;primaryKey"`
	Worker    string    `json:"worker" gorm:"column:worker;primaryKey"`
	Hours     float64   `json:"hours" gorm:"column:hours"`
	Memo      string    `json:"memo" gorm:"column:memo"`
	GrossPay  int64     `json:"gross_pay" gorm:"column:gross_pay"`
	Tax       int64     `json:"tax" gorm:"column:tax"`
	NetPay    int64     `json:"net_pay" gorm:"column:net_pay"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}

// TableName binds the gorm model to TableWork.
func (WorkRow) TableName() string { return TableWork }

// ExpenseRow is the remote column layout of an expense record.
type ExpenseRow struct {
	Date      string    `json:"date" gorm:"column:date;primaryKey"`
	Site      string    `json:"site" gorm:"column:site;primaryKey"`
	Worker    string    `json:"worker" gorm:"column:worker"`
	Category  string    `json:"category" gorm:"column:category;primaryKey"`
	Amount    float64   `json:"amount" gorm:"column:amount;primaryKey"`
	Vendor    string    `json:"vendor" gorm:"column:vendor"`
	Address   string    `json:"address" gorm:"column:address"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}

// TableName binds the gorm model to TableExpense.
func (ExpenseRow) TableName() string { return TableExpense }

// WorkBatch builds the upsert for work records. Rows that collide on the
// conflict key are collapsed, last one wins, since Postgres rejects an upsert
// touching the same row twice.
func WorkBatch(recs []types.WorkRecord) Batch {
	rows := make([]WorkRow, 0, len(recs))
	index := make(map[string]int, len(recs))
	for _, r := range recs {
		row := WorkRow{
			Date: r.Date, Site: r.Site, Worker: r.Worker, Hours: r.Hours, Memo: r.Memo,
			GrossPay: r.GrossPay, Tax: r.Tax, NetPay: r.NetPay, CreatedAt: r.CreatedAt,
		}
		k := r.Date + "|" + r.Site + "|" + r.Worker
		if i, ok := index[k]; ok {
			rows[i] = row
			continue
		}
		index[k] = len(rows)
		rows = append(rows, row)
	}
	return Batch{Table: TableWork, ConflictKeys: WorkConflictKeys, Rows: rows, Len: len(rows)}
}

// ExpenseBatch builds the upsert for expense records, collapsing conflict-key
// collisions like WorkBatch.
func ExpenseBatch(recs []types.ExpenseRecord) Batch {
	rows := make([]ExpenseRow, 0, len(recs))
	index := make(map[string]int, len(recs))
	for _, r := range recs {
		row := ExpenseRow{
			Date: r.Date, Site: r.Site, Worker: r.Worker, Category: r.Category,
			Amount: r.Amount, Vendor: r.Vendor, Address: r.Address, CreatedAt: r.CreatedAt,
		}
		k := fmt.Sprintf("%s|%s|%s|%v", r.Date, r.Site, r.Category, r.Amount)
		if i, ok := index[k]; ok {
			rows[i] = row
			continue
		}
		index[k] = len(rows)
		rows = append(rows, row)
	}
	return Batch{Table: TableExpense, ConflictKeys: ExpenseConflictKeys, Rows: rows, Len: len(rows)}
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

// Dialer builds an Upserter from the admin configuration.
type Dialer func(cfg config.AdminConfig) (Upserter, error)

// Dial picks the backend: databaseUrl wins over the Supabase pair. It returns
// nil, nil when nothing is configured.
func Dial(cfg config.AdminConfig) (Upserter, error) {
	switch {
	case cfg.DatabaseURL != "":
		return NewGormUpserter(cfg.DatabaseURL)
	case cfg.SupabaseURL != "" && cfg.SupabaseKey != "":
		return NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseKey)
	}
	return nil, nil
}
