package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"

	"github.com/ginjaninja78/labor-ledger/internal/config"
	"github.com/ginjaninja78/labor-ledger/internal/types"
)

func TestWorkBatchCollapsesConflicts(t *testing.T) {
	recs := []types.WorkRecord{
		{Date: "2025-03-01", Site: "SiteA", Worker: "Kim", Hours: 1},
		{Date: "2025-03-01", Site: "SiteA", Worker: "Lee", Hours: 1},
		{Date: "2025-03-01", Site: "SiteA", Worker: "Kim", Hours: 0.5},
	}

	b := WorkBatch(recs)

	assert.Equal(t, TableWork, b.Table)
	assert.Equal(t, WorkConflictKeys, b.ConflictKeys)
	require.Equal(t, 2, b.Len)
	rows := b.Rows.([]WorkRow)
	assert.Equal(t, 0.5, rows[0].Hours)
	assert.Equal(t, "Lee", rows[1].Worker)
}

func TestExpenseBatch(t *testing.T) {
	recs := []types.ExpenseRecord{
		{Date: "2025-03-01", Site: "SiteA", Category: "자재", Amount: 12000, Vendor: "A"},
		{Date: "2025-03-01", Site: "SiteA", Category: "자재", Amount: 12000, Vendor: "B"},
		{Date: "2025-03-01", Site: "SiteA", Category: "자재", Amount: 9000},
	}

	b := ExpenseBatch(recs)

	assert.Equal(t, TableExpense, b.Table)
	require.Equal(t, 2, b.Len)
	assert.Equal(t, "B", b.Rows.([]ExpenseRow)[0].Vendor)
}

func TestSupabaseUpsert(t *testing.T) {
	var got struct {
		method, path, conflict, prefer, apikey, auth string
		rows                                         []map[string]any
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		got.conflict = r.URL.Query().Get("on_conflict")
		got.prefer = r.Header.Get("Prefer")
		got.apikey = r.Header.Get("apikey")
		got.auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got.rows)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c, err := NewSupabaseClient(srv.URL+"/", "secret")
	require.NoError(t, err)

	err = c.Upsert(context.Background(), WorkBatch([]types.WorkRecord{
		{Date: "2025-03-01", Site: "SiteA", Worker: "Kim", Hours: 1, GrossPay: 150000, Tax: 4950, NetPay: 145050},
	}))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/rest/v1/work_records", got.path)
	assert.Equal(t, "date,site,worker", got.conflict)
	assert.Contains(t, got.prefer, "resolution=merge-duplicates")
	assert.Equal(t, "secret", got.apikey)
	assert.Equal(t, "Bearer secret", got.auth)
	require.Len(t, got.rows, 1)
	assert.Equal(t, float64(145050), got.rows[0]["net_pay"])
}

func TestSupabaseErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := NewSupabaseClient(srv.URL, "bad")
	require.NoError(t, err)

	err = c.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "permission denied")
}

func TestSupabaseEmptyBatchSkipsRequest(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	c, err := NewSupabaseClient(srv.URL, "k")
	require.NoError(t, err)
	require.NoError(t, c.Upsert(context.Background(), ExpenseBatch(nil)))
	assert.Zero(t, calls)
}

func TestNewSupabaseClientRequiresCredentials(t *testing.T) {
	_, err := NewSupabaseClient("", "k")
	assert.Error(t, err)
	_, err = NewSupabaseClient("https://x.supabase.co", " ")
	assert.Error(t, err)
}

func TestDial(t *testing.T) {
	u, err := Dial(config.AdminConfig{})
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = Dial(config.AdminConfig{SupabaseURL: "https://x.supabase.co", SupabaseKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &SupabaseClient{}, u)
}

func TestSyncErrorUnwraps(t *testing.T) {
	cause := errors.New("timeout")
	err := error(&SyncError{Table: TableWork, Count: 3, Err: cause})
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "remote sync of 3 work_records failed: timeout", err.Error())
}

func TestMigratedKeysMatchConflictKeys(t *testing.T) {
	tests := []struct {
		model any
		table string
		keys  []string
	}{
		{&WorkRow{}, TableWork, WorkConflictKeys},
		{&ExpenseRow{}, TableExpense, ExpenseConflictKeys},
	}
	for _, tt := range tests {
		s, err := schema.Parse(tt.model, &sync.Map{}, schema.NamingStrategy{})
		require.NoError(t, err)
		assert.Equal(t, tt.table, s.Table)
		assert.ElementsMatch(t, tt.keys, s.PrimaryFieldDBNames)
	}
}
