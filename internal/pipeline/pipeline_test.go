package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/labor-ledger/internal/analysis"
	"github.com/ginjaninja78/labor-ledger/internal/normalize"
	"github.com/ginjaninja78/labor-ledger/internal/types"
	"github.com/ginjaninja78/labor-ledger/internal/wage"
)

type fakeRegistry struct {
	workers map[string]types.Worker
	sites   map[string]bool
}

func (f fakeRegistry) FindWorker(name string) (types.Worker, bool) {
	w, ok := f.workers[name]
	return w, ok
}
func (f fakeRegistry) HasWorker(name string) bool { _, ok := f.workers[name]; return ok }
func (f fakeRegistry) HasSite(name string) bool   { return f.sites[name] }

func newFakeRegistry() fakeRegistry {
	return fakeRegistry{
		workers: map[string]types.Worker{"Kim": {Name: "Kim", DailyRate: 150000}},
		sites:   map[string]bool{"SiteA": true},
	}
}

var testNow = time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)

func workSpec() Spec[types.WorkRecord] {
	return WorkSpec(newFakeRegistry(), wage.NewCalculator(3.3), normalize.DefaultWorkMapping(), testNow)
}

func TestReconcileWorkAcceptsAndComputesWage(t *testing.T) {
	rows := []types.RawRow{{"worker": "Kim", "site": "SiteA", "date": "2025-03-01", "hours": float64(1)}}

	out := Reconcile(rows, nil, workSpec())

	require.Len(t, out.Accepted, 1)
	rec := out.Accepted[0]
	assert.Equal(t, "2025-03-01", rec.Date)
	assert.Equal(t, int64(150000), rec.GrossPay)
	assert.Equal(t, int64(4950), rec.Tax)
	assert.Equal(t, int64(145050), rec.NetPay)
	assert.Equal(t, testNow, rec.CreatedAt)
	assert.Zero(t, out.Rejected())
}

func TestReconcileUnregisteredSiteOnlyFiltered(t *testing.T) {
	rows := []types.RawRow{{"worker": "Nobody", "site": "SiteB", "date": "2025-03-01", "hours": float64(1)}}
	persisted := []types.WorkRecord{{Date: "2025-03-01", Site: "SiteB", Worker: "Nobody"}}

	out := Reconcile(rows, persisted, workSpec())

	assert.Empty(t, out.Accepted)
	assert.Empty(t, out.Duplicates)
	assert.Empty(t, out.Unmatched)
	require.Len(t, out.FilteredBySite, 1)
	assert.Equal(t, SiteRejection{Row: 2, Site: "SiteB", Reason: UnregisteredSiteReason}, out.FilteredBySite[0])
}

func TestReconcileIsIdempotentAgainstPersisted(t *testing.T) {
	rows := []types.RawRow{
		{"worker": "Kim", "site": "SiteA", "date": "2025-03-01", "hours": float64(1)},
		{"worker": "Kim", "site": "SiteA", "date": "2025-03-02", "hours": float64(0.5)},
	}

	first := Reconcile(rows, nil, workSpec())
	require.Len(t, first.Accepted, 2)

	second := Reconcile(rows, first.Accepted, workSpec())
	assert.Empty(t, second.Accepted)
	require.Len(t, second.Duplicates, 2)
	assert.Equal(t, 3, second.Duplicates[1].Row)
	assert.Equal(t, first.Accepted[1], second.Duplicates[1].Existing)
}

func TestReconcileInUploadDuplicatesBothAccepted(t *testing.T) {
	row := types.RawRow{"worker": "Kim", "site": "SiteA", "date": "2025-03-01", "hours": float64(1)}
	out := Reconcile([]types.RawRow{row, row}, nil, workSpec())
	assert.Len(t, out.Accepted, 2)
}

func TestReconcileUnknownWorkerUnmatched(t *testing.T) {
	rows := []types.RawRow{
		{"worker": "Park", "site": "SiteA", "date": "2025-03-01", "hours": float64(1)},
		{"site": "SiteA", "date": "2025-03-01", "hours": float64(1)},
	}
	out := Reconcile(rows, nil, workSpec())

	assert.Empty(t, out.Accepted)
	require.Len(t, out.Unmatched, 2)
	assert.Equal(t, []string{"worker"}, out.Unmatched[0].Fields)
	assert.Equal(t, "Park", out.Unmatched[0].Record.Worker)
	assert.Zero(t, out.Unmatched[0].Record.GrossPay)
}

func TestWorkAnalysisPartialDuplicate(t *testing.T) {
	rows := []types.RawRow{
		{"작업자": "Kim", "현장": "SiteA", "일자": "2025-03-01", "공수": float64(1)},
		{"작업자": "Kim", "현장": "SiteA", "날짜": float64(45717), "공수": float64(0.5)},
		{"작업자": "Kim", "현장": "SiteA", "일자": "2025/03/01", "공수": "1"},
	}
	res := analysis.Analyze(rows, WorkAnalysis(newFakeRegistry(), normalize.DefaultWorkMapping()))

	require.Len(t, res.Duplicates.Partial, 1)
	assert.Equal(t, 3, res.Duplicates.Partial[0].Row)
	assert.Equal(t, "hours differ: 1 vs 0.5", res.Duplicates.Partial[0].Difference)
	require.Len(t, res.Duplicates.Exact, 1)
	assert.Equal(t, 4, res.Duplicates.Exact[0].Row)
	assert.Equal(t, 2, res.Summary.Duplicates)
	assert.Equal(t, 1, res.Summary.Valid)
}

func TestExpensePipeline(t *testing.T) {
	reg := newFakeRegistry()
	m := normalize.DefaultExpenseMapping()
	rows := []types.RawRow{
		{"현장": "SiteA", "사용일": "2025-03-01", "항목": "자재", "금액": "12000", "사용처": "Hardware"},
		{"현장": "SiteA", "사용일": float64(45717), "항목": "자재", "금액": float64(12000), "사용처": "Hardware"},
		{"현장": "SiteZ", "사용일": "2025-03-01", "항목": "식대", "금액": "9000"},
	}

	res := analysis.Analyze(rows, ExpenseAnalysis(reg, m))
	require.Len(t, res.Duplicates.Partial, 1)
	assert.Contains(t, res.Duplicates.Partial[0].Difference, "date")
	assert.NotContains(t, res.Duplicates.Partial[0].Difference, "amount")
	require.Len(t, res.FilteredBySite, 1)
	assert.Equal(t, "SiteZ", res.FilteredBySite[0].Site)

	out := Reconcile(rows, nil, ExpenseSpec(reg, m, testNow))
	assert.Len(t, out.Accepted, 2)
	assert.Len(t, out.FilteredBySite, 1)

	again := Reconcile(rows[:1], out.Accepted, ExpenseSpec(reg, m, testNow))
	assert.Empty(t, again.Accepted)
	assert.Len(t, again.Duplicates, 1)
}

func TestRulesCoverKinds(t *testing.T) {
	reg := newFakeRegistry()
	wr := WorkRules(reg, normalize.DefaultWorkMapping())
	assert.Contains(t, wr.RequiredFields, normalize.FieldWorker)
	assert.Len(t, wr.EntityValidations, 2)

	er := ExpenseRules(reg, normalize.DefaultExpenseMapping())
	assert.Equal(t, []string{normalize.FieldAmount}, er.NumericFields)
	assert.Len(t, er.EntityValidations, 1)
}
