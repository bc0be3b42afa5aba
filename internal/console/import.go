package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/labor-ledger/internal/analysis"
	"github.com/ginjaninja78/labor-ledger/internal/config"
	"github.com/ginjaninja78/labor-ledger/internal/pipeline"
	"github.com/ginjaninja78/labor-ledger/internal/remote"
	"github.com/ginjaninja78/labor-ledger/internal/types"
	"github.com/ginjaninja78/labor-ledger/internal/validation"
)

// =============================================================================
// KIND PLANS
// =============================================================================

// plan bundles everything kind-specific an import needs.
type plan[R any] struct {
	kind     types.Kind
	rules    validation.RuleSet
	analysis analysis.Config
	spec     pipeline.Spec[R]
	load     func(ctx context.Context) ([]R, error)
	persist  func(ctx context.Context, recs []R) error
	batch    func(recs []R) remote.Batch

	// partialNote explains what a partial duplicate means for this kind.
	partialNote string
}

func (c *Console) workPlan() plan[types.WorkRecord] {
	return plan[types.WorkRecord]{
		kind:        types.KindWork,
		rules:       pipeline.WorkRules(c.registry, c.workMapping),
		analysis:    pipeline.WorkAnalysis(c.registry, c.workMapping),
		spec:        pipeline.WorkSpec(c.registry, c.calc, c.workMapping, c.now()),
		load:        c.records.Work,
		persist:     c.records.AppendWork,
		batch:       remote.WorkBatch,
		partialNote: "same date, site and worker with different hours",
	}
}

func (c *Console) expensePlan() plan[types.ExpenseRecord] {
	return plan[types.ExpenseRecord]{
		kind:        types.KindExpense,
		rules:       pipeline.ExpenseRules(c.registry, c.expenseMapping),
		analysis:    pipeline.ExpenseAnalysis(c.registry, c.expenseMapping),
		spec:        pipeline.ExpenseSpec(c.registry, c.expenseMapping, c.now()),
		load:        c.records.Expenses,
		persist:     c.records.AppendExpenses,
		batch:       remote.ExpenseBatch,
		partialNote: "same site, date, worker, category, amount, vendor and address key with differing cells",
	}
}

// =============================================================================
// CHECK
// =============================================================================

// CheckReport is the read-only assessment of an upload.
type CheckReport struct {
	Kind       types.Kind         `json:"kind"`
	Removed    int                `json:"removed,omitempty"`
	Validation *validation.Result `json:"validation"`
	Analysis   *analysis.Result   `json:"analysis"`
}

// Check validates and analyzes rows without touching storage. With clean
// set, problem rows are removed first and counted in Removed.
func (c *Console) Check(kind types.Kind, rows []types.RawRow, clean bool) (*CheckReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		rules validation.RuleSet
		cfg   analysis.Config
	)
	switch kind {
	case types.KindWork:
		rules, cfg = pipeline.WorkRules(c.registry, c.workMapping), pipeline.WorkAnalysis(c.registry, c.workMapping)
	case types.KindExpense:
		rules, cfg = pipeline.ExpenseRules(c.registry, c.expenseMapping), pipeline.ExpenseAnalysis(c.registry, c.expenseMapping)
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}

	report := &CheckReport{Kind: kind}
	if clean {
		rows, report.Removed = validation.Clean(rows, rules)
	}
	report.Validation = validation.Validate(rows, rules)
	report.Analysis = analysis.Analyze(rows, cfg)
	return report, nil
}

// =============================================================================
// IMPORT
// =============================================================================

// ImportOptions control one import.
type ImportOptions struct {
	// Source names the upload in logs and error logs.
	Source string

	// Force imports even when validation reports errors.
	Force bool

	// Clean removes problem rows before validating.
	Clean bool

	// DryRun stops after reconciliation; nothing is persisted or synced.
	DryRun bool
}

// Report is the full outcome of one import.
type Report[R any] struct {
	Kind       types.Kind           `json:"kind"`
	Source     string               `json:"source,omitempty"`
	DryRun     bool                 `json:"dryRun,omitempty"`
	Removed    int                  `json:"removed,omitempty"`
	Validation *validation.Result   `json:"validation"`
	Analysis   *analysis.Result     `json:"analysis,omitempty"`
	Outcome    *pipeline.Outcome[R] `json:"reconciliation,omitempty"`
	Persisted  int                  `json:"persisted"`
	Synced     int                  `json:"synced"`
	SyncErr    error                `json:"-"`
	SyncError  string               `json:"syncError,omitempty"`
	ErrorLog   string               `json:"errorLog,omitempty"`
	Message    string               `json:"message,omitempty"`

	partialNote string
}

// ImportWork runs a daily labor upload through the whole pipeline.
func (c *Console) ImportWork(ctx context.Context, rows []types.RawRow, opts ImportOptions) (*Report[types.WorkRecord], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return runImport(ctx, c, rows, c.workPlan(), opts)
}

// ImportExpenses runs an expense upload through the whole pipeline.
func (c *Console) ImportExpenses(ctx context.Context, rows []types.RawRow, opts ImportOptions) (*Report[types.ExpenseRecord], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return runImport(ctx, c, rows, c.expensePlan(), opts)
}

// runImport executes one upload. Caller holds c.mu.
//
// PROCESSING STEPS:
//  1. Optionally clean problem rows
//  2. Validate; refuse on errors unless forced
//  3. Analyze in-upload duplicates and unmatched references
//  4. Reconcile against persisted records
//  5. Append accepted records to storage
//  6. Forward accepted records to the remote, if configured
func runImport[R any](ctx context.Context, c *Console, rows []types.RawRow, p plan[R], opts ImportOptions) (*Report[R], error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	report := &Report[R]{Kind: p.kind, Source: opts.Source, DryRun: opts.DryRun, partialNote: p.partialNote}
	log := c.logger.WithFields(logrus.Fields{"kind": p.kind, "source": opts.Source})

	// =========================================================================
	// STEP 1: CLEAN
	// =========================================================================

	if opts.Clean {
		rows, report.Removed = validation.Clean(rows, p.rules)
		log.WithField("removed", report.Removed).Debug("removed problem rows")
		if len(rows) == 0 {
			return report, ErrNoData
		}
	}

	// =========================================================================
	// STEP 2: VALIDATE
	// =========================================================================
	// Errors stop the import unless forced; warnings never do.

	report.Validation = validation.Validate(rows, p.rules)
	for _, w := range report.Validation.Warnings {
		log.Debug(w.Error())
	}
	if !report.Validation.IsValid {
		if !opts.Force {
			if c.files != nil {
				path, err := c.files.WriteErrorLog(string(p.kind), opts.Source, report.Validation.All())
				if err != nil {
					log.WithError(err).Warn("failed to write error log")
				}
				report.ErrorLog = path
			}
			log.WithField("errors", report.Validation.Summary.Errors).Warn("import refused by validation")
			return report, fmt.Errorf("%w: %d rows have errors", ErrValidationFailed, report.Validation.Summary.Errors)
		}
		log.WithField("errors", report.Validation.Summary.Errors).Warn("importing despite validation errors")
	}

	// =========================================================================
	// STEP 3: ANALYZE
	// =========================================================================

	report.Analysis = analysis.Analyze(rows, p.analysis)

	// =========================================================================
	// STEP 4: RECONCILE
	// =========================================================================

	persisted, err := p.load(ctx)
	if err != nil {
		config.LogError(c.logger, moduleName, "runImport", "failed to load persisted records", p.kind, err)
		return report, fmt.Errorf("failed to load %s records: %w", p.kind, err)
	}
	report.Outcome = pipeline.Reconcile(rows, persisted, p.spec)

	log.WithFields(logrus.Fields{
		"processed":      len(report.Outcome.Accepted),
		"duplicates":     len(report.Outcome.Duplicates),
		"unmatched":      len(report.Outcome.Unmatched),
		"filteredBySite": len(report.Outcome.FilteredBySite),
	}).Info("reconciled upload")

	report.Message = report.Summary()
	if opts.DryRun {
		return report, nil
	}

	// =========================================================================
	// STEP 5: PERSIST
	// =========================================================================

	if err := p.persist(ctx, report.Outcome.Accepted); err != nil {
		config.LogError(c.logger, moduleName, "runImport", "failed to persist records", p.kind, err)
		return report, fmt.Errorf("failed to save %s records: %w", p.kind, err)
	}
	report.Persisted = len(report.Outcome.Accepted)

	// =========================================================================
	// STEP 6: SYNC
	// =========================================================================
	// A remote failure is reported on the report; local data stays.

	if c.remote != nil && report.Persisted > 0 {
		n, err := c.upsert(ctx, p.batch(report.Outcome.Accepted))
		if err != nil {
			report.SyncErr = err
			report.SyncError = err.Error()
		}
		report.Synced = n
	}

	return report, nil
}

// upsert sends one batch and wraps a failure in a SyncError. Caller holds mu.
func (c *Console) upsert(ctx context.Context, b remote.Batch) (int, error) {
	if b.Len == 0 {
		return 0, nil
	}
	if err := c.remote.Upsert(ctx, b); err != nil {
		syncErr := &remote.SyncError{Table: b.Table, Count: b.Len, Err: err}
		config.LogError(c.logger, moduleName, "upsert", "remote sync failed", b.Table, syncErr)
		return 0, syncErr
	}
	c.logger.WithFields(logrus.Fields{"table": b.Table, "rows": b.Len}).Info("synced to remote")
	return b.Len, nil
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary renders the import outcome as one human-readable paragraph.
func (r *Report[R]) Summary() string {
	if r.Analysis == nil || r.Outcome == nil {
		return ""
	}
	a := r.Analysis
	var b strings.Builder

	fmt.Fprintf(&b, "Processed %d %s records.", len(r.Outcome.Accepted), r.Kind)

	if a.Summary.Duplicates > 0 {
		fmt.Fprintf(&b, " Found %d duplicate rows.", a.Summary.Duplicates)
		if n := len(a.Duplicates.Exact); n > 0 {
			fmt.Fprintf(&b, " %d are exact copies.", n)
		}
		if n := len(a.Duplicates.Partial); n > 0 {
			fmt.Fprintf(&b, " %d are partial duplicates (%s).", n, r.partialNote)
		}
	}

	if a.Summary.Unmatched > 0 {
		fmt.Fprintf(&b, " Found %d unmatched references.", a.Summary.Unmatched)
		if n := len(a.Unmatched.Workers); n > 0 {
			fmt.Fprintf(&b, " %d name an unregistered worker.", n)
		}
		if n := len(a.Unmatched.Sites); n > 0 {
			fmt.Fprintf(&b, " %d name an unregistered site.", n)
		}
	}

	if n := len(a.FilteredBySite); n > 0 {
		fmt.Fprintf(&b, " Found %d unregistered site names; their rows must be managed separately.", n)
	}

	if n := len(r.Outcome.Duplicates); n > 0 {
		fmt.Fprintf(&b, " Skipped %d rows already stored.", n)
	}

	fmt.Fprintf(&b, " Valid rows: %d.", a.Summary.Valid)
	return b.String()
}
