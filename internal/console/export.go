package console

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/labor-ledger/internal/analysis"
	"github.com/ginjaninja78/labor-ledger/internal/config"
	"github.com/ginjaninja78/labor-ledger/internal/pipeline"
	"github.com/ginjaninja78/labor-ledger/internal/types"
	"github.com/ginjaninja78/labor-ledger/pkg/utils"
)

// ErrExportDisabled is returned when the console was built without a
// FileManager.
var ErrExportDisabled = errors.New("exports are not configured")

// FullExport is the document written by ExportAll.
type FullExport struct {
	WorkRecords    []types.WorkRecord    `json:"workRecords"`
	ExpenseRecords []types.ExpenseRecord `json:"expenseRecords"`
	Workers        []types.Worker        `json:"workers"`
	Sites          []types.Site          `json:"sites"`
	ExportDate     time.Time             `json:"exportDate"`
}

// IssuesExport is the document written by ExportIssues.
type IssuesExport[R any] struct {
	Summary        analysis.Summary       `json:"summary"`
	Duplicates     analysis.Duplicates    `json:"duplicates"`
	Unmatched      analysis.Unmatched     `json:"unmatched"`
	FilteredBySite []analysis.FilteredSite `json:"filteredBySite"`
	Reconciliation *pipeline.Outcome[R]   `json:"reconciliation"`
	OriginalData   []types.RawRow         `json:"originalData"`
	ExportDate     time.Time              `json:"exportDate"`
}

// FullData collects every persisted record and both registries.
func (c *Console) FullData(ctx context.Context) (*FullExport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fullData(ctx)
}

func (c *Console) fullData(ctx context.Context) (*FullExport, error) {
	work, err := c.records.Work(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load work records: %w", err)
	}
	expenses, err := c.records.Expenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load expense records: %w", err)
	}
	return &FullExport{
		WorkRecords:    work,
		ExpenseRecords: expenses,
		Workers:        c.registry.Workers(),
		Sites:          c.registry.Sites(),
		ExportDate:     c.now(),
	}, nil
}

// ExportAll writes admin_console_data_<date>.json and returns its path.
func (c *Console) ExportAll(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.files == nil {
		return "", ErrExportDisabled
	}
	data, err := c.fullData(ctx)
	if err != nil {
		config.LogError(c.logger, moduleName, "ExportAll", "failed to collect data", nil, err)
		return "", err
	}
	path, err := c.files.WriteJSON(utils.FullExportPattern, "", data)
	if err != nil {
		config.LogError(c.logger, moduleName, "ExportAll", "failed to write export", nil, err)
		return "", err
	}
	c.logger.WithField("path", path).Info("exported all data")
	return path, nil
}

// ExportIssues analyzes and dry-run reconciles an upload, then writes every
// problem it finds to <kind>_issues_<date>.json.
func (c *Console) ExportIssues(ctx context.Context, kind types.Kind, rows []types.RawRow) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.files == nil {
		return "", ErrExportDisabled
	}
	if len(rows) == 0 {
		return "", ErrNoData
	}

	var (
		doc any
		err error
	)
	switch kind {
	case types.KindWork:
		doc, err = issues(ctx, c, rows, c.workPlan())
	case types.KindExpense:
		doc, err = issues(ctx, c, rows, c.expensePlan())
	default:
		return "", fmt.Errorf("unknown record kind %q", kind)
	}
	if err != nil {
		config.LogError(c.logger, moduleName, "ExportIssues", "failed to analyze upload", kind, err)
		return "", err
	}

	path, err := c.files.WriteJSON(utils.IssuesExportPattern, string(kind), doc)
	if err != nil {
		config.LogError(c.logger, moduleName, "ExportIssues", "failed to write export", kind, err)
		return "", err
	}
	c.logger.WithField("path", path).Info("exported issues")
	return path, nil
}

func issues[R any](ctx context.Context, c *Console, rows []types.RawRow, p plan[R]) (*IssuesExport[R], error) {
	persisted, err := p.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s records: %w", p.kind, err)
	}
	a := analysis.Analyze(rows, p.analysis)
	return &IssuesExport[R]{
		Summary:        a.Summary,
		Duplicates:     a.Duplicates,
		Unmatched:      a.Unmatched,
		FilteredBySite: a.FilteredBySite,
		Reconciliation: pipeline.Reconcile(rows, persisted, p.spec),
		OriginalData:   rows,
		ExportDate:     c.now(),
	}, nil
}

// ExportRecordsCSV writes the persisted records of one kind to
// <kind>_records_<date>.csv.
func (c *Console) ExportRecordsCSV(ctx context.Context, kind types.Kind) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.files == nil {
		return "", ErrExportDisabled
	}

	var (
		rows any
		n    int
	)
	switch kind {
	case types.KindWork:
		recs, err := c.records.Work(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to load work records: %w", err)
		}
		rows, n = &recs, len(recs)
	case types.KindExpense:
		recs, err := c.records.Expenses(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to load expense records: %w", err)
		}
		rows, n = &recs, len(recs)
	default:
		return "", fmt.Errorf("unknown record kind %q", kind)
	}
	if n == 0 {
		return "", ErrNoData
	}

	path, err := c.files.WriteCSV(utils.RecordsExportPattern, string(kind), rows)
	if err != nil {
		config.LogError(c.logger, moduleName, "ExportRecordsCSV", "failed to write export", kind, err)
		return "", err
	}
	c.logger.WithFields(logrus.Fields{"path": path, "records": n}).Info("exported records")
	return path, nil
}
