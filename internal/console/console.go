// =============================================================================
// Labor Ledger - Console
// =============================================================================
//
// The console is the application state of the bookkeeping tool: it owns the
// durable store, the reference registry, the admin configuration and the
// remote collaborator, and exposes every operation the CLI and the HTTP
// surface offer.
//
// OPERATIONS:
//   Check / Import   validate, analyze and reconcile one upload
//   Sync / Test      push persisted records to the remote, ping it
//   Admin config     load, save (re-dials the remote)
//   Registry         add, edit, remove and merge workers and sites
//   Status / Export  counts, full export, issue export, CSV export
//
// CONCURRENCY:
//   Every operation takes the console mutex, so concurrent HTTP requests see
//   the same single-user semantics as the CLI.
//
// =============================================================================

package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/labor-ledger/internal/config"
	"github.com/ginjaninja78/labor-ledger/internal/normalize"
	"github.com/ginjaninja78/labor-ledger/internal/registry"
	"github.com/ginjaninja78/labor-ledger/internal/remote"
	"github.com/ginjaninja78/labor-ledger/internal/sheet"
	"github.com/ginjaninja78/labor-ledger/internal/storage"
	"github.com/ginjaninja78/labor-ledger/internal/types"
	"github.com/ginjaninja78/labor-ledger/internal/wage"
	"github.com/ginjaninja78/labor-ledger/pkg/utils"
)

const moduleName = "console"

var (
	// ErrNoData is returned when an upload carries no data rows.
	ErrNoData = errors.New("no data to process")

	// ErrValidationFailed is returned when an upload has validation errors
	// and the import was not forced.
	ErrValidationFailed = errors.New("validation failed")

	// ErrRemoteNotConfigured is returned by remote operations when no
	// backend is configured.
	ErrRemoteNotConfigured = errors.New("remote database is not configured")
)

// =============================================================================
// CONSOLE STRUCTURE
// =============================================================================

// Deps are the collaborators a Console is built from.
type Deps struct {
	Store  storage.Store
	Logger *logrus.Logger

	// Files writes exports and error logs. Nil disables both.
	Files *utils.FileManager

	// Sheet configures spreadsheet parsing.
	Sheet sheet.Options

	// Mappings override the default header synonyms.
	Mappings config.MappingConfig

	// Dial builds the remote collaborator. Defaults to remote.Dial.
	Dial remote.Dialer

	// Now is the clock stamped on imported records. Defaults to time.Now.
	Now func() time.Time
}

// Console holds the whole application state.
type Console struct {
	mu sync.Mutex

	logger   *logrus.Logger
	store    storage.Store
	records  *storage.Records
	registry *registry.Registry
	files    *utils.FileManager
	sheet    sheet.Options

	workMapping    normalize.FieldMapping
	expenseMapping normalize.FieldMapping

	admin  config.AdminConfig
	calc   wage.Calculator
	remote remote.Upserter
	dial   remote.Dialer

	now func() time.Time
}

// New loads the registry and the admin configuration from the store and
// dials the remote when one is configured. A remote that cannot be reached
// is logged and left unset; the console still works locally.
func New(ctx context.Context, deps Deps) (*Console, error) {
	if deps.Store == nil {
		return nil, errors.New("console requires a store")
	}
	c := &Console{
		logger:         deps.Logger,
		store:          deps.Store,
		records:        storage.NewRecords(deps.Store),
		files:          deps.Files,
		sheet:          deps.Sheet,
		workMapping:    normalize.DefaultWorkMapping().Merge(deps.Mappings.Work),
		expenseMapping: normalize.DefaultExpenseMapping().Merge(deps.Mappings.Expense),
		dial:           deps.Dial,
		now:            deps.Now,
	}
	if c.logger == nil {
		c.logger = config.DiscardLogger()
	}
	if c.dial == nil {
		c.dial = remote.Dial
	}
	if c.now == nil {
		c.now = time.Now
	}

	reg, err := registry.Open(ctx, deps.Store)
	if err != nil {
		config.LogError(c.logger, moduleName, "New", "failed to open registry", nil, err)
		return nil, fmt.Errorf("failed to open registry: %w", err)
	}
	c.registry = reg

	var admin config.AdminConfig
	if _, err := storage.LoadJSON(ctx, deps.Store, storage.KeyAdminConfig, &admin); err != nil {
		config.LogError(c.logger, moduleName, "New", "failed to load admin config", nil, err)
		return nil, fmt.Errorf("failed to load admin config: %w", err)
	}
	if err := c.applyAdmin(admin.Normalize()); err != nil {
		c.logger.Warn("remote unavailable, continuing with local storage only")
	}

	workers, sites := reg.Counts()
	c.logger.WithFields(logrus.Fields{
		"workers": workers,
		"sites":   sites,
		"remote":  c.remote != nil,
		"taxRate": c.admin.TaxRate,
	}).Debug("console ready")

	return c, nil
}

// Close releases the remote collaborator. The store belongs to the caller.
func (c *Console) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remote == nil {
		return nil
	}
	err := c.remote.Close()
	c.remote = nil
	return err
}

// Registry exposes the reference registry for read access.
func (c *Console) Registry() *registry.Registry {
	return c.registry
}

// ReadRows parses an uploaded spreadsheet with the console's sheet options.
func (c *Console) ReadRows(r io.Reader, filename string) ([]types.RawRow, error) {
	rows, err := sheet.Parse(r, filename, c.sheet)
	if err != nil {
		config.LogError(c.logger, moduleName, "ReadRows", "failed to parse upload", filename, err)
		return nil, err
	}
	c.logger.WithFields(logrus.Fields{"file": filename, "rows": len(rows)}).Debug("parsed upload")
	return rows, nil
}

// =============================================================================
// ADMIN CONFIGURATION
// =============================================================================

// AdminConfig returns the active admin configuration.
func (c *Console) AdminConfig() config.AdminConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.admin
}

// SaveAdminConfig validates, persists and applies cfg. The remote is
// re-dialed; if that fails the configuration stays saved and the error is
// returned.
func (c *Console) SaveAdminConfig(ctx context.Context, cfg config.AdminConfig) error {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := storage.SaveJSON(ctx, c.store, storage.KeyAdminConfig, cfg); err != nil {
		config.LogError(c.logger, moduleName, "SaveAdminConfig", "failed to save admin config", nil, err)
		return fmt.Errorf("failed to save admin config: %w", err)
	}

	if c.remote != nil {
		if err := c.remote.Close(); err != nil {
			c.logger.WithError(err).Warn("failed to close previous remote")
		}
		c.remote = nil
	}
	if err := c.applyAdmin(cfg); err != nil {
		return fmt.Errorf("admin config saved but remote is unavailable: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"taxRate": cfg.TaxRate,
		"remote":  c.remote != nil,
	}).Info("admin config saved")
	return nil
}

// applyAdmin installs cfg and dials its remote. Caller holds mu or is New.
func (c *Console) applyAdmin(cfg config.AdminConfig) error {
	c.admin = cfg
	c.calc = wage.NewCalculator(cfg.TaxRate)
	if !cfg.RemoteConfigured() {
		return nil
	}
	up, err := c.dial(cfg)
	if err != nil {
		config.LogError(c.logger, moduleName, "applyAdmin", "failed to initialise remote", cfg.SupabaseURL, err)
		return err
	}
	c.remote = up
	return nil
}

// =============================================================================
// STATUS
// =============================================================================

// KindStatus describes one persisted record collection.
type KindStatus struct {
	Count       int        `json:"count"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

// Status is the data overview.
type Status struct {
	Work             KindStatus `json:"work"`
	Expense          KindStatus `json:"expense"`
	Workers          int        `json:"workers"`
	Sites            int        `json:"sites"`
	RemoteConfigured bool       `json:"remoteConfigured"`
	TaxRate          float64    `json:"taxRate"`
}

// Status reports record counts, the creation time of the newest record of
// each kind and registry sizes.
func (c *Console) Status(ctx context.Context) (*Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	work, err := c.records.Work(ctx)
	if err != nil {
		config.LogError(c.logger, moduleName, "Status", "failed to load work records", nil, err)
		return nil, fmt.Errorf("failed to load work records: %w", err)
	}
	expenses, err := c.records.Expenses(ctx)
	if err != nil {
		config.LogError(c.logger, moduleName, "Status", "failed to load expense records", nil, err)
		return nil, fmt.Errorf("failed to load expense records: %w", err)
	}

	st := &Status{
		Work:             KindStatus{Count: len(work)},
		Expense:          KindStatus{Count: len(expenses)},
		RemoteConfigured: c.remote != nil,
		TaxRate:          c.calc.TaxRate(),
	}
	if n := len(work); n > 0 {
		t := work[n-1].CreatedAt
		st.Work.LastUpdated = &t
	}
	if n := len(expenses); n > 0 {
		t := expenses[n-1].CreatedAt
		st.Expense.LastUpdated = &t
	}
	st.Workers, st.Sites = c.registry.Counts()
	return st, nil
}
