package console

import (
	"context"
	"errors"
	"fmt"

	"github.com/ginjaninja78/labor-ledger/internal/config"
	"github.com/ginjaninja78/labor-ledger/internal/remote"
)

// SyncResult counts rows pushed per table.
type SyncResult struct {
	Work    int `json:"work"`
	Expense int `json:"expense"`
}

// SyncAll pushes every persisted work and expense record to the remote.
// Both tables are attempted; failures are joined.
func (c *Console) SyncAll(ctx context.Context) (*SyncResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.remote == nil {
		return nil, ErrRemoteNotConfigured
	}

	work, err := c.records.Work(ctx)
	if err != nil {
		config.LogError(c.logger, moduleName, "SyncAll", "failed to load work records", nil, err)
		return nil, fmt.Errorf("failed to load work records: %w", err)
	}
	expenses, err := c.records.Expenses(ctx)
	if err != nil {
		config.LogError(c.logger, moduleName, "SyncAll", "failed to load expense records", nil, err)
		return nil, fmt.Errorf("failed to load expense records: %w", err)
	}

	res := &SyncResult{}
	var workErr, expenseErr error
	res.Work, workErr = c.upsert(ctx, remote.WorkBatch(work))
	res.Expense, expenseErr = c.upsert(ctx, remote.ExpenseBatch(expenses))
	return res, errors.Join(workErr, expenseErr)
}

// TestConnection pings the configured remote.
func (c *Console) TestConnection(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.remote == nil {
		return ErrRemoteNotConfigured
	}
	if err := c.remote.Ping(ctx); err != nil {
		config.LogError(c.logger, moduleName, "TestConnection", "remote ping failed", nil, err)
		return fmt.Errorf("remote connection failed: %w", err)
	}
	c.logger.Info("remote connection ok")
	return nil
}
