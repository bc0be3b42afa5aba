package console

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/labor-ledger/internal/types"
)

// Registry mutations go through the console so they never interleave with
// an import that is reading the registry.

// AddWorker registers a worker.
func (c *Console) AddWorker(ctx context.Context, w types.Worker) (types.Worker, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	added, err := c.registry.AddWorker(ctx, w)
	if err != nil {
		return types.Worker{}, err
	}
	c.logger.WithFields(logrus.Fields{"worker": added.Name, "dailyRate": added.DailyRate}).Info("worker added")
	return added, nil
}

// UpdateWorker changes a worker's pay fields.
func (c *Console) UpdateWorker(ctx context.Context, w types.Worker) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.registry.UpdateWorker(ctx, w); err != nil {
		return err
	}
	c.logger.WithFields(logrus.Fields{"worker": w.Name, "dailyRate": w.DailyRate}).Info("worker updated")
	return nil
}

// RemoveWorker unregisters a worker.
func (c *Console) RemoveWorker(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.registry.RemoveWorker(ctx, name); err != nil {
		return err
	}
	c.logger.WithField("worker", name).Info("worker removed")
	return nil
}

// MergeWorkers adds roster entries whose names are not registered yet.
func (c *Console) MergeWorkers(ctx context.Context, roster []types.Worker) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	added, err := c.registry.MergeWorkers(ctx, roster)
	if err != nil {
		return 0, err
	}
	c.logger.WithFields(logrus.Fields{"roster": len(roster), "added": added}).Info("worker roster merged")
	return added, nil
}

// AddSite registers a site.
func (c *Console) AddSite(ctx context.Context, s types.Site) (types.Site, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	added, err := c.registry.AddSite(ctx, s)
	if err != nil {
		return types.Site{}, err
	}
	c.logger.WithField("site", added.Name).Info("site added")
	return added, nil
}

// UpdateSite changes a site's address and manager.
func (c *Console) UpdateSite(ctx context.Context, s types.Site) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.registry.UpdateSite(ctx, s); err != nil {
		return err
	}
	c.logger.WithField("site", s.Name).Info("site updated")
	return nil
}

// RemoveSite unregisters a site.
func (c *Console) RemoveSite(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.registry.RemoveSite(ctx, name); err != nil {
		return err
	}
	c.logger.WithField("site", name).Info("site removed")
	return nil
}
