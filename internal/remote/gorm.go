package remote

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GormUpserter writes straight into Postgres tables.
type GormUpserter struct {
	db *gorm.DB
}

// NewGormUpserter opens a Postgres connection from a DSN or URL and
// migrates the record tables.
func NewGormUpserter(dsn string) (*GormUpserter, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	g, err := NewGormUpserterFromDB(db)
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, err
	}
	return g, nil
}

// NewGormUpserterFromDB wraps an open gorm handle and migrates the record
// tables on it.
func NewGormUpserterFromDB(db *gorm.DB) (*GormUpserter, error) {
	g := &GormUpserter{db: db}
	if err := g.Migrate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Migrate creates the record tables if they do not exist. The conflict keys
// are the primary key, which gives ON CONFLICT its unique constraint.
func (g *GormUpserter) Migrate() error {
	if err := g.db.AutoMigrate(&WorkRow{}, &ExpenseRow{}); err != nil {
		return fmt.Errorf("failed to migrate remote tables: %w", err)
	}
	return nil
}

// Upsert inserts the batch, updating every column on a conflict-key hit.
func (g *GormUpserter) Upsert(ctx context.Context, b Batch) error {
	if b.Len == 0 {
		return nil
	}
	cols := make([]clause.Column, len(b.ConflictKeys))
	for i, k := range b.ConflictKeys {
		cols[i] = clause.Column{Name: k}
	}
	return g.db.WithContext(ctx).
		Table(b.Table).
		Clauses(clause.OnConflict{Columns: cols, UpdateAll: true}).
		Create(b.Rows).Error
}

// Ping checks the underlying connection.
func (g *GormUpserter) Ping(ctx context.Context) error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (g *GormUpserter) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
