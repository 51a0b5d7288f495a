package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	"github.com/uptrace/bun"

	"github.com/shopkit/shopkit/models"
)

type direction int

const (
	migrateUp direction = iota
	migrateDown
)

// runner wraps a goose provider pointed at the embedded SQL for one
// database dialect.
type runner struct {
	logger   models.Logger
	provider *goose.Provider
}

func newRunner(logger models.Logger, db bun.IDB, dbProvider string, verbose bool) (*runner, error) {
	sqlFs, err := GetMigrations(dbProvider)
	if err != nil {
		return nil, err
	}

	subFs, err := fs.Sub(sqlFs, "migrations/"+dbProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to scope migration filesystem: %w", err)
	}

	dialect, err := gooseDialect(dbProvider)
	if err != nil {
		return nil, err
	}

	sqlDB := rawSQLDB(db)
	if sqlDB == nil {
		return nil, fmt.Errorf("cannot extract *sql.DB from bun.IDB")
	}

	gooseProvider, err := goose.NewProvider(dialect, sqlDB, subFs, goose.WithVerbose(verbose))
	if err != nil {
		return nil, fmt.Errorf("failed to create goose provider: %w", err)
	}

	return &runner{logger: logger, provider: gooseProvider}, nil
}

func (r *runner) run(ctx context.Context, dir direction) error {
	var results []*goose.MigrationResult
	var err error
	action := "Migrated"

	if dir == migrateUp {
		results, err = r.provider.Up(ctx)
	} else {
		results, err = r.provider.DownTo(ctx, 0)
		action = "Rolled back"
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	for _, result := range results {
		if r.logger != nil {
			r.logger.Info(fmt.Sprintf("%s: %s (%s)", action, result.Source.Path, result.Duration))
		}
	}
	return nil
}

// RunCoreMigrations brings the schema up to date for the given provider.
func RunCoreMigrations(ctx context.Context, logger models.Logger, logLevel string, provider string, db bun.IDB) error {
	r, err := newRunner(logger, db, provider, logLevel == "debug")
	if err != nil {
		return err
	}
	return r.run(ctx, migrateUp)
}

// DropCoreMigrations rolls the schema all the way back down.
func DropCoreMigrations(ctx context.Context, logger models.Logger, logLevel string, provider string, db bun.IDB) error {
	r, err := newRunner(logger, db, provider, logLevel == "debug")
	if err != nil {
		return err
	}
	return r.run(ctx, migrateDown)
}

func gooseDialect(provider string) (database.Dialect, error) {
	switch provider {
	case "postgres":
		return goose.DialectPostgres, nil
	case "mysql":
		return goose.DialectMySQL, nil
	case "sqlite":
		return goose.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("unsupported database provider: %s", provider)
	}
}

func rawSQLDB(db bun.IDB) *sql.DB {
	if d, ok := db.(*bun.DB); ok {
		return d.DB
	}
	return nil
}
