package bootstrap

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"

	"github.com/shopkit/shopkit/env"
	"github.com/shopkit/shopkit/models"
)

// InitDatabase opens a Bun connection for the configured provider. The
// connection URL can be overridden via SHOPKIT_DATABASE_URL.
func InitDatabase(config models.DatabaseConfig, logLevel string) (*bun.DB, error) {
	if config.Provider == "" {
		return nil, fmt.Errorf("database provider must be specified")
	}

	url := os.Getenv(env.EnvDatabaseURL)
	if url == "" {
		url = config.URL
	}
	if url == "" {
		return nil, fmt.Errorf("database connection string must be specified via %s or config", env.EnvDatabaseURL)
	}

	var (
		sqlDB   *sql.DB
		dialect schema.Dialect
		err     error
	)

	switch config.Provider {
	case "sqlite":
		if url, err = ensureSQLitePath(url); err != nil {
			return nil, err
		}
		sqlDB, err = sql.Open("sqlite3", url)
		dialect = sqlitedialect.New()
	case "postgres":
		sqlDB, err = sql.Open("postgres", url)
		dialect = pgdialect.New()
	case "mysql":
		sqlDB, err = sql.Open("mysql", url)
		dialect = mysqldialect.New()
	default:
		return nil, fmt.Errorf("unsupported database provider: %s", config.Provider)
	}
	if err != nil {
		return nil, err
	}

	configurePool(sqlDB, config)

	db := bun.NewDB(sqlDB, dialect)
	if logLevel == "debug" {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db, nil
}

// ensureSQLitePath makes the database path absolute and creates its
// parent directory so a fresh checkout can boot without setup.
func ensureSQLitePath(path string) (string, error) {
	if !filepath.IsAbs(path) {
		cwd, _ := os.Getwd()
		path = filepath.Join(cwd, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return path, nil
}

func configurePool(sqlDB *sql.DB, config models.DatabaseConfig) {
	numCPU := runtime.NumCPU()

	maxOpen := config.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = numCPU * 4
	}
	maxIdle := config.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = numCPU * 2
	}
	lifetime := config.ConnMaxLifetime
	if lifetime == 0 {
		lifetime = 10 * time.Minute
	}

	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)
}
