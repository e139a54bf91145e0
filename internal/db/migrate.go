package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/anstrom/scanbridge/internal/logging"
)

// Schema files are applied in name order; the name without .sql is the
// version recorded in schema_versions.
//
//go:embed *.sql
var schemaFiles embed.FS

const schemaVersionsDDL = `CREATE TABLE IF NOT EXISTS schema_versions (
	version    TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// schemaVersions lists the embedded schema versions in apply order.
func schemaVersions() ([]string, error) {
	names, err := fs.Glob(schemaFiles, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list schema files: %w", err)
	}
	sort.Strings(names)

	versions := make([]string, len(names))
	for i, name := range names {
		versions[i] = strings.TrimSuffix(name, ".sql")
	}
	return versions, nil
}

// Migrate brings the obligation schema up to date. Each missing version
// runs in its own transaction together with its schema_versions row.
func Migrate(ctx context.Context, db *sqlx.DB, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.Default()
	}

	if _, err := db.ExecContext(ctx, schemaVersionsDDL); err != nil {
		return fmt.Errorf("failed to create schema_versions: %w", err)
	}

	var recorded []string
	if err := db.SelectContext(ctx, &recorded, `SELECT version FROM schema_versions`); err != nil {
		return fmt.Errorf("failed to read schema versions: %w", err)
	}
	applied := make(map[string]bool, len(recorded))
	for _, v := range recorded {
		applied[v] = true
	}

	versions, err := schemaVersions()
	if err != nil {
		return err
	}
	for _, version := range versions {
		if applied[version] {
			continue
		}
		if err := applySchema(ctx, db, version); err != nil {
			return fmt.Errorf("schema %s: %w", version, err)
		}
		logger.Info("Applied schema", "component", "database", "version", version)
	}
	return nil
}

func applySchema(ctx context.Context, db *sqlx.DB, version string) error {
	ddl, err := schemaFiles.ReadFile(version + ".sql")
	if err != nil {
		return err
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, string(ddl)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_versions (version) VALUES ($1)`, version); err != nil {
		return err
	}
	return tx.Commit()
}

// ConnectAndMigrate connects to the database and applies the schema.
func ConnectAndMigrate(ctx context.Context, config *Config) (*DB, error) {
	db, err := Connect(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := Migrate(ctx, db.DB, logging.Default()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}
