// Package migrations embeds the goose SQL migrations for every database dialect.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed clickhouse/*.sql postgres/*.sql
var FS embed.FS

// Dir maps a goose dialect to its migrations directory inside FS
func Dir(dialect string) (string, error) {
	switch dialect {
	case "clickhouse":
		return "clickhouse", nil
	case "postgres":
		return "postgres", nil
	default:
		return "", fmt.Errorf("unsupported dialect: %s", dialect)
	}
}

// Up applies all pending migrations of dialect to db
func Up(db *sql.DB, dialect string) error {
	dir, err := Dir(dialect)
	if err != nil {
		return err
	}

	goose.SetBaseFS(FS)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
