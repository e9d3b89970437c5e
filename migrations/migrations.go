// Package migrations embeds the goose SQL migrations for the library schema.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var FS embed.FS

// Dir is the directory goose reads from inside FS
const Dir = "."

// Up applies every pending migration
func Up(db *sql.DB) error {
	if err := prepare(); err != nil {
		return err
	}
	if err := goose.Up(db, Dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func prepare() error {
	goose.SetBaseFS(FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}

// Run executes a goose command (up, down, status, version, reset) against db
func Run(db *sql.DB, command string) error {
	if err := prepare(); err != nil {
		return err
	}

	switch command {
	case "up":
		return goose.Up(db, Dir)
	case "down":
		return goose.Down(db, Dir)
	case "reset":
		return goose.Reset(db, Dir)
	case "status":
		return goose.Status(db, Dir)
	case "version":
		return goose.Version(db, Dir)
	default:
		return fmt.Errorf("unknown command: %s. Available commands: up, down, reset, status, version", command)
	}
}
