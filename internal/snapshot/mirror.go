package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"

	"planning-performance/internal/classify"
	"planning-performance/internal/reference"
)

var schemaPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// MirrorConfig names the Postgres database the snapshot is copied into.
type MirrorConfig struct {
	DSN    string
	Schema string
}

func sanitizeSchema(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("postgres schema is required")
	}
	if !schemaPattern.MatchString(value) {
		return "", fmt.Errorf("invalid schema name: %s", value)
	}
	return value, nil
}

// Mirror replaces the contents of the Postgres schema with the same tables
// the SQLite snapshot holds. Runs accumulate.
func Mirror(ctx context.Context, cfg MirrorConfig, ds *reference.Dataset, profiles []classify.Profile, run Run) (err error) {
	schema, err := sanitizeSchema(cfg.Schema)
	if err != nil {
		return err
	}
	if strings.TrimSpace(cfg.DSN) == "" {
		return errors.New("postgres url is required")
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, 12*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	if err := ensureSchema(ctx, db, schema); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	w := writer{
		tx:      tx,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		prefix:  schema + ".",
	}
	if err = w.writeAll(ctx, ds, profiles, run); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit mirror: %w", err)
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB, schema string) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema)); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	for _, stmt := range schemaStatements(schema + ".") {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create mirror tables: %w", err)
		}
	}
	// Mirrors created before awards kept their file position.
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s.awards ADD COLUMN IF NOT EXISTS position INTEGER NOT NULL DEFAULT 0`, schema)); err != nil {
		return fmt.Errorf("migrate mirror awards: %w", err)
	}
	return nil
}
