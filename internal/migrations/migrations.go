// Package migrations embeds the cves schema for every supported store dialect.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Up applies all pending migrations for dialect ("postgres" or "sqlite").
// goose keeps its configuration in package globals, so calls are not safe to run concurrently.
func Up(ctx context.Context, db *sql.DB, dialect string, log zerolog.Logger) error {
	if dialect != "postgres" && dialect != "sqlite" {
		return fmt.Errorf("unsupported migration dialect %q", dialect)
	}
	goose.SetBaseFS(files)
	goose.SetLogger(gooseLogger{log: log.With().Str("module", "migrations").Logger()})
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, dialect); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

type gooseLogger struct{ log zerolog.Logger }

func (g gooseLogger) Printf(format string, v ...interface{}) { g.log.Info().Msgf(format, v...) }
func (g gooseLogger) Fatalf(format string, v ...interface{}) { g.log.Fatal().Msgf(format, v...) }
