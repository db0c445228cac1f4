// Package sqlite is an embedded record store backed by the pure Go modernc driver.
// It serves local runs (store.driver=sqlite) and gives tests a real SQL engine.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/maxviazov/cve-catalog-service/internal/config"
	"github.com/maxviazov/cve-catalog-service/internal/repository"
)

// Open opens the database file and checks it is reachable.
func Open(ctx context.Context, cfg config.SQLiteConfig, log *zerolog.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer at a time; readers share the same handle
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Info().Str("path", cfg.Path).Msg("sqlite store opened")
	return db, nil
}

// database/sql does not export the error it returns once the handle is closed.
const errDBClosedText = "sql: database is closed"

// mapError classifies driver failures the same way MapPgError does for Postgres.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrStoreUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sql.ErrConnDone) ||
		strings.Contains(err.Error(), errDBClosedText) {
		return repository.Unavailable(err)
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CANTOPEN,
			sqlite3.SQLITE_IOERR, sqlite3.SQLITE_NOTADB:
			return repository.Unavailable(err)
		}
	}
	return err
}

type pinger struct{ db *sql.DB }

func NewPinger(db *sql.DB) repository.Pinger { return &pinger{db: db} }

func (p *pinger) Ping(ctx context.Context) error { return mapError(p.db.PingContext(ctx)) }
