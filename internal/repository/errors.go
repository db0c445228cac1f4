package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrStoreUnavailable is the domain error I bubble up when the store could not be
// reached or did not answer in time.
var ErrStoreUnavailable = errors.New("record store unavailable")

// Unavailable wraps cause so that errors.Is(err, ErrStoreUnavailable) holds
// while the driver detail stays available for logs.
func Unavailable(cause error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, cause)
}

// MapPgError translates connection-level Postgres failures to ErrStoreUnavailable.
// Everything else passes through untouched and ends up as an internal error.
func MapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return Unavailable(err)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return Unavailable(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgerrcode.IsInsufficientResources(pgErr.Code),
			pgerrcode.IsOperatorIntervention(pgErr.Code):
			return Unavailable(err)
		}
	}
	return err
}
