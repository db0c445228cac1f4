package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/maxviazov/cve-catalog-service/internal/repository"
)

func TestMapPgError(t *testing.T) {
	cases := []struct {
		name        string
		in          error
		unavailable bool
	}{
		{"connection failure", &pgconn.PgError{Code: pgerrcode.ConnectionFailure}, true},
		{"too many connections", &pgconn.PgError{Code: pgerrcode.TooManyConnections}, true},
		{"admin shutdown", &pgconn.PgError{Code: pgerrcode.AdminShutdown}, true},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true},
		{"syntax error passes through", &pgconn.PgError{Code: pgerrcode.SyntaxError}, false},
		{"plain error passes through", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := repository.MapPgError(tc.in)
			assert.Equal(t, tc.unavailable, errors.Is(got, repository.ErrStoreUnavailable), "got %v", got)
		})
	}

	assert.NoError(t, repository.MapPgError(nil))
}

func TestUnavailable_KeepsCauseText(t *testing.T) {
	err := repository.Unavailable(errors.New("dial tcp: refused"))
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "dial tcp: refused")
}
