package repository

import (
	"context"

	"github.com/maxviazov/cve-catalog-service/internal/model"
)

// Pinger represents a minimal readiness probe capability.
// I use it to decouple health checks from storage implementation details.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a transaction boundary.
// I pass context through so nested calls can honor cancellations and deadlines.
type TxFunc func(ctx context.Context) error

// TxManager runs read-only units of work against one consistent snapshot.
// The catalog never writes, so the only thing a transaction buys us is that
// a count and a page read inside it agree with each other.
type TxManager interface {
	WithinReadTx(ctx context.Context, fn TxFunc) error
}

// RecordRepository is the Record Store query contract: count everything and
// fetch one window in a stable order (by identifier).
type RecordRepository interface {
	// List returns up to p.Limit records starting at p.Offset plus the total
	// number of records in the store, independent of the window.
	List(ctx context.Context, p Page) (PageResult[model.VulnerabilityRecord], error)
	Count(ctx context.Context) (int, error)
}
