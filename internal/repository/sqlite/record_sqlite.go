package sqlite

import (
	"context"
	"database/sql"

	"github.com/maxviazov/cve-catalog-service/internal/model"
	"github.com/maxviazov/cve-catalog-service/internal/repository"
)

type txKey struct{}

type q interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getQ(ctx context.Context, db *sql.DB) q {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok && tx != nil {
		return tx
	}
	return db
}

type txManager struct{ db *sql.DB }

func NewTxManager(db *sql.DB) repository.TxManager { return &txManager{db: db} }

// WithinReadTx relies on SQLite's deferred transactions: the snapshot is taken
// at the first read and held until commit.
func (m *txManager) WithinReadTx(ctx context.Context, fn repository.TxFunc) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return mapError(err)
	}
	return mapError(tx.Commit())
}

type recordRepository struct {
	db *sql.DB
	tx repository.TxManager
}

func NewRecordRepository(db *sql.DB) repository.RecordRepository {
	return &recordRepository{db: db, tx: NewTxManager(db)}
}

func (r *recordRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := getQ(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM cves`).Scan(&total); err != nil {
		return 0, mapError(err)
	}
	return total, nil
}

func (r *recordRepository) List(ctx context.Context, p repository.Page) (repository.PageResult[model.VulnerabilityRecord], error) {
	res := repository.PageResult[model.VulnerabilityRecord]{Items: make([]model.VulnerabilityRecord, 0, p.Limit)}

	err := r.tx.WithinReadTx(ctx, func(ctx context.Context) error {
		total, err := r.Count(ctx)
		if err != nil {
			return err
		}
		res.Total = total
		if p.Offset >= total {
			return nil
		}

		rows, err := getQ(ctx, r.db).QueryContext(ctx,
			`SELECT cve_id, source_identifier, published, last_modified, vuln_status
			 FROM cves
			 ORDER BY cve_id
			 LIMIT ? OFFSET ?`,
			p.Limit, p.Offset,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var it model.VulnerabilityRecord
			if err := rows.Scan(&it.ID, &it.SourceIdentifier, &it.Published, &it.LastModified, &it.VulnStatus); err != nil {
				return err
			}
			res.Items = append(res.Items, it)
		}
		return rows.Err()
	})
	if err != nil {
		return repository.PageResult[model.VulnerabilityRecord]{}, mapError(err)
	}
	return res, nil
}

var _ repository.RecordRepository = (*recordRepository)(nil)
