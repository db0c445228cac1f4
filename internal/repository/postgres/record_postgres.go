package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/maxviazov/cve-catalog-service/internal/model"
	"github.com/maxviazov/cve-catalog-service/internal/repository"
)

type recordRepository struct {
	pool *pgxpool.Pool
	tx   repository.TxManager
}

func NewRecordRepository(pool *pgxpool.Pool) repository.RecordRepository {
	return &recordRepository{pool: pool, tx: NewTxManager(pool)}
}

func (r *recordRepository) Count(ctx context.Context) (int, error) {
	if err := ensurePool(r.pool); err != nil {
		return 0, err
	}
	var total int
	if err := getQ(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM cves`).Scan(&total); err != nil {
		return 0, repository.MapPgError(err)
	}
	return total, nil
}

// List reads the count and the window separately inside one snapshot. A single
// COUNT(*) OVER() query would report zero for a page past the end, and the total
// must describe the whole store regardless of the window.
func (r *recordRepository) List(ctx context.Context, p repository.Page) (repository.PageResult[model.VulnerabilityRecord], error) {
	if err := ensurePool(r.pool); err != nil {
		return repository.PageResult[model.VulnerabilityRecord]{}, err
	}
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

		rows, err := getQ(ctx, r.pool).Query(ctx,
			`SELECT cve_id, source_identifier, published, last_modified, vuln_status
			 FROM cves
			 ORDER BY cve_id
			 LIMIT $1 OFFSET $2`,
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
		return repository.PageResult[model.VulnerabilityRecord]{}, repository.MapPgError(err)
	}
	return res, nil
}

var _ repository.RecordRepository = (*recordRepository)(nil)
