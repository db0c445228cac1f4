package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxviazov/cve-catalog-service/internal/config"
	"github.com/maxviazov/cve-catalog-service/internal/migrations"
	"github.com/maxviazov/cve-catalog-service/internal/model"
	"github.com/maxviazov/cve-catalog-service/internal/repository"
	"github.com/maxviazov/cve-catalog-service/internal/repository/contract"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	log := zerolog.Nop()
	db, err := Open(context.Background(), config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "cves.db")}, &log)
	require.NoError(t, err)
	require.NoError(t, migrations.Up(context.Background(), db, "sqlite", log))
	return db
}

func seed(t *testing.T, db *sql.DB, records []model.VulnerabilityRecord) {
	t.Helper()
	for _, r := range records {
		_, err := db.Exec(
			`INSERT INTO cves (cve_id, source_identifier, published, last_modified, vuln_status) VALUES (?, ?, ?, ?, ?)`,
			r.ID, r.SourceIdentifier, r.Published, r.LastModified, r.VulnStatus,
		)
		require.NoError(t, err)
	}
}

func makeRecordRepo(t *testing.T, records []model.VulnerabilityRecord) (repository.RecordRepository, func()) {
	db := openTestDB(t)
	seed(t, db, records)
	return NewRecordRepository(db), func() { _ = db.Close() }
}

func makePinger(t *testing.T) (repository.Pinger, func()) {
	db := openTestDB(t)
	return NewPinger(db), func() { _ = db.Close() }
}

func TestRecordRepository_SQLiteContract(t *testing.T) {
	contract.RunRecordRepositoryContract(t, makeRecordRepo)
}

func TestPinger_SQLiteContract(t *testing.T) {
	contract.RunPingerContract(t, makePinger)
}

func TestMapError(t *testing.T) {
	assert.Nil(t, mapError(nil))
	assert.ErrorIs(t, mapError(context.DeadlineExceeded), repository.ErrStoreUnavailable)

	assert.ErrorIs(t, mapError(sql.ErrConnDone), repository.ErrStoreUnavailable)

	plain := errors.New("syntax error")
	assert.Equal(t, plain, mapError(plain))
}

func TestClosedDatabaseIsUnavailable(t *testing.T) {
	db := openTestDB(t)
	seed(t, db, contract.SeedRecords(3))
	repo := NewRecordRepository(db)
	pinger := NewPinger(db)
	require.NoError(t, db.Close())

	_, err := repo.List(context.Background(), repository.Page{Limit: 10, Offset: 0})
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)

	_, err = repo.Count(context.Background())
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)

	assert.ErrorIs(t, pinger.Ping(context.Background()), repository.ErrStoreUnavailable)
}
