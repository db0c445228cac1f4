package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/maxviazov/cve-catalog-service/internal/migrations"
	"github.com/maxviazov/cve-catalog-service/internal/model"
	"github.com/maxviazov/cve-catalog-service/internal/repository"
	"github.com/maxviazov/cve-catalog-service/internal/repository/contract"
)

var (
	db     *sql.DB
	pool   *pgxpool.Pool
	dsn    string
	skippy bool
)

func TestMain(m *testing.M) {
	if os.Getenv("CONTRACT_TESTS") != "1" {
		// allow skipping contract tests unless explicitly enabled
		skippy = true
		os.Exit(m.Run())
	}

	dsn = buildDSNFromEnv()
	if dsn == "" {
		fmt.Println("[contract] DATABASE_URL or APP_POSTGRES_* env not set; skipping")
		skippy = true
		os.Exit(m.Run())
	}

	var err error
	db, err = sql.Open("pgx", dsn)
	if err != nil {
		fmt.Println("[contract] sql open error:", err)
		os.Exit(1)
	}
	if err := db.Ping(); err != nil {
		fmt.Println("[contract] db ping error:", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := migrations.Up(ctx, db, "postgres", zerolog.Nop()); err != nil {
		fmt.Println("[contract] migrations error:", err)
		os.Exit(1)
	}

	pool, err = pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Println("[contract] pgxpool new error:", err)
		os.Exit(1)
	}

	code := m.Run()
	pool.Close()
	db.Close()
	os.Exit(code)
}

func skipIfNeeded(t *testing.T) {
	if skippy {
		t.Skip("contract tests skipped; set CONTRACT_TESTS=1 and provide DB env")
	}
}

func buildDSNFromEnv() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}
	user := firstNonEmpty(os.Getenv("APP_POSTGRES_USER"), os.Getenv("POSTGRES_USER"), os.Getenv("DB_USER"))
	pass := firstNonEmpty(os.Getenv("APP_POSTGRES_PASSWORD"), os.Getenv("POSTGRES_PASSWORD"), os.Getenv("DB_PASSWORD"))
	host := firstNonEmpty(os.Getenv("APP_POSTGRES_HOST"), os.Getenv("POSTGRES_HOST"), "localhost")
	port := firstNonEmpty(os.Getenv("APP_POSTGRES_PORT"), os.Getenv("POSTGRES_PORT"), "5432")
	db := firstNonEmpty(os.Getenv("APP_POSTGRES_DB"), os.Getenv("POSTGRES_DB"), os.Getenv("DB_NAME"))
	ssl := firstNonEmpty(os.Getenv("APP_POSTGRES_SSLMODE"), os.Getenv("POSTGRES_SSLMODE"), "disable")
	if user == "" || pass == "" || db == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, ssl)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncateAll(t *testing.T) {
	t.Helper()
	if _, err := db.Exec("TRUNCATE TABLE cves"); err != nil {
		t.Fatalf("truncate failed: %v", err)
	}
}

func seed(t *testing.T, records []model.VulnerabilityRecord) {
	t.Helper()
	for _, r := range records {
		_, err := db.Exec(
			`INSERT INTO cves (cve_id, source_identifier, published, last_modified, vuln_status) VALUES ($1, $2, $3, $4, $5)`,
			r.ID, r.SourceIdentifier, r.Published, r.LastModified, r.VulnStatus,
		)
		if err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}
}

// Factories used by contract suites

func makeRecordRepo(t *testing.T, records []model.VulnerabilityRecord) (repository.RecordRepository, func()) {
	skipIfNeeded(t)
	truncateAll(t)
	seed(t, records)
	return NewRecordRepository(pool), func() { truncateAll(t) }
}

func makePinger(t *testing.T) (repository.Pinger, func()) {
	skipIfNeeded(t)
	return NewPinger(pool), func() {}
}

// Wire the contract suites to Postgres factories

func TestRecordRepository_PostgresContract(t *testing.T) {
	contract.RunRecordRepositoryContract(t, makeRecordRepo)
}

func TestPinger_PostgresContract(t *testing.T) {
	contract.RunPingerContract(t, makePinger)
}
