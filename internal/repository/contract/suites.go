package contract

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/maxviazov/cve-catalog-service/internal/model"
	"github.com/maxviazov/cve-catalog-service/internal/repository"
	"github.com/maxviazov/cve-catalog-service/pkg/pagination"
)

// RecordFactory returns a repository whose store holds exactly the seeded records.
type RecordFactory func(t *testing.T, seed []model.VulnerabilityRecord) (repository.RecordRepository, func())

type PingerFactory func(t *testing.T) (repository.Pinger, func())

// SeedRecords builds n records whose identifiers sort in generation order.
func SeedRecords(n int) []model.VulnerabilityRecord {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.VulnerabilityRecord, 0, n)
	for i := 1; i <= n; i++ {
		published := base.Add(time.Duration(i) * time.Hour)
		out = append(out, model.VulnerabilityRecord{
			ID:               fmt.Sprintf("CVE-2024-%05d", i),
			SourceIdentifier: "cve@mitre.org",
			Published:        published,
			LastModified:     published.Add(24 * time.Hour),
			VulnStatus:       "Analyzed",
		})
	}
	return out
}

func RunRecordRepositoryContract(t *testing.T, makeRepo RecordFactory) {
	t.Helper()

	t.Run("empty_store", func(t *testing.T) {
		repo, cleanup := makeRepo(t, nil)
		t.Cleanup(cleanup)
		res, err := repo.List(context.Background(), repository.Page{Limit: 10, Offset: 0})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(res.Items) != 0 || res.Total != 0 {
			t.Fatalf("unexpected page: len=%d total=%d", len(res.Items), res.Total)
		}
	})

	t.Run("count", func(t *testing.T) {
		repo, cleanup := makeRepo(t, SeedRecords(7))
		t.Cleanup(cleanup)
		n, err := repo.Count(context.Background())
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 7 {
			t.Fatalf("expected 7, got %d", n)
		}
	})

	t.Run("middle_page_of_105", func(t *testing.T) {
		seed := SeedRecords(105)
		repo, cleanup := makeRepo(t, seed)
		t.Cleanup(cleanup)
		res, err := repo.List(context.Background(), repository.Page{Limit: 50, Offset: 50})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(res.Items) != 50 || res.Total != 105 {
			t.Fatalf("unexpected page: len=%d total=%d", len(res.Items), res.Total)
		}
		if res.Items[0].ID != seed[50].ID || res.Items[49].ID != seed[99].ID {
			t.Fatalf("unexpected window: first=%s last=%s", res.Items[0].ID, res.Items[49].ID)
		}
	})

	t.Run("short_last_page", func(t *testing.T) {
		repo, cleanup := makeRepo(t, SeedRecords(105))
		t.Cleanup(cleanup)
		res, err := repo.List(context.Background(), repository.Page{Limit: 50, Offset: 100})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(res.Items) != 5 || res.Total != 105 {
			t.Fatalf("unexpected page: len=%d total=%d", len(res.Items), res.Total)
		}
	})

	t.Run("out_of_range_keeps_total", func(t *testing.T) {
		repo, cleanup := makeRepo(t, SeedRecords(5))
		t.Cleanup(cleanup)
		res, err := repo.List(context.Background(), repository.Page{Limit: 10, Offset: 980})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(res.Items) != 0 || res.Total != 5 {
			t.Fatalf("unexpected page: len=%d total=%d", len(res.Items), res.Total)
		}
	})

	t.Run("page_lengths", func(t *testing.T) {
		const total = 105
		repo, cleanup := makeRepo(t, SeedRecords(total))
		t.Cleanup(cleanup)
		for _, size := range pagination.AllowedPageSizes {
			for page := 1; page <= pagination.TotalPages(total, size)+1; page++ {
				p := repository.Page{Limit: size, Offset: pagination.Offset(page, size)}
				res, err := repo.List(context.Background(), p)
				if err != nil {
					t.Fatalf("size=%d page=%d: %v", size, page, err)
				}
				if want := pagination.PageLen(page, size, total); len(res.Items) != want || res.Total != total {
					t.Fatalf("size=%d page=%d: len=%d total=%d, want len=%d", size, page, len(res.Items), res.Total, want)
				}
			}
		}
	})

	t.Run("saturated_offset", func(t *testing.T) {
		repo, cleanup := makeRepo(t, SeedRecords(5))
		t.Cleanup(cleanup)
		res, err := repo.List(context.Background(), repository.Page{Limit: 10, Offset: pagination.Offset(math.MaxInt, 10)})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(res.Items) != 0 || res.Total != 5 {
			t.Fatalf("unexpected page: len=%d total=%d", len(res.Items), res.Total)
		}
	})

	t.Run("stable_order_by_identifier", func(t *testing.T) {
		seed := SeedRecords(12)
		// insertion order must not leak into the listing
		shuffled := append([]model.VulnerabilityRecord{}, seed[6:]...)
		shuffled = append(shuffled, seed[:6]...)
		repo, cleanup := makeRepo(t, shuffled)
		t.Cleanup(cleanup)
		res, err := repo.List(context.Background(), repository.Page{Limit: 100, Offset: 0})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		for i := range seed {
			if res.Items[i].ID != seed[i].ID {
				t.Fatalf("position %d: want %s got %s", i, seed[i].ID, res.Items[i].ID)
			}
		}
	})

	t.Run("fields_round_trip", func(t *testing.T) {
		seed := SeedRecords(1)
		repo, cleanup := makeRepo(t, seed)
		t.Cleanup(cleanup)
		res, err := repo.List(context.Background(), repository.Page{Limit: 10, Offset: 0})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		got, want := res.Items[0], seed[0]
		if got.ID != want.ID || got.SourceIdentifier != want.SourceIdentifier || got.VulnStatus != want.VulnStatus {
			t.Fatalf("mismatch: %+v", got)
		}
		if !got.Published.Equal(want.Published) || !got.LastModified.Equal(want.LastModified) {
			t.Fatalf("timestamps mismatch: %v/%v", got.Published, got.LastModified)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		repo, cleanup := makeRepo(t, SeedRecords(30))
		t.Cleanup(cleanup)
		ctx := context.Background()
		p := repository.Page{Limit: 10, Offset: 10}
		a, err := repo.List(ctx, p)
		if err != nil {
			t.Fatalf("list a: %v", err)
		}
		b, err := repo.List(ctx, p)
		if err != nil {
			t.Fatalf("list b: %v", err)
		}
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("repeated list differs")
		}
	})

	t.Run("canceled_context", func(t *testing.T) {
		repo, cleanup := makeRepo(t, SeedRecords(3))
		t.Cleanup(cleanup)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := repo.List(ctx, repository.Page{Limit: 10, Offset: 0}); err == nil {
			t.Fatalf("expected error on canceled context")
		}
	})
}

func RunPingerContract(t *testing.T, makePinger PingerFactory) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		p, cleanup := makePinger(t)
		t.Cleanup(cleanup)
		if err := p.Ping(context.Background()); err != nil {
			t.Fatalf("expected ping ok, got %v", err)
		}
	})
}
