package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxviazov/cve-catalog-service/internal/model"
	"github.com/maxviazov/cve-catalog-service/internal/repository"
	"github.com/maxviazov/cve-catalog-service/pkg/pagination"
)

type recordService struct {
	repo    repository.RecordRepository
	allowed []int
	log     zerolog.Logger
}

// NewRecordService builds the listing use case. An empty allowed slice falls back
// to pagination.AllowedPageSizes.
func NewRecordService(repo repository.RecordRepository, allowed []int, logger zerolog.Logger) RecordService {
	if len(allowed) == 0 {
		allowed = pagination.AllowedPageSizes
	}
	l := logger.With().Str("module", "service").Str("component", "record").Logger()
	return &recordService{repo: repo, allowed: append([]int(nil), allowed...), log: l}
}

func (s *recordService) ListRecords(ctx context.Context, page, limit int) (model.RecordPage, error) {
	start := time.Now()
	if ferrs := validatePageRequest(page, limit, s.allowed); len(ferrs) > 0 {
		s.log.Debug().Int("page", page).Int("limit", limit).Interface("field_errors", ferrs).Msg("list validation failed")
		return model.RecordPage{}, newInvalidInput(ferrs)
	}

	p := repository.Page{Limit: limit, Offset: pagination.Offset(page, limit)}
	res, err := s.repo.List(ctx, p)
	if err != nil {
		// Repository surfaces domain-level errors already, do not wrap.
		s.log.Error().Err(err).Int("limit", p.Limit).Int("offset", p.Offset).Msg("list records failed")
		return model.RecordPage{}, err
	}

	docs := res.Items
	if docs == nil {
		docs = []model.VulnerabilityRecord{}
	}
	totalPages := pagination.TotalPages(res.Total, limit)
	out := model.RecordPage{
		Docs:        docs,
		TotalDocs:   res.Total,
		Limit:       limit,
		Page:        page,
		TotalPages:  totalPages,
		HasPrevPage: pagination.HasPrev(page),
		HasNextPage: pagination.HasNext(page, totalPages),
	}
	s.log.Debug().Dur("took", time.Since(start)).Int("page", page).Int("limit", limit).
		Int("returned", len(docs)).Int("total", res.Total).Msg("records listed")
	return out, nil
}
