package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/maxviazov/cve-catalog-service/internal/metrics"
	"github.com/maxviazov/cve-catalog-service/internal/repository"
	"github.com/maxviazov/cve-catalog-service/internal/service"
	"github.com/maxviazov/cve-catalog-service/pkg/response"
)

const defaultServiceTimeout = 5 * time.Second

type RecordHandler struct {
	svc      service.RecordService
	timeout  time.Duration
	observer ListObserver
}

func NewRecordHandler(svc service.RecordService, timeout time.Duration, observer ListObserver) *RecordHandler {
	if timeout <= 0 {
		timeout = defaultServiceTimeout
	}
	return &RecordHandler{svc: svc, timeout: timeout, observer: observer}
}

func (h *RecordHandler) Register(r *gin.RouterGroup) {
	r.GET(RecordsPath, h.list)
}

// parseRequiredInt reads a required integer query parameter and reports
// a field error instead of a value when it is missing or malformed.
func parseRequiredInt(c *gin.Context, name string) (int, *service.FieldError) {
	raw, ok := c.GetQuery(name)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return 0, &service.FieldError{Field: name, Message: "is required"}
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &service.FieldError{Field: name, Message: "must be a valid integer"}
	}
	return v, nil
}

func (h *RecordHandler) list(c *gin.Context) {
	start := time.Now()

	var ferrs []service.FieldError
	page, fe := parseRequiredInt(c, "page")
	if fe != nil {
		ferrs = append(ferrs, *fe)
	}
	limit, fe := parseRequiredInt(c, "limit")
	if fe != nil {
		ferrs = append(ferrs, *fe)
	}
	if err := service.NewInvalidInputError(ferrs); err != nil {
		h.observe(metrics.OutcomeInvalidInput, 0)
		response.WriteError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	out, err := h.svc.ListRecords(ctx, page, limit)

	logger := log.With().
		Str("path", c.Request.URL.Path).
		Str("query", c.Request.URL.RawQuery).
		Int("page", page).
		Int("limit", limit).
		Dur("duration", time.Since(start)).
		Logger()

	if err != nil {
		status, _ := response.MapError(err)
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			h.observe(metrics.OutcomeInvalidInput, 0)
			logger.Debug().Err(err).Int("status", status).Msg("rejected list request")
		case errors.Is(err, repository.ErrStoreUnavailable):
			h.observe(metrics.OutcomeStoreUnavailable, 0)
			logger.Error().Err(err).Int("status", status).Msg("record store unavailable")
		default:
			h.observe(metrics.OutcomeError, 0)
			logger.Error().Err(err).Int("status", status).Msg("failed to list records")
		}
		response.WriteError(c, err)
		return
	}

	h.observe(metrics.OutcomeOK, len(out.Docs))
	logger.Info().Int("status", http.StatusOK).Int("returned", len(out.Docs)).Int("total", out.TotalDocs).Msg("records listed")
	response.WriteData(c, http.StatusOK, out)
}

func (h *RecordHandler) observe(outcome string, served int) {
	if h.observer != nil {
		h.observer.ObserveList(outcome, served)
	}
}
