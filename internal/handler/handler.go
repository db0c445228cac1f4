package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/cve-catalog-service/internal/service"
)

// ListObserver receives one call per listing request. *metrics.Metrics satisfies it.
type ListObserver interface {
	ObserveList(outcome string, served int)
}

// RouteConfig carries the knobs the API handlers need beyond their services.
type RouteConfig struct {
	RequestTimeout time.Duration
	Observer       ListObserver // optional
}

// Register mounts all public routes on the given engine.
// Accepts service layer dependencies for API endpoints.
func Register(r *gin.Engine, repo Pinger, recordSvc service.RecordService, cfg RouteConfig) {
	h := NewHealthHandler(repo)

	// Health probes
	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)

	// Docs endpoints (root-level)
	RegisterDocs(r)

	records := NewRecordHandler(recordSvc, cfg.RequestTimeout, cfg.Observer)
	r.GET(RecordsAliasPath, records.list)

	api := r.Group(APIPrefix)
	{
		health := api.Group("/health")
		{
			health.GET("/live", h.Liveness)
			health.GET("/ready", h.Readiness)
		}
		records.Register(api)
	}
}
