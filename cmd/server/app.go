package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/maxviazov/cve-catalog-service/internal/config"
	"github.com/maxviazov/cve-catalog-service/internal/handler"
	"github.com/maxviazov/cve-catalog-service/internal/metrics"
	"github.com/maxviazov/cve-catalog-service/internal/migrations"
	"github.com/maxviazov/cve-catalog-service/internal/repository"
	"github.com/maxviazov/cve-catalog-service/internal/repository/postgres"
	"github.com/maxviazov/cve-catalog-service/internal/repository/sqlite"
	"github.com/maxviazov/cve-catalog-service/internal/service"
)

// store is the record store selected by store.driver together with its readiness probe.
type store struct {
	records repository.RecordRepository
	pinger  repository.Pinger
	close   func()
}

func openStore(ctx context.Context, cfg *config.Config, log *zerolog.Logger) (*store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		conn, err := repository.New(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		if cfg.Store.Migrate {
			db := conn.SQLDB()
			err := migrations.Up(ctx, db, "postgres", *log)
			_ = db.Close()
			if err != nil {
				conn.Close()
				return nil, err
			}
		}
		return &store{
			records: postgres.NewRecordRepository(conn.Pool()),
			pinger:  postgres.NewPinger(conn.Pool()),
			close:   conn.Close,
		}, nil

	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.SQLite, log)
		if err != nil {
			return nil, err
		}
		if cfg.Store.Migrate {
			if err := migrations.Up(ctx, db, "sqlite", *log); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return &store{
			records: sqlite.NewRecordRepository(db),
			pinger:  sqlite.NewPinger(db),
			close:   func() { _ = db.Close() },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

// newRouter builds the full HTTP stack: gin engine with middleware and routes, wrapped in CORS.
func newRouter(cfg *config.Config, log zerolog.Logger, s *store, reg *prometheus.Registry) http.Handler {
	if cfg.App.Env == "dev" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(handler.Recovery(log), handler.RequestLogger(log), handler.SecurityHeaders())

	var m *metrics.Metrics
	routeCfg := handler.RouteConfig{RequestTimeout: cfg.HTTP.RequestTimeout}
	if cfg.Metrics.Enabled {
		m = metrics.New(reg)
		r.Use(m.Middleware())
		routeCfg.Observer = m
	}

	if cfg.HTTP.RateLimit.Enabled {
		var onLimited func()
		if m != nil {
			onLimited = m.ObserveRateLimited
		}
		r.Use(handler.NewRateLimiter(cfg.HTTP.RateLimit).Middleware(onLimited))
	}

	svc := service.NewRecordService(s.records, cfg.HTTP.AllowedPageSizes, log)
	handler.Register(r, s.pinger, svc, routeCfg)
	if m != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.HTTP.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", handler.RequestIDHeader},
		ExposedHeaders: []string{handler.RequestIDHeader, "RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	})
	return c.Handler(r)
}
