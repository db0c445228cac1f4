package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// pgxLogger adapts zerolog.Logger to pgx's tracelog interface, translating levels
// and passing query fields through.
type pgxLogger struct {
	logger zerolog.Logger
}

// newPgxLogger builds a child logger tagged module=repository component=pgx,
// so SQL noise stays filterable next to the record store logs.
func newPgxLogger(logger zerolog.Logger) *pgxLogger {
	l := logger.With().Str("module", "repository").Str("component", "pgx").Logger()
	return &pgxLogger{logger: l}
}

// Log implements tracelog.Logger by mapping pgx levels to zerolog and
// adding commonly useful fields, such as SQL and args, when present.
func (l *pgxLogger) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	if level == tracelog.LogLevelNone {
		return
	}

	var event *zerolog.Event

	switch level {
	case tracelog.LogLevelTrace:
		event = l.logger.Trace()
		if sqlVal, ok := data["sql"]; ok {
			if s, ok := sqlVal.(string); ok {
				event = event.Str("sql", s)
			} else {
				event = event.Interface("sql", sqlVal)
			}
			delete(data, "sql")
		}
		if args, ok := data["args"]; ok {
			event = event.Interface("args", args)
			delete(data, "args")
		}
	case tracelog.LogLevelDebug:
		event = l.logger.Debug()
		if d, ok := data["time"]; ok {
			// pgx reports query latency under "time"; keep the name aligned with service logs
			if dur, ok := d.(time.Duration); ok {
				event = event.Dur("took", dur)
				delete(data, "time")
			}
		}
	case tracelog.LogLevelInfo:
		event = l.logger.Info()
	case tracelog.LogLevelWarn:
		event = l.logger.Warn()
	case tracelog.LogLevelError:
		event = l.logger.Error()
	default:
		// If pgx adds new levels, I'll fall back to info and keep the original level as a field.
		event = l.logger.Info().Str("pgx_log_level", level.String())
	}

	if len(data) > 0 {
		event = event.Fields(data)
	}
	event.Msg(msg)
}
