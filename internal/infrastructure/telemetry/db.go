package telemetry

import (
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const queryStartKey = "telemetry:query_start"

// DBConfig configures database instrumentation.
type DBConfig struct {
	TraceEnabled    bool          // register otelgorm spans
	LogFullSQL      bool          // keep bound variables in span statements
	SlowQueryThresh time.Duration // default 200ms
	DBSystem        string        // default "postgresql"
}

// DBInstrumentation is a gorm.Plugin that records query durations, flags
// slow queries and, when tracing is enabled, installs otelgorm.
type DBInstrumentation struct {
	config   DBConfig
	logger   *zap.Logger
	duration *Histogram
}

// NewDBInstrumentation creates the plugin. meter may be a no-op meter.
func NewDBInstrumentation(meter metric.Meter, cfg DBConfig, logger *zap.Logger) (*DBInstrumentation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}
	h, err := NewHistogram(meter, HistogramOpts{
		Name:        "psi_db_query_duration_seconds",
		Description: "Database query duration",
		Unit:        "s",
		Buckets:     DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	return &DBInstrumentation{config: cfg, logger: logger, duration: h}, nil
}

// Name implements gorm.Plugin.
func (p *DBInstrumentation) Name() string {
	return "psi:db_instrumentation"
}

// Initialize implements gorm.Plugin.
func (p *DBInstrumentation) Initialize(db *gorm.DB) error {
	if p.config.TraceEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
		if !p.config.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("psi:before_create", p.before),
		cb.Query().Before("gorm:query").Register("psi:before_query", p.before),
		cb.Update().Before("gorm:update").Register("psi:before_update", p.before),
		cb.Delete().Before("gorm:delete").Register("psi:before_delete", p.before),
		cb.Row().Before("gorm:row").Register("psi:before_row", p.before),
		cb.Raw().Before("gorm:raw").Register("psi:before_raw", p.before),
		cb.Create().After("gorm:create").Register("psi:after_create", p.after("create")),
		cb.Query().After("gorm:query").Register("psi:after_query", p.after("select")),
		cb.Update().After("gorm:update").Register("psi:after_update", p.after("update")),
		cb.Delete().After("gorm:delete").Register("psi:after_delete", p.after("delete")),
		cb.Row().After("gorm:row").Register("psi:after_row", p.after("select")),
		cb.Raw().After("gorm:raw").Register("psi:after_raw", p.after("raw")),
	)
}

func (p *DBInstrumentation) before(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func (p *DBInstrumentation) after(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(start)
		ctx := db.Statement.Context

		p.duration.Record(ctx, elapsed.Seconds(),
			AttrDBOperation.String(operation),
			AttrDBTable.String(db.Statement.Table),
		)

		span := trace.SpanFromContext(ctx)
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) && span.IsRecording() {
			span.SetStatus(codes.Error, db.Error.Error())
			span.RecordError(db.Error)
		}

		if elapsed > p.config.SlowQueryThresh {
			span.SetAttributes(attribute.Bool("db.slow_query", true))
			p.logger.Warn("Slow database query",
				zap.String("operation", operation),
				zap.String("table", db.Statement.Table),
				zap.Duration("elapsed", elapsed),
				zap.Duration("threshold", p.config.SlowQueryThresh),
			)
		}
	}
}

var _ gorm.Plugin = (*DBInstrumentation)(nil)
