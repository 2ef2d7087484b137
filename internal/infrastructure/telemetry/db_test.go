package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type sampleRow struct {
	ID   int
	Name string
}

func TestDBInstrumentation(t *testing.T) {
	mp, reader := newTestMeter(t)
	core, logs := observer.New(zapcore.WarnLevel)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	plugin, err := NewDBInstrumentation(mp.Meter("test"), DBConfig{SlowQueryThresh: 1}, zap.New(core))
	require.NoError(t, err)
	require.NoError(t, db.Use(plugin))
	require.NoError(t, db.AutoMigrate(&sampleRow{}))

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&sampleRow{ID: 1, Name: "a"}).Error)
	var got []sampleRow
	require.NoError(t, db.WithContext(ctx).Find(&got).Error)

	hist, ok := collect(t, reader)["psi_db_query_duration_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	ops := map[string]bool{}
	for _, dp := range hist.DataPoints {
		v, _ := dp.Attributes.Value(AttrDBOperation)
		ops[v.AsString()] = true
	}
	assert.True(t, ops["create"])
	assert.True(t, ops["select"])

	assert.NotZero(t, logs.FilterMessage("Slow database query").Len())
}

func TestNewDBInstrumentation_Defaults(t *testing.T) {
	mp, _ := newTestMeter(t)
	plugin, err := NewDBInstrumentation(mp.Meter("test"), DBConfig{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "postgresql", plugin.config.DBSystem)
	assert.Equal(t, "psi:db_instrumentation", plugin.Name())
	assert.Positive(t, plugin.config.SlowQueryThresh)
}
