package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaultsMatchReplenishmentPolicy(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, 30, cfg.Engine.ForecastHorizonDays)
	assert.Equal(t, 7, cfg.Engine.LeadTimeDays)
	assert.InDelta(t, 1.5, cfg.Engine.SafetyStockFactor, 1e-9)
	assert.InDelta(t, 10, cfg.Engine.MinOrderQuantity, 1e-9)
	assert.InDelta(t, 1000, cfg.Engine.MaxOrderQuantity, 1e-9)
	assert.InDelta(t, 0.95, cfg.Engine.ConfidenceLevel, 1e-9)
	assert.InDelta(t, 0.1, cfg.Engine.TrendThreshold, 1e-9)
	assert.Equal(t, 5, cfg.Engine.TopPriorityLimit)
	assert.Equal(t, 14, cfg.Engine.PerformanceWindow)
	assert.Equal(t, 4, cfg.App.PipelineWorkers)
	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 10, cfg.Database.MaxConcurrentTx)
}

func TestEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("LEAD_TIME_DAYS", "3")
	t.Setenv("SAFETY_STOCK_FACTOR", "2.25")
	t.Setenv("CACHE_ENABLED", "true")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	cfg := fromViper(v)

	assert.Equal(t, 3, cfg.Engine.LeadTimeDays)
	assert.InDelta(t, 2.25, cfg.Engine.SafetyStockFactor, 1e-9)
	assert.True(t, cfg.Cache.Enabled)
}

func TestDatabaseConnectionStrings(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5433", User: "app", Password: "p@ss", DBName: "demand", SSLMode: "disable"}

	assert.Equal(t, "host=db port=5433 user=app password=p@ss dbname=demand sslmode=disable", db.DSN())
	assert.Equal(t, "postgres://app:p%40ss@db:5433/demand?sslmode=disable", db.URL())
}
