package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/andresuchdata/demandflow/internal/config"
)

func TestPoolSettingsDefaults(t *testing.T) {
	p := poolSettingsFor(&config.DatabaseConfig{})

	assert.Equal(t, 25, p.maxOpen)
	assert.Equal(t, 0, p.maxIdle)
	assert.Equal(t, 5*time.Minute, p.maxLifetime)
	assert.Equal(t, int64(25), p.maxTx)
}

func TestPoolSettingsClampToOpenConnections(t *testing.T) {
	p := poolSettingsFor(&config.DatabaseConfig{
		MaxOpenConns:    4,
		MaxIdleConns:    9,
		ConnMaxLifetime: time.Minute,
		MaxConcurrentTx: 10,
	})

	assert.Equal(t, 4, p.maxOpen)
	assert.Equal(t, 4, p.maxIdle)
	assert.Equal(t, time.Minute, p.maxLifetime)
	assert.Equal(t, int64(4), p.maxTx)
}

func TestWrapAllowsAtLeastOneTransaction(t *testing.T) {
	db := Wrap(nil, 0)

	assert.True(t, db.sem.TryAcquire(1))
	assert.False(t, db.sem.TryAcquire(1))
}

func TestWithTxGivesUpWhenSlotsStayTaken(t *testing.T) {
	db := Wrap(nil, 1)
	assert.True(t, db.sem.TryAcquire(1))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	err := db.WithTx(ctx, func(*sql.Tx) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorContains(t, err, "wait for tx slot")
	assert.False(t, called)
}
