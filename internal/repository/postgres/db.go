package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/sync/semaphore"

	"github.com/andresuchdata/demandflow/internal/config"
)

// DB is the replenishment store's connection pool. Writes go through WithTx,
// which caps how many transactions a refresh can hold open at once.
type DB struct {
	*sqlx.DB
	sem *semaphore.Weighted
}

type poolSettings struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
	maxTx       int64
}

func poolSettingsFor(cfg *config.DatabaseConfig) poolSettings {
	p := poolSettings{
		maxOpen:     cfg.MaxOpenConns,
		maxIdle:     cfg.MaxIdleConns,
		maxLifetime: cfg.ConnMaxLifetime,
		maxTx:       int64(cfg.MaxConcurrentTx),
	}
	if p.maxOpen <= 0 {
		p.maxOpen = 25
	}
	if p.maxIdle < 0 || p.maxIdle > p.maxOpen {
		p.maxIdle = p.maxOpen
	}
	if p.maxLifetime <= 0 {
		p.maxLifetime = 5 * time.Minute
	}
	// a transaction holds a connection, so more slots than connections only queues in the driver
	if p.maxTx <= 0 || p.maxTx > int64(p.maxOpen) {
		p.maxTx = int64(p.maxOpen)
	}
	return p
}

// NewDB opens and pings the pool. The caller owns it and must Close it.
func NewDB(cfg *config.DatabaseConfig) (*DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect %s@%s/%s: %w", cfg.User, cfg.Host, cfg.DBName, err)
	}

	p := poolSettingsFor(cfg)
	db.SetMaxOpenConns(p.maxOpen)
	db.SetMaxIdleConns(p.maxIdle)
	db.SetConnMaxLifetime(p.maxLifetime)

	return Wrap(db, p.maxTx), nil
}

// Wrap limits concurrent transactions on an existing pool.
func Wrap(db *sqlx.DB, maxConcurrentTx int64) *DB {
	if maxConcurrentTx < 1 {
		maxConcurrentTx = 1
	}
	return &DB{DB: db, sem: semaphore.NewWeighted(maxConcurrentTx)}
}

// WithTx runs fn in a transaction, committing when it returns nil. A failed
// rollback is joined onto fn's error so neither is lost.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := db.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("wait for tx slot: %w", err)
	}
	defer db.sem.Release(1)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx.Tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
