package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/sethvargo/go-retry"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Bbt3-alx/akera-backend/pkg/config"
	pkgerrors "github.com/Bbt3-alx/akera-backend/pkg/errors"
	"github.com/Bbt3-alx/akera-backend/pkg/logger"
	"github.com/Bbt3-alx/akera-backend/pkg/metrics"
)

const (
	defaultTxMaxAttempts    = 3
	defaultTxInitialBackoff = 100 * time.Millisecond
	defaultTxCommitTimeout  = 5 * time.Second
)

// Client wraps the shared GORM connection and the transaction orchestrator.
type Client struct {
	conn *gorm.DB

	txMaxAttempts    int
	txInitialBackoff time.Duration
	txCommitTimeout  time.Duration

	txMetrics *metrics.TransactionMetrics
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New boots a GORM client using the provided configuration.
func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	dialector := postgres.New(postgres.Config{
		DSN:                  cfg.DSN,
		PreferSimpleProtocol: true,
	})

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	gormCfg := &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	}

	conn, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("opening db connection: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}

	applyPoolSettings(sqlDB, cfg)

	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if logg != nil {
		logg.Info(ctx, "database connection established")
	}

	client := &Client{
		conn:             conn,
		txMaxAttempts:    cfg.TxMaxAttempts,
		txInitialBackoff: cfg.TxInitialBackoff,
		txCommitTimeout:  cfg.TxCommitTimeout,
	}
	client.applyTxDefaults()
	return client, nil
}

// NewWithConn wraps an already-open GORM connection. Used by tests and
// workers that bootstrap their own dialector.
func NewWithConn(conn *gorm.DB) *Client {
	client := &Client{conn: conn}
	client.applyTxDefaults()
	return client
}

func (c *Client) applyTxDefaults() {
	if c.txMaxAttempts <= 0 {
		c.txMaxAttempts = defaultTxMaxAttempts
	}
	if c.txInitialBackoff <= 0 {
		c.txInitialBackoff = defaultTxInitialBackoff
	}
	if c.txCommitTimeout <= 0 {
		c.txCommitTimeout = defaultTxCommitTimeout
	}
}

// WithMetrics attaches transaction metrics to the client.
func (c *Client) WithMetrics(m *metrics.TransactionMetrics) *Client {
	c.txMetrics = m
	return c
}

func applyPoolSettings(sqlDB *sql.DB, cfg config.DBConfig) {
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
}

// DB returns the underlying GORM connection.
func (c *Client) DB() *gorm.DB {
	return c.conn
}

// Ping verifies the datasource is reachable.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close shuts down the pooled connections.
func (c *Client) Close() error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTx executes fn inside a transaction, rolling back on error/panic.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	tx := c.conn.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

// WithTxRetry runs fn inside a transaction and retries the whole unit on
// transient store conflicts (serialization failures, deadlocks, commit
// timeouts) with exponential backoff. Business errors abort immediately and
// surface unmodified; an exhausted retry budget surfaces as a conflict.
func (c *Client) WithTxRetry(ctx context.Context, fn func(tx *gorm.DB) error) error {
	backoff := retry.WithMaxRetries(
		uint64(c.txMaxAttempts-1),
		retry.NewExponential(c.txInitialBackoff),
	)

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		txCtx, cancel := context.WithTimeout(ctx, c.txCommitTimeout)
		defer cancel()

		err := c.WithTx(txCtx, fn)
		if err == nil {
			return nil
		}
		if IsTransient(err) {
			if c.txMetrics != nil {
				c.txMetrics.IncRetry()
			}
			return retry.RetryableError(err)
		}
		return err
	})
	if err == nil {
		return nil
	}
	if IsTransient(err) {
		if c.txMetrics != nil {
			c.txMetrics.IncExhausted()
		}
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "transaction retry budget exhausted").
			WithDetails(map[string]any{"attempts": attempt})
	}
	return err
}

// IsTransient reports whether the error is a store-level conflict worth
// retrying: Postgres serialization failures and deadlocks, plus transaction
// commit timeouts.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return isTransientCode(pgxErr.Code)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return isTransientCode(string(pqErr.Code))
	}
	return false
}

func isTransientCode(code string) bool {
	switch code {
	case "40001", // serialization_failure
		"40P01": // deadlock_detected
		return true
	}
	return false
}
