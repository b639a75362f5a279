package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wwtpDashboard/internal/config"
	"wwtpDashboard/internal/logger"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const slowQuery = 100 * time.Millisecond

// Querier is the adapter surface used by repositories; both *DB and *Tx
// implement it.
type Querier interface {
	Dialect() Dialect
	Query(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	Select(ctx context.Context, dest any, query string, args ...any) error
	Get(ctx context.Context, dest any, query string, args ...any) error
	InsertID(ctx context.Context, table string, cols []string, args ...any) (int64, error)
}

type executor struct {
	ext     sqlx.ExtContext
	dialect Dialect
}

func (e executor) Dialect() Dialect {
	return e.dialect
}

func (e executor) prepare(query string, args []any) (string, []any, error) {
	q, a, err := Rewrite(e.dialect, query, args)
	if err != nil {
		logger.Error("Repository: query rewrite failed", err, zap.String("query", query))
		return "", nil, err
	}
	return q, a, nil
}

func observe(start time.Time, query string) {
	if d := time.Since(start); d > slowQuery {
		logger.Warn("Repository: slow query",
			zap.String("query", query),
			zap.Duration("ms", d))
	}
}

func (e executor) Query(ctx context.Context, query string, args ...any) (*sqlx.Rows, error) {
	q, a, err := e.prepare(query, args)
	if err != nil {
		return nil, err
	}
	defer observe(time.Now(), q)
	return e.ext.QueryxContext(ctx, q, a...)
}

func (e executor) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	q, a, err := e.prepare(query, args)
	if err != nil {
		return nil, err
	}
	defer observe(time.Now(), q)
	return e.ext.ExecContext(ctx, q, a...)
}

func (e executor) Select(ctx context.Context, dest any, query string, args ...any) error {
	q, a, err := e.prepare(query, args)
	if err != nil {
		return err
	}
	defer observe(time.Now(), q)
	return sqlx.SelectContext(ctx, e.ext, dest, q, a...)
}

// Get scans a single row into dest and returns sql.ErrNoRows when absent.
func (e executor) Get(ctx context.Context, dest any, query string, args ...any) error {
	q, a, err := e.prepare(query, args)
	if err != nil {
		return err
	}
	defer observe(time.Now(), q)
	return sqlx.GetContext(ctx, e.ext, dest, q, a...)
}

func (e executor) InsertID(ctx context.Context, table string, cols []string, args ...any) (int64, error) {
	query, returnsRow := e.dialect.InsertReturningID(table, cols)
	if !returnsRow {
		res, err := e.Exec(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}

	var id int64
	if err := e.Get(ctx, &id, query, args...); err != nil {
		return 0, err
	}
	return id, nil
}

// DB owns the process-wide connection pool.
type DB struct {
	executor
	conn *sqlx.DB
	dsn  string
}

type Tx struct {
	executor
}

func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	d, err := DialectFor(cfg.Type)
	if err != nil {
		return nil, err
	}

	dsn := d.DSN(cfg)
	conn, err := sqlx.Open(d.DriverName(), dsn)
	if err != nil {
		logger.Error("Repository: open failed", err, zap.String("dialect", d.Name()))
		return nil, fmt.Errorf("open %s: %w", d.Name(), err)
	}

	if _, ok := d.(SQLite); ok {
		// one connection keeps :memory: databases alive and serialises writers
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxIdleTime(0)
		conn.SetConnMaxLifetime(0)
	} else {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
		conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		logger.Error("Repository: ping failed", err, zap.String("dialect", d.Name()))
		return nil, fmt.Errorf("ping %s: %w", d.Name(), err)
	}

	logger.Info("Repository: connected",
		zap.String("dialect", d.Name()),
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name))

	db := New(conn, d)
	db.dsn = dsn
	return db, nil
}

// New wraps an existing pool.
func New(conn *sqlx.DB, d Dialect) *DB {
	return &DB{
		executor: executor{ext: conn, dialect: d},
		conn:     conn,
	}
}

func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	logger.Info("Repository: closing connection pool", zap.String("dialect", db.dialect.Name()))
	return db.conn.Close()
}

// InTx runs fn inside a transaction, rolling back when fn fails.
func (db *DB) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	if err := fn(&Tx{executor{ext: sqlTx, dialect: db.dialect}}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			logger.Error("Repository: rollback failed", rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
