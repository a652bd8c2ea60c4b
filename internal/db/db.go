package db

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/blake2b"

	"github.com/example/restaurant-ops/internal/internaltypes"
)

type DB struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

func Open(ctx context.Context, databaseURL string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnLifetime = 5 * time.Minute
	cfg.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &DB{pool: pool}, nil
}

func (d *DB) Close() {
	d.pool.Close()
}

func (d *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return d.pool.Ping(ctx)
}

func (d *DB) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := d.pool.Exec(ctx, sql, args...)
	return err
}

func (d *DB) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return d.pool.QueryRow(ctx, sql, args...)
}

func (d *DB) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return d.pool.Query(ctx, sql, args...)
}

// SetLockTimeout bounds how long LockXact waits inside transactions this DB
// opens through stores. Zero waits until the context ends.
func (d *DB) SetLockTimeout(t time.Duration) { d.lockTimeout = t }

func (d *DB) LockTimeout() time.Duration { return d.lockTimeout }

// Q exposes the pool as a Querier so stores can share code between pooled
// and transactional access.
func (d *DB) Q() Querier { return d.pool }

// InTx runs fn inside a read-committed transaction. fn's error rolls back.
func (d *DB) InTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	tx, err := d.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SQLSTATE lock_not_available, raised when lock_timeout expires.
const codeLockNotAvailable = "55P03"

// SetLocalLockTimeout applies lock_timeout for the rest of the current
// transaction. A non-positive d leaves the server setting alone.
func SetLocalLockTimeout(ctx context.Context, q Querier, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	_, err := q.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, lockTimeoutValue(d))
	return err
}

func lockTimeoutValue(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	return strconv.FormatInt(ms, 10) + "ms"
}

// LockXact takes a transaction scoped advisory lock for key. It is released
// on commit or rollback. A wait cut short by lock_timeout is ErrBusy.
func LockXact(ctx context.Context, q Querier, key string) error {
	_, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, AdvisoryKey(key))
	if isLockTimeout(err) {
		return internaltypes.ErrBusy
	}
	return err
}

func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeLockNotAvailable
}

// AdvisoryKey derives the bigint lock id postgres advisory locks take.
func AdvisoryKey(key string) int64 {
	sum := blake2b.Sum256([]byte(key))
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Row interface {
	Scan(dest ...any) error
}

type Rows interface {
	Close()
	Err() error
	Next() bool
	Scan(dest ...any) error
}

var ErrNotFound = internaltypes.ErrNotFound

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, pgx.ErrNoRows)
}

func WrapNotFound(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if errors.Is(err, internaltypes.ErrBusy) || isLockTimeout(err) {
		return internaltypes.ErrBusy
	}
	// a malformed uuid can never match a row
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "22P02" {
		return ErrNotFound
	}
	return fmt.Errorf("db: %w", err)
}
