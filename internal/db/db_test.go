package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/example/restaurant-ops/internal/internaltypes"
)

func TestAdvisoryKey(t *testing.T) {
	a := AdvisoryKey("r1|2025-11-22|19:00")
	require.Equal(t, a, AdvisoryKey("r1|2025-11-22|19:00"))
	require.NotEqual(t, a, AdvisoryKey("r1|2025-11-22|19:30"))
}

func TestWrapNotFound(t *testing.T) {
	require.NoError(t, WrapNotFound(nil))
	require.ErrorIs(t, WrapNotFound(pgx.ErrNoRows), ErrNotFound)
	require.True(t, IsNotFound(pgx.ErrNoRows))

	err := WrapNotFound(errors.New("connection refused"))
	require.EqualError(t, err, "db: connection refused")
	require.False(t, IsNotFound(err))

	badUUID := &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"}
	require.ErrorIs(t, WrapNotFound(badUUID), ErrNotFound)
}

// execQuerier records Exec calls and answers them with err.
type execQuerier struct {
	sql  []string
	args [][]any
	err  error
}

func (q *execQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.sql = append(q.sql, sql)
	q.args = append(q.args, args)
	return pgconn.CommandTag{}, q.err
}

func (q *execQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, q.err }
func (q *execQuerier) QueryRow(context.Context, string, ...any) pgx.Row       { return nil }

func TestSetLocalLockTimeout(t *testing.T) {
	ctx := context.Background()

	q := &execQuerier{}
	require.NoError(t, SetLocalLockTimeout(ctx, q, 0))
	require.Empty(t, q.sql)

	require.NoError(t, SetLocalLockTimeout(ctx, q, 2*time.Second))
	require.Len(t, q.sql, 1)
	require.Contains(t, q.sql[0], "lock_timeout")
	require.Equal(t, []any{"2000ms"}, q.args[0])

	require.Equal(t, "1ms", lockTimeoutValue(time.Microsecond))
}

func TestLockXact_TimeoutIsBusy(t *testing.T) {
	ctx := context.Background()

	q := &execQuerier{err: &pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"}}
	err := LockXact(ctx, q, "r1|2025-11-22|19:00")
	require.ErrorIs(t, err, internaltypes.ErrBusy)
	require.Equal(t, internaltypes.KindBusy, internaltypes.Kind(WrapNotFound(err)))
	require.Equal(t, []any{AdvisoryKey("r1|2025-11-22|19:00")}, q.args[0])

	q.err = errors.New("conn reset")
	err = LockXact(ctx, q, "k")
	require.Error(t, err)
	require.NotErrorIs(t, err, internaltypes.ErrBusy)

	require.NoError(t, LockXact(ctx, &execQuerier{}, "k"))
}

func TestDB_LockTimeout(t *testing.T) {
	d := &DB{}
	require.Zero(t, d.LockTimeout())
	d.SetLockTimeout(750 * time.Millisecond)
	require.Equal(t, 750*time.Millisecond, d.LockTimeout())
}
