package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"busbooking/internal/domain"

	"github.com/go-sql-driver/mysql"
)

const (
	mysqlDuplicateEntry  = 1062 // ER_DUP_ENTRY
	mysqlLockWaitTimeout = 1205 // ER_LOCK_WAIT_TIMEOUT
	mysqlDeadlock        = 1213 // ER_LOCK_DEADLOCK
)

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NullIfEmpty helps store optional strings without wiping existing data.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// NullTime maps a nil pointer to SQL NULL.
func NullTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return *t
}

// TimePtr converts a scanned sql.NullTime to a pointer.
func TimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// IsDuplicateKey reports a unique-index violation. When key is non-empty, only
// violations of that index match.
func IsDuplicateKey(err error, key string) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return false
	}
	return key == "" || strings.Contains(me.Message, key)
}

// IsLockContention reports a deadlock or lock wait timeout. InnoDB rolls back the
// losing statement, so the caller may retry.
func IsLockContention(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == mysqlDeadlock || me.Number == mysqlLockWaitTimeout
}

// WrapStoreError turns timeouts and dropped connections into ServiceUnavailableError
// and wraps everything else with op.
func WrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, driver.ErrBadConn) {
		return domain.ServiceUnavailableError{Err: fmt.Errorf("%s: %w", op, err)}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// WithTx runs fn inside a transaction, committing on nil and rolling back otherwise.
func WithTx(ctx context.Context, conn *sql.DB, fn func(tx *sql.Tx) error) error {
	if conn == nil {
		return domain.ServiceUnavailableError{Err: errors.New("db not available")}
	}
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return WrapStoreError("begin tx", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return WrapStoreError("commit tx", err)
	}
	return nil
}

// Placeholders returns "?,?,..." with n entries.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
