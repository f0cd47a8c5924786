// Package postgres implements the snapshot history repository on Postgres
// with retryable operations.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"

	"github.com/mkurnosov/webpulse/internal/domain"
	"github.com/mkurnosov/webpulse/internal/misc"
	"github.com/mkurnosov/webpulse/internal/ports"
)

// Repo stores snapshot history rows in Postgres.
type Repo struct {
	db *sql.DB
}

var _ ports.HistoryRepo = (*Repo)(nil)

var retryablePGCodes = map[string]struct{}{
	pgerrcode.ConnectionException:                           {},
	pgerrcode.ConnectionDoesNotExist:                        {},
	pgerrcode.ConnectionFailure:                             {},
	pgerrcode.SQLClientUnableToEstablishSQLConnection:       {},
	pgerrcode.SQLServerRejectedEstablishmentOfSQLConnection: {},
	pgerrcode.TransactionResolutionUnknown:                  {},
	pgerrcode.ProtocolViolation:                             {},
	pgerrcode.SerializationFailure:                          {},
	pgerrcode.DeadlockDetected:                              {},
	pgerrcode.LockNotAvailable:                              {},
	pgerrcode.TooManyConnections:                            {},
	pgerrcode.AdminShutdown:                                 {},
	pgerrcode.CrashShutdown:                                 {},
	pgerrcode.CannotConnectNow:                              {},
	pgerrcode.QueryCanceled:                                 {},
}

// New returns a Postgres-backed history repository.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Insert appends one snapshot row.
func (r *Repo) Insert(ctx context.Context, e domain.HistoryEntry) error {
	data, err := json.Marshal(e.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	const q = `INSERT INTO snapshots (taken_at, data) VALUES ($1, $2)`
	op := func() error {
		_, err := r.db.ExecContext(ctx, q, e.TakenAt, data)
		return err
	}
	return misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op)
}

// Latest returns the newest stored snapshot or domain.ErrNotFound.
func (r *Repo) Latest(ctx context.Context) (domain.HistoryEntry, error) {
	const q = `SELECT taken_at, data FROM snapshots ORDER BY taken_at DESC LIMIT 1`
	var e domain.HistoryEntry
	op := func() error {
		var raw []byte
		if err := r.db.QueryRowContext(ctx, q).Scan(&e.TakenAt, &raw); err != nil {
			return err
		}
		return json.Unmarshal(raw, &e.Snapshot)
	}
	if err := misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.HistoryEntry{}, domain.ErrNotFound
		}
		return domain.HistoryEntry{}, err
	}
	return e, nil
}

// Range returns snapshots taken at or after since, newest first.
func (r *Repo) Range(ctx context.Context, since time.Time, limit int) ([]domain.HistoryEntry, error) {
	const q = `SELECT taken_at, data FROM snapshots WHERE taken_at >= $1 ORDER BY taken_at DESC LIMIT $2`
	if limit <= 0 {
		limit = 100
	}

	var result []domain.HistoryEntry
	op := func() error {
		rows, err := r.db.QueryContext(ctx, q, since, limit)
		if err != nil {
			return err
		}
		defer func() {
			_ = rows.Close()
		}()

		var out []domain.HistoryEntry
		for rows.Next() {
			var e domain.HistoryEntry
			var raw []byte
			if err := rows.Scan(&e.TakenAt, &raw); err != nil {
				return err
			}
			if err := json.Unmarshal(raw, &e.Snapshot); err != nil {
				return err
			}
			out = append(out, e)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		result = out
		return nil
	}
	if err := misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op); err != nil {
		return nil, err
	}
	return result, nil
}

// Ping verifies the database connection using a short-lived context.
func (r *Repo) Ping(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	op := func() error {
		return r.db.PingContext(ctx)
	}
	return misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op)
}

// IsRetryable reports whether the error should trigger a retry according to
// Postgres semantics.
func IsRetryable(err error) bool {
	return isRetryablePG(err)
}

func isRetryablePG(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var pqe *pq.Error
	if errors.As(err, &pqe) {
		return isRetryablePGCode(string(pqe.Code))
	}
	return false
}

func isRetryablePGCode(code string) bool {
	if _, ok := retryablePGCodes[code]; ok {
		return true
	}
	if strings.HasPrefix(code, "08") {
		return true
	}
	if strings.HasPrefix(code, "40") {
		return true
	}
	return false
}
