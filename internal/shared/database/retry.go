package database

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	apperrors "corridors-server/internal/shared/errors"
)

const (
	// RetryAttempts bounds retry loops around lock contention.
	RetryAttempts = 5
	// RetryBaseBackoff is doubled on every failed attempt.
	RetryBaseBackoff = 500 * time.Millisecond
)

// IsLocked reports whether err is transient lock contention: sqlite
// BUSY/LOCKED or a postgres lock/serialization failure.
func IsLocked(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "55P03", // lock_not_available
			"40001", // serialization_failure
			"40P01": // deadlock_detected
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}

// RunLocked runs fn, retrying on lock contention with exponential
// backoff. Non-contention errors return immediately.
func RunLocked(ctx context.Context, logger *slog.Logger, fn func() error) error {
	backoff := RetryBaseBackoff

	var err error
	for attempt := 1; attempt <= RetryAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !IsLocked(err) {
			return err
		}

		if attempt == RetryAttempts {
			break
		}

		logger.Warn("Database locked, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return apperrors.WrapContention("database stayed locked through all retries", err)
}
