package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/unklstewy/shipnav/pkg/config"
)

// retryDelay is the base wait between WithRetry attempts.
var retryDelay = time.Second

// ReconnectWithRetry attempts to connect to the database with exponential backoff.
//
// Parameters:
//   - ctx: Cancels the wait between attempts
//   - cfg: Database configuration
//   - maxRetries: Maximum number of connection attempts (0 = until ctx is done)
//   - initialDelay: Initial wait time between attempts
//   - logger: Receives one entry per failed attempt
//
// Returns: Connected database or the last error
func ReconnectWithRetry(ctx context.Context, cfg config.DatabaseConfig, maxRetries int, initialDelay time.Duration, logger *zap.Logger) (*DB, error) {
	delay := initialDelay

	for attempt := 1; ; attempt++ {
		db, err := Connect(cfg)
		if err == nil {
			if attempt > 1 {
				logger.Info("Database reconnected", zap.Int("attempt", attempt))
			}
			return db, nil
		}

		if maxRetries > 0 && attempt >= maxRetries {
			logger.Error("Failed to connect to database", zap.Int("attempts", attempt), zap.Error(err))
			return nil, err
		}

		logger.Warn("Database connection failed",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		// Exponential backoff with cap at 60 seconds
		delay *= 2
		if delay > 60*time.Second {
			delay = 60 * time.Second
		}
	}
}

// HealthCheck pings the database and runs a trivial query.
func HealthCheck(ctx context.Context, db *DB) error {
	if db == nil {
		return errors.New("database connection is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return err
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return err
	}
	if result != 1 {
		return errors.New("unexpected health check result")
	}

	return nil
}

// WithRetry runs operation and retries it on connection failures.
// Other errors are returned immediately. The wait grows linearly per attempt.
func WithRetry(ctx context.Context, maxRetries int, logger *zap.Logger, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsConnectionError(err) {
			return err
		}

		if attempt < maxRetries {
			wait := time.Duration(attempt+1) * retryDelay
			logger.Warn("Database operation failed, retrying",
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", maxRetries+1),
				zap.Duration("retry_in", wait),
				zap.Error(err))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}

	return lastErr
}

// connErrorPatterns are substrings of driver errors that mean the
// connection, not the statement, failed.
var connErrorPatterns = []string{
	"connection refused",
	"broken pipe",
	"no connection",
	"connection reset",
	"eof",
	"timeout",
}

// IsConnectionError reports whether err looks like a lost connection.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range connErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
