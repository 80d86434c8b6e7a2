package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/unklstewy/shipnav/pkg/config"
)

// TestConnect tests that an unreachable server is reported, not hung on.
func TestConnect(t *testing.T) {
	t.Run("Unreachable server returns an error", func(t *testing.T) {
		cfg := config.DatabaseConfig{
			Host:         "127.0.0.1",
			Port:         1,
			Username:     "testuser",
			Database:     "testdb",
			SSLMode:      "disable",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		}

		db, err := Connect(cfg)
		if err == nil {
			db.Close()
			t.Skip("something is listening on port 1")
		}
		assert.Contains(t, err.Error(), "failed to ping database")
	})
}

// TestConnString tests connection string construction.
func TestConnString(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want string
	}{
		{
			name: "All fields",
			cfg: config.DatabaseConfig{
				Host: "localhost", Port: 5432, Username: "nav", Password: "secret",
				Database: "shipnav", SSLMode: "disable",
			},
			want: "host=localhost port=5432 user=nav password=secret dbname=shipnav sslmode=disable",
		},
		{
			name: "Empty password is omitted",
			cfg: config.DatabaseConfig{
				Host: "db", Port: 5433, Username: "nav", Database: "runs", SSLMode: "require",
			},
			want: "host=db port=5433 user=nav dbname=runs sslmode=require",
		},
		{
			name: "Values with spaces and quotes are quoted",
			cfg: config.DatabaseConfig{
				Host: "db", Port: 5432, Username: "nav", Password: `it's a pass`,
				Database: "runs", SSLMode: "disable",
			},
			want: `host=db port=5432 user=nav password='it\'s a pass' dbname=runs sslmode=disable`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, connString(tt.cfg))
		})
	}
}

// TestIsConnectionError tests connection error classification.
func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"Nil", nil, false},
		{"Refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), true},
		{"Upper case EOF", errors.New("unexpected EOF"), true},
		{"Bad connection", fmt.Errorf("query: %w", driver.ErrBadConn), true},
		{"Constraint violation", errors.New(`pq: duplicate key value violates unique constraint "runs_pkey"`), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsConnectionError(tt.err))
		})
	}
}

// TestWithRetry tests retry behavior on connection and other errors.
func TestWithRetry(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = old })

	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	t.Run("Succeeds after transient connection failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, 3, logger, func() error {
			calls++
			if calls < 3 {
				return errors.New("connection reset by peer")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("Does not retry other errors", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, 3, logger, func() error {
			calls++
			return errors.New("syntax error at or near")
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("Gives up after max retries", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, 2, logger, func() error {
			calls++
			return errors.New("broken pipe")
		})
		assert.EqualError(t, err, "broken pipe")
		assert.Equal(t, 3, calls)
	})

	t.Run("Stops when the context is cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		err := WithRetry(cctx, 5, logger, func() error {
			return errors.New("timeout")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// TestHealthCheckNil tests that a nil connection is unhealthy.
func TestHealthCheckNil(t *testing.T) {
	assert.Error(t, HealthCheck(context.Background(), nil))
}
