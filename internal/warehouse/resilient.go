// Retention - Mobile Analytics Retention Pipeline and Dashboard API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/retention

package warehouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/retention/internal/logging"
	"github.com/tomtom215/retention/internal/metrics"
)

// ResilientClient wraps a Client with a circuit breaker and a request rate
// limiter. While the breaker is open, calls fail with ErrCircuitOpen.
type ResilientClient struct {
	client  Client
	cb      *gobreaker.CircuitBreaker[any]
	limiter *rate.Limiter
	name    string
}

// BreakerSettings tunes the circuit breaker. Zero values use the defaults.
type BreakerSettings struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// DefaultBreakerSettings trip after 5 consecutive failures, or 60% failures
// over at least 10 requests, and probe again after 30 seconds.
var DefaultBreakerSettings = BreakerSettings{
	MaxRequests:         3,
	Interval:            time.Minute,
	Timeout:             30 * time.Second,
	ConsecutiveFailures: 5,
}

// NewResilientClient wraps client. requestsPerSecond <= 0 disables limiting.
func NewResilientClient(client Client, requestsPerSecond float64) *ResilientClient {
	return NewResilientClientWithSettings(client, requestsPerSecond, DefaultBreakerSettings)
}

// NewResilientClientWithSettings wraps client with explicit breaker settings.
func NewResilientClientWithSettings(client Client, requestsPerSecond float64, s BreakerSettings) *ResilientClient {
	cbName := "bigquery-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(0)

	if s.MaxRequests == 0 {
		s.MaxRequests = DefaultBreakerSettings.MaxRequests
	}
	if s.Interval == 0 {
		s.Interval = DefaultBreakerSettings.Interval
	}
	if s.Timeout == 0 {
		s.Timeout = DefaultBreakerSettings.Timeout
	}
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = DefaultBreakerSettings.ConsecutiveFailures
	}

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= s.ConsecutiveFailures {
				return true
			}
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},

		// Cancellation is the caller's decision, not a warehouse failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Warn().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}

	return &ResilientClient{
		client:  client,
		cb:      cb,
		limiter: limiter,
		name:    cbName,
	}
}

// State returns the current breaker state name.
func (rc *ResilientClient) State() string {
	return stateToString(rc.cb.State())
}

// execute waits for the limiter, then runs fn under the breaker.
func (rc *ResilientClient) execute(ctx context.Context, operation string, fn func() (any, error)) (any, error) {
	if rc.limiter != nil {
		if err := rc.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("warehouse rate limiter: %w", err)
		}
	}

	start := time.Now()
	result, err := rc.cb.Execute(fn)
	metrics.RecordWarehouseRequest(operation, time.Since(start), err)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(rc.name, "rejected").Inc()
			return nil, fmt.Errorf("%w: %s", ErrCircuitOpen, err.Error())
		}
		metrics.CircuitBreakerRequests.WithLabelValues(rc.name, "failure").Inc()
		counts := rc.cb.Counts()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(rc.name).Set(float64(counts.ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(rc.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(rc.name).Set(0)
	return result, nil
}

// castResult type-asserts the breaker result.
func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// ListTables lists tables with breaker protection.
func (rc *ResilientClient) ListTables(ctx context.Context) ([]string, error) {
	return castResult[[]string](rc.execute(ctx, "list_tables", func() (any, error) {
		return rc.client.ListTables(ctx)
	}))
}

// Schema fetches a table schema with breaker protection.
func (rc *ResilientClient) Schema(ctx context.Context, table string) (Schema, error) {
	return castResult[Schema](rc.execute(ctx, "schema", func() (any, error) {
		return rc.client.Schema(ctx, table)
	}))
}

// ReadPage reads one page with breaker protection.
func (rc *ResilientClient) ReadPage(ctx context.Context, table string, req PageRequest) (*Page, error) {
	return castResult[*Page](rc.execute(ctx, "read_page", func() (any, error) {
		return rc.client.ReadPage(ctx, table, req)
	}))
}

// Ping checks reachability with breaker protection.
func (rc *ResilientClient) Ping(ctx context.Context) error {
	_, err := rc.execute(ctx, "ping", func() (any, error) {
		return nil, rc.client.Ping(ctx)
	})
	return err
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
