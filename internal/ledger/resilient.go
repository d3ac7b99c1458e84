package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kkkkikiki/flowfund/internal/metrics"
	"github.com/kkkkikiki/flowfund/internal/model"
)

// ResilienceConfig tunes ResilientReader.
type ResilienceConfig struct {
	RateLimit       float64 // reads per second, <= 0 disables throttling
	Burst           int
	MaxRetries      uint
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	InitialBackoff  time.Duration
}

// ResilientReader decorates a Reader with request throttling, a circuit
// breaker and retries of transient failures. Rejections, unknown ids and
// malformed snapshots are never retried.
type ResilientReader struct {
	next     Reader
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	maxTries uint
	backoff  time.Duration
}

// NewResilientReader wraps next.
func NewResilientReader(next Reader, cfg ResilienceConfig, logger *zap.Logger) *ResilientReader {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	initial := cfg.InitialBackoff
	if initial <= 0 {
		initial = 100 * time.Millisecond
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "ledger-reader",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || permanent(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("ledger circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			metrics.SetBreakerState(breakerGauge(to))
		},
	})

	return &ResilientReader{
		next:     next,
		limiter:  rate.NewLimiter(limit, burst),
		breaker:  breaker,
		maxTries: cfg.MaxRetries + 1,
		backoff:  initial,
	}
}

func (r *ResilientReader) TotalCampaigns(ctx context.Context) (uint64, error) {
	return call(ctx, r, r.next.TotalCampaigns)
}

func (r *ResilientReader) CampaignDetails(ctx context.Context, id uint64) (model.Snapshot, error) {
	return call(ctx, r, func(ctx context.Context) (model.Snapshot, error) {
		s, err := r.next.CampaignDetails(ctx, id)
		if err != nil {
			return model.Snapshot{}, err
		}
		if err := s.Validate(); err != nil {
			return model.Snapshot{}, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
		}
		return s, nil
	})
}

func (r *ResilientReader) UserContribution(ctx context.Context, id uint64, identity string) (decimal.Decimal, error) {
	return call(ctx, r, func(ctx context.Context) (decimal.Decimal, error) {
		return r.next.UserContribution(ctx, id, identity)
	})
}

func (r *ResilientReader) Admin(ctx context.Context) (string, error) {
	return call(ctx, r, r.next.Admin)
}

func call[T any](ctx context.Context, r *ResilientReader, op func(context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.backoff

	return backoff.Retry(ctx, func() (T, error) {
		var zero T
		if err := r.limiter.Wait(ctx); err != nil {
			return zero, backoff.Permanent(err)
		}

		v, err := r.breaker.Execute(func() (interface{}, error) {
			return op(ctx)
		})
		if err != nil {
			if permanent(err) || errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return zero, backoff.Permanent(err)
			}
			return zero, err
		}
		return v.(T), nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(r.maxTries))
}

func permanent(err error) bool {
	return IsRevert(err) ||
		errors.Is(err, ErrCampaignNotFound) ||
		errors.Is(err, ErrMalformedSnapshot) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func breakerGauge(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
