package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-notify-nosql/internal/config"
	"github.com/go-notify-nosql/internal/pkg/metrics"
	"github.com/sony/gobreaker"
)

// Breaker stops calling a provider whose failure ratio crossed the threshold.
// While open, sends fail fast with a failed Result.
type Breaker struct {
	next    Provider
	breaker *gobreaker.CircuitBreaker
}

func NewBreaker(name string, next Provider, cfg config.BreakerConfig) *Breaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("delivery circuit breaker state changed", "provider", name, "from", from.String(), "to", to.String())
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	}
	metrics.BreakerState.WithLabelValues(name).Set(float64(gobreaker.StateClosed))
	return &Breaker{next: next, breaker: gobreaker.NewCircuitBreaker(settings)}
}

func (b *Breaker) Send(ctx context.Context, msg Message) Result {
	out, err := b.breaker.Execute(func() (interface{}, error) {
		res := b.next.Send(ctx, msg)
		if !res.OK {
			return res, errors.New(res.Error)
		}
		return res, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return failed("provider unavailable: " + err.Error())
	}
	if res, ok := out.(Result); ok {
		return res
	}
	return failed(err.Error())
}

// State is exposed for tests and diagnostics.
func (b *Breaker) State() gobreaker.State { return b.breaker.State() }

// defaultBreakerTimeout keeps a misconfigured zero timeout from opening forever.
const defaultBreakerTimeout = 60 * time.Second
