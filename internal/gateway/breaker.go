package gateway

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"PharmaBot/internal/metrics"
)

// BreakerConfig - настройки автомата защиты для вызовов бэкенда.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
	FailureRatio     float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns defaults tuned for a single REST backend.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          20 * time.Second,
		FailureThreshold: 5,
		FailureRatio:     0.6,
		MinRequests:      10,
	}
}

// breaker оборачивает gobreaker: спан на каждый вызов, состояние в метриках.
type breaker struct {
	cb      *gobreaker.CircuitBreaker
	name    string
	log     *zap.Logger
	tracer  trace.Tracer
	metrics *metrics.Metrics
}

func newBreaker(cfg BreakerConfig, log *zap.Logger, m *metrics.Metrics) *breaker {
	b := &breaker{
		name:    cfg.Name,
		log:     log,
		tracer:  otel.Tracer("pharmabot/gateway"),
		metrics: m,
	}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return counts.ConsecutiveFailures >= cfg.FailureThreshold
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			b.metrics.SetBreakerState(name, float64(to))
		},
		// 4xx - ответ бизнес-логики, а не сбой бэкенда.
		IsSuccessful: func(err error) bool {
			return err == nil || !IsTransient(err)
		},
	}
	b.cb = gobreaker.NewCircuitBreaker(settings)
	b.metrics.SetBreakerState(cfg.Name, float64(gobreaker.StateClosed))
	return b
}

// execute runs fn through the breaker inside a span named after op.
func (b *breaker) execute(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := b.tracer.Start(ctx, "gateway."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("breaker_name", b.name),
			attribute.String("breaker_state", b.cb.State().String()),
		))
	defer span.End()

	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			span.SetAttributes(attribute.Bool("circuit_open", true))
			err = &Error{Op: op, Err: err}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (b *breaker) state() gobreaker.State {
	return b.cb.State()
}
