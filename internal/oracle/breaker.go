package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
)

// breakerProvider wraps a remote provider in a circuit breaker. While the
// breaker is open every call fails fast with ErrUnavailable, which the
// analyzer already knows how to absorb per node.
type breakerProvider struct {
	inner Provider
	cb    *gobreaker.CircuitBreaker
}

// WithBreaker wraps a provider in a circuit breaker
func WithBreaker(inner Provider) Provider {
	settings := gobreaker.Settings{
		Name:    "oracle-" + inner.Name(),
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Malformed responses are the model's fault, not the service's;
			// they should not trip the breaker.
			return err == nil || errors.Is(err, ErrInvalidResponse)
		},
	}
	return &breakerProvider{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker(settings),
	}
}

func (p *breakerProvider) Name() string {
	return p.inner.Name()
}

func (p *breakerProvider) Assess(ctx context.Context, req Request) (*Judgment, error) {
	result, err := p.cb.Execute(func() (interface{}, error) {
		return p.inner.Assess(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", ErrUnavailable)
		}
		return nil, err
	}
	return result.(*Judgment), nil
}
