package provider

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sony/gobreaker/v2"
	"github.com/spf13/viper"
)

const (
	defaultBreakerMaxFailures uint32 = 5
	defaultBreakerTimeout            = 30 * time.Second
	defaultBreakerInterval           = 60 * time.Second
)

// ErrCircuitOpen is returned when calls are rejected without reaching the
// underlying model endpoint.
var ErrCircuitOpen = errors.New("llm circuit open")

/*
BreakerProvider wraps another provider with a circuit breaker so a model
endpoint that keeps failing stops receiving traffic for a cooldown window
instead of stalling every routing decision.
*/
type BreakerProvider struct {
	inner   Interface
	breaker *gobreaker.CircuitBreaker[string]
}

func NewBreakerProvider(name string, inner Interface) *BreakerProvider {
	v := viper.GetViper()

	maxFailures := uint32(v.GetUint("breaker.max_failures"))
	if maxFailures == 0 {
		maxFailures = defaultBreakerMaxFailures
	}

	timeout := v.GetDuration("breaker.timeout")
	if timeout == 0 {
		timeout = defaultBreakerTimeout
	}

	interval := v.GetDuration("breaker.interval")
	if interval == 0 {
		interval = defaultBreakerInterval
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "llm:" + name,
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &BreakerProvider{inner: inner, breaker: breaker}
}

func (prvdr *BreakerProvider) Complete(
	ctx context.Context, messages []Message,
) (string, error) {
	out, err := prvdr.breaker.Execute(func() (string, error) {
		return prvdr.inner.Complete(ctx, messages)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", errors.Join(ErrCircuitOpen, err)
		}

		return "", err
	}

	return out, nil
}

// State exposes the breaker state for health reporting.
func (prvdr *BreakerProvider) State() gobreaker.State {
	return prvdr.breaker.State()
}

var _ Interface = (*BreakerProvider)(nil)
