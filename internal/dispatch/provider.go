package dispatch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"sublingo/internal/services"
)

// Completer is the provider client contract: send a system instruction and a
// user payload, return the raw model text.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// HealthChecker is implemented by clients that can verify credentials.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Provider is one configured backend.
type Provider struct {
	Name   string
	Client Completer
	// MaxConcurrent bounds in-flight calls; values below 1 mean 1.
	MaxConcurrent int
	// RequestsPerSecond throttles call starts; zero disables throttling.
	RequestsPerSecond float64
	// Timeout bounds one call; zero leaves it to the client.
	Timeout time.Duration
}

type provider struct {
	Provider
	permits *semaphore.Weighted
	limiter *rate.Limiter
}

func newProvider(p Provider) (*provider, error) {
	if p.Name == "" {
		return nil, services.Wrap(services.ErrConfiguration, "dispatch", "provider", "provider name required", nil)
	}
	if p.Client == nil {
		return nil, services.Wrap(services.ErrConfiguration, "dispatch", "provider", fmt.Sprintf("provider %s has no client", p.Name), nil)
	}
	if p.MaxConcurrent < 1 {
		p.MaxConcurrent = 1
	}
	rt := &provider{Provider: p, permits: semaphore.NewWeighted(int64(p.MaxConcurrent))}
	if p.RequestsPerSecond > 0 {
		burst := max(1, int(p.RequestsPerSecond))
		rt.limiter = rate.NewLimiter(rate.Limit(p.RequestsPerSecond), burst)
	}
	return rt, nil
}

// complete runs one guarded call. The permit is held until the call returns
// and is released on every exit path.
func (p *provider) complete(ctx context.Context, systemPrompt, userPrompt string) (raw string, err error) {
	if err := p.permits.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer p.permits.Release(1)
	defer func() {
		if r := recover(); r != nil {
			err = services.Wrap(services.ErrTransient, "dispatch", "call", fmt.Sprintf("provider %s panicked: %v", p.Name, r), nil)
		}
	}()

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	return p.Client.CompleteJSON(ctx, systemPrompt, userPrompt)
}
