package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited caps the rate of calls to a shared Generator across all requests.
// Callers wait for a token, or give up when their context ends.
type RateLimited struct {
	Generator
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond calls per second with the given burst.
func NewRateLimited(g Generator, perSecond float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{Generator: g, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Generate waits for the limiter and then calls the wrapped generator.
func (r *RateLimited) Generate(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return r.Generator.Generate(ctx, prompt)
}

// Ping forwards to the wrapped generator when it supports connectivity checks.
func (r *RateLimited) Ping(ctx context.Context) error {
	if p, ok := r.Generator.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
