package federation

import (
	"context"
	"time"
)

// Coordinator drives governing-to-brand fan-out: full reindex triggers and
// cache-bust notifications. Calls run sequentially with a per-call timeout;
// outcomes are aggregated per scope.
type Coordinator struct {
	Registry  *Registry
	Timeout   time.Duration
	NewClient func(b Brand) *Client
}

// NewCoordinator builds a Coordinator for the governing registry.
func NewCoordinator(registry *Registry, timeout time.Duration) *Coordinator {
	co := &Coordinator{Registry: registry, Timeout: timeout}
	co.NewClient = func(b Brand) *Client {
		return NewClient(b.URL, b.Secret, registry.Self)
	}
	return co
}

// TriggerReindexAll asks every registered brand to rebuild its scope.
func (co *Coordinator) TriggerReindexAll(ctx context.Context) (FanoutResult, error) {
	return co.fanout(ctx, func(ctx context.Context, b Brand) error {
		return co.NewClient(b).TriggerReindex(ctx)
	})
}

// CacheBustAll notifies every registered brand that its cached config is
// stale. Best-effort: failures are captured in the result, never raised, so
// the admin action that triggered the bust cannot fail on an unreachable
// brand.
func (co *Coordinator) CacheBustAll(ctx context.Context) (FanoutResult, error) {
	return co.fanout(ctx, func(ctx context.Context, b Brand) error {
		return co.NewClient(b).CacheBust(ctx)
	})
}

func (co *Coordinator) fanout(ctx context.Context, fn func(ctx context.Context, b Brand) error) (FanoutResult, error) {
	brands, err := co.Registry.Brands(ctx)
	if err != nil {
		return FanoutResult{}, err
	}
	return Fanout(ctx, brands, co.Timeout, fn), nil
}
