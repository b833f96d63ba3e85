package credentials

import (
	"context"
	"errors"
	"sync"

	"brandforge/internal/core"
	"brandforge/internal/logger"
)

// ErrCredentialMissing is returned by workflows when a required capability
// was requested but the user did not provide it.
var ErrCredentialMissing = errors.New("required credentials were not provided")

// Provider answers whether a capability is currently satisfied and forwards
// requests for missing capabilities to whatever collaborator collects them
// (terminal prompt, settings UI). Request must not block.
type Provider interface {
	Has(capability core.Capability) bool
	Request(missing []core.Capability)
}

// Gate suspends operations until a set of capabilities is satisfied. Each
// caller of Ensure gets its own wait channel; the external collaborator
// resumes every suspended caller at once through Signal, after which each
// caller independently re-checks its own capability set. The gate never
// retries and never times out on its own: providing credentials involves a
// human, so bounded latency is explicitly not assumed.
type Gate struct {
	provider Provider

	mu      sync.Mutex
	waiters []chan struct{}
}

// NewGate creates a gate backed by the given provider.
func NewGate(provider Provider) *Gate {
	return &Gate{provider: provider}
}

// Ensure reports whether all required capabilities are satisfied. If they
// already are, it returns true without suspending. Otherwise it requests the
// missing capabilities from the provider and suspends until Signal is called
// or ctx is cancelled, then re-checks once: a caller resumed after the user
// declined or closed the request gets false, not a retry.
//
// Concurrent callers each suspend independently; the gate deliberately does
// not coalesce overlapping requests into one prompt.
func (g *Gate) Ensure(ctx context.Context, required ...core.Capability) bool {
	missing := g.missing(required)
	if len(missing) == 0 {
		return true
	}

	ch := make(chan struct{})
	g.mu.Lock()
	g.waiters = append(g.waiters, ch)
	g.mu.Unlock()

	logger.Debug("suspending on missing capabilities", "missing", capNames(missing))
	g.provider.Request(missing)

	select {
	case <-ch:
	case <-ctx.Done():
		g.dropWaiter(ch)
		return false
	}

	return len(g.missing(required)) == 0
}

// Signal resumes every suspended caller. It is called by the collaborator
// when the user has finished (or dismissed) the credential request; each
// resumed caller re-checks its own capability set against the provider.
func (g *Gate) Signal() {
	g.mu.Lock()
	waiters := g.waiters
	g.waiters = nil
	g.mu.Unlock()
	for _, ch := range waiters {
		close(ch)
	}
}

func (g *Gate) missing(required []core.Capability) []core.Capability {
	var missing []core.Capability
	for _, c := range required {
		if !g.provider.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

func (g *Gate) dropWaiter(ch chan struct{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, w := range g.waiters {
		if w == ch {
			g.waiters = append(g.waiters[:i], g.waiters[i+1:]...)
			return
		}
	}
}

func capNames(caps []core.Capability) []string {
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = string(c)
	}
	return names
}
