package credentials

import (
	"context"
	"sync"
	"testing"
	"time"

	"brandforge/internal/core"
)

// fakeProvider is a Provider whose capability set can be flipped while
// callers are suspended.
type fakeProvider struct {
	mu        sync.Mutex
	granted   map[core.Capability]bool
	requested [][]core.Capability
}

func newFakeProvider(granted ...core.Capability) *fakeProvider {
	p := &fakeProvider{granted: make(map[core.Capability]bool)}
	for _, c := range granted {
		p.granted[c] = true
	}
	return p
}

func (p *fakeProvider) Has(c core.Capability) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.granted[c]
}

func (p *fakeProvider) Request(missing []core.Capability) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requested = append(p.requested, missing)
}

func (p *fakeProvider) grant(c core.Capability) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.granted[c] = true
}

func TestEnsure_SatisfiedReturnsImmediately(t *testing.T) {
	provider := newFakeProvider(core.CapabilityStorage)
	gate := NewGate(provider)

	if !gate.Ensure(context.Background(), core.CapabilityStorage) {
		t.Error("Ensure should return true when all capabilities are satisfied")
	}
	if len(provider.requested) != 0 {
		t.Error("no request should be issued for satisfied capabilities")
	}
}

func TestEnsure_SuspendsUntilSignalThenRechecks(t *testing.T) {
	provider := newFakeProvider()
	gate := NewGate(provider)

	result := make(chan bool, 1)
	go func() {
		result <- gate.Ensure(context.Background(), core.CapabilityStorage)
	}()

	select {
	case <-result:
		t.Fatal("Ensure should be suspended before the signal")
	case <-time.After(50 * time.Millisecond):
	}

	provider.grant(core.CapabilityStorage)
	gate.Signal()

	select {
	case got := <-result:
		if !got {
			t.Error("Ensure should return true after the capability was granted")
		}
	case <-time.After(time.Second):
		t.Fatal("Ensure did not resume after Signal")
	}
}

func TestEnsure_CancelledRequestReturnsFalse(t *testing.T) {
	provider := newFakeProvider()
	gate := NewGate(provider)

	result := make(chan bool, 1)
	go func() {
		result <- gate.Ensure(context.Background(), core.CapabilityRemoteStore)
	}()
	time.Sleep(20 * time.Millisecond)

	// User closed the request without providing anything.
	gate.Signal()

	select {
	case got := <-result:
		if got {
			t.Error("Ensure should return false when the capability is still missing after resume")
		}
	case <-time.After(time.Second):
		t.Fatal("Ensure did not resume after Signal")
	}
}

func TestEnsure_ConcurrentCallersAllResume(t *testing.T) {
	provider := newFakeProvider()
	gate := NewGate(provider)

	results := make(chan bool, 2)
	for i := 0; i < 2; i++ {
		go func() {
			results <- gate.Ensure(context.Background(), core.CapabilityStorage)
		}()
	}

	// Both callers must be suspended before the user answers.
	select {
	case <-results:
		t.Fatal("no caller should have resumed yet")
	case <-time.After(50 * time.Millisecond):
	}

	provider.grant(core.CapabilityStorage)
	gate.Signal()

	for i := 0; i < 2; i++ {
		select {
		case got := <-results:
			if !got {
				t.Errorf("caller %d should have returned true", i)
			}
		case <-time.After(time.Second):
			t.Fatal("a caller was left permanently suspended")
		}
	}
}

func TestEnsure_ContextCancellation(t *testing.T) {
	provider := newFakeProvider()
	gate := NewGate(provider)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan bool, 1)
	go func() {
		result <- gate.Ensure(ctx, core.CapabilityTextGen)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case got := <-result:
		if got {
			t.Error("cancelled Ensure should return false")
		}
	case <-time.After(time.Second):
		t.Fatal("Ensure did not observe context cancellation")
	}

	// A later Signal must not panic on the removed waiter.
	gate.Signal()
}

func TestEnsure_RequestsOnlyMissingCapabilities(t *testing.T) {
	provider := newFakeProvider(core.CapabilityTextGen)
	gate := NewGate(provider)

	go gate.Ensure(context.Background(), core.CapabilityTextGen, core.CapabilityStorage)
	time.Sleep(20 * time.Millisecond)

	provider.mu.Lock()
	defer provider.mu.Unlock()
	if len(provider.requested) != 1 {
		t.Fatalf("requests = %d, want 1", len(provider.requested))
	}
	if len(provider.requested[0]) != 1 || provider.requested[0][0] != core.CapabilityStorage {
		t.Errorf("requested = %v, want only the storage capability", provider.requested[0])
	}
}
