package graph

import (
	"sync"

	"brandforge/internal/core"
)

// Store holds the current content graph and serializes edits against it.
// Apply itself is pure; the store exists so that two edits dispatched
// concurrently are applied one after the other over the latest published
// graph instead of racing on a stale snapshot and silently dropping one
// edit's effect.
type Store struct {
	mu    sync.Mutex
	graph *core.ContentGraph
}

// NewStore returns a store holding an empty graph.
func NewStore() *Store {
	return &Store{graph: &core.ContentGraph{}}
}

// Dispatch applies the edit to the latest graph and publishes the result.
// It returns the new graph.
func (s *Store) Dispatch(e Edit) *core.ContentGraph {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph = Apply(s.graph, e)
	return s.graph
}

// Graph returns the latest published graph. The graph is immutable between
// edits, so the returned pointer is safe to read without holding any lock.
func (s *Store) Graph() *core.ContentGraph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}

// Load replaces the current graph, e.g. after loading a project snapshot.
func (s *Store) Load(g *core.ContentGraph) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g == nil {
		g = &core.ContentGraph{}
	}
	s.graph = g
}

// Reset discards the current graph for a fresh project.
func (s *Store) Reset() {
	s.Load(&core.ContentGraph{})
}
