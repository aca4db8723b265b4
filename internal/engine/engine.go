package engine

import (
	"sync/atomic"
)

// Engine holds evaluator settings shared by every search. Searches keep
// their own per-call state, so one Engine can serve concurrent requests.
type Engine struct {
	// Mobility turns on the move-count term of the leaf evaluator. It
	// doubles move generation at every leaf.
	Mobility bool

	nodes    int64
	searches int64
}

func NewEngine() *Engine {
	return &Engine{Mobility: true}
}

// Stats returns lifetime node and search counters.
func (e *Engine) Stats() (nodes, searches int64) {
	return atomic.LoadInt64(&e.nodes), atomic.LoadInt64(&e.searches)
}

func (e *Engine) record(nodes int64) {
	atomic.AddInt64(&e.nodes, nodes)
	atomic.AddInt64(&e.searches, 1)
}
