package chart

import "sync/atomic"

// PropagationGuard admits one range propagation at a time.
// Callers must pair a successful TryAcquire with Release, normally via defer.
type PropagationGuard struct {
	busy atomic.Bool
}

// TryAcquire takes the guard, reporting false if a propagation is in flight.
func (g *PropagationGuard) TryAcquire() bool {
	return g.busy.CompareAndSwap(false, true)
}

// Release frees the guard.
func (g *PropagationGuard) Release() {
	g.busy.Store(false)
}

// Busy reports whether a propagation is in flight.
func (g *PropagationGuard) Busy() bool {
	return g.busy.Load()
}
