package scope

import (
	"reflect"
	"sync"

	"anvil/key"
	"anvil/provider"
)

// Monitor is the coarse, per-container lock from §4.4: "A coarse monitor
// per container prevents deadlocks among singletons with
// circular-construction dependencies." It is reentrant per owner token
// (the resolver passes its current call context as owner) so that a
// single logical resolution — one singleton's constructor needing
// another singleton — proceeds without re-blocking on its own lock, while
// a genuinely different goroutine building an unrelated singleton waits
// its turn. This is the container-wide analogue of the teacher's
// per-provider sync.RWMutex double-checked lock in di.Container's
// resolveSingleton, widened from "one lock per binding" to "one lock per
// container" because the spec requires deadlock-freedom across different
// singletons, not just within one.
type Monitor struct {
	mu    sync.Mutex
	cond  *sync.Cond
	owner any
	depth int
}

// NewMonitor creates a free Monitor.
func NewMonitor() *Monitor {
	m := &Monitor{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func (m *Monitor) lock(owner any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.owner != nil && m.owner != owner {
		m.cond.Wait()
	}
	m.owner = owner
	m.depth++
}

func (m *Monitor) unlock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.depth--
	if m.depth == 0 {
		m.owner = nil
		m.cond.Broadcast()
	}
}

// singleton is the container-lifetime scope (§4.4 "Singleton"): a
// double-checked cache keyed by the scoped Provider instance (one cache
// cell per Wrap call, i.e. per binding), guarded by the container's
// shared Monitor.
type singleton struct {
	monitor *Monitor

	mu    sync.RWMutex
	value reflect.Value
	err   error
	ready bool
}

// NewSingleton builds the intrinsic Singleton scope, sharing monitor with
// every other singleton binding in the same container.
func NewSingleton(monitor *Monitor) Scope {
	return &singleton{monitor: monitor}
}

func (s *singleton) Wrap(_ key.Key, raw provider.Func) provider.Func {
	return func(ctx any) (reflect.Value, error) {
		s.mu.RLock()
		if s.ready {
			v, err := s.value, s.err
			s.mu.RUnlock()
			return v, err
		}
		s.mu.RUnlock()

		s.monitor.lock(ctx)
		defer s.monitor.unlock()

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.ready {
			return s.value, s.err
		}

		s.value, s.err = raw(ctx)
		s.ready = true
		return s.value, s.err
	}
}
